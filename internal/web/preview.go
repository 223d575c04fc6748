package web

import (
	"fmt"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// handlePreview streams the encoded message for the form state in the query
// string (datastar sends form fields there on GET).
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}

	vm := encodedVM{}
	if tree, settings, err := formSession(r.Form); err != nil {
		vm.Error = err.Error()
	} else {
		vm = encoded(tree, settings)
	}
	html, err := s.renderTemplate("encoded", vm)

	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
		return
	}
	_ = sse.PatchElements(html, datastar.WithSelector("#encoded"), datastar.WithMode(datastar.ElementPatchModeInner))
}
