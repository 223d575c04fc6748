package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/joker512/pebble-tracker/internal/bridge"
	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/model"
	"github.com/joker512/pebble-tracker/internal/mutate"
)

// Pebble's webview closes when it navigates here; the response follows the '#'.
const closeURLPrefix = "pebblejs://close#"

type rowVM struct {
	Path     string
	Depth    int
	Name     string
	Leaf     bool
	Priority int
	Root     bool
}

type editorVM struct {
	TreeJSON string
	Rows     []rowVM
	Total    int
	AccTotal int
	ReturnTo string
	Error    string
	Notice   string
	Help     any
	Encoded  encodedVM
}

type encodedEntry struct {
	Key   int
	Value string
	Int   bool
}

type encodedVM struct {
	Entries []encodedEntry
	Error   string
}

type doneVM struct {
	Cancelled bool
	Error     string
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tree, settings, notice := sessionFromQuery(q)
	s.renderEditor(w, http.StatusOK, tree, settings, q.Get("return_to"), "", notice)
}

// sessionFromQuery reads ?tree=&total=&acctotal=, falling back to defaults for
// anything missing or unreadable.
func sessionFromQuery(q url.Values) (model.Tree, model.Settings, string) {
	var notices []string
	tree := model.DefaultTree()
	if raw := strings.TrimSpace(q.Get("tree")); raw != "" {
		if t, err := model.ParseTree([]byte(raw)); err == nil && len(t) > 0 {
			t.Normalize()
			tree = t
		} else {
			notices = append(notices, "The stored tree could not be read; showing the default tree.")
		}
	}

	settings := model.DefaultSettings()
	if n, err := model.ParseHours(q.Get("total")); err == nil && n >= 0 {
		settings.Total = n
	}
	if n, err := model.ParseHours(q.Get("acctotal")); err == nil && n >= 0 {
		settings.AccTotal = n
	}
	return tree, settings, strings.Join(notices, " ")
}

func (s *Server) renderEditor(w http.ResponseWriter, status int, tree model.Tree, settings model.Settings, returnTo, errMsg, notice string) {
	b, err := json.Marshal(tree)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	vm := editorVM{
		TreeJSON: string(b),
		Rows:     rows(tree),
		Total:    settings.Total,
		AccTotal: settings.AccTotal,
		ReturnTo: returnTo,
		Error:    errMsg,
		Notice:   notice,
		Help:     s.help,
		Encoded:  encoded(tree, settings),
	}
	s.writeHTMLTemplate(w, status, "editor.html", vm)
}

func rows(tree model.Tree) []rowVM {
	var out []rowVM
	_ = tree.Walk(func(path string, n *model.Node, depth int) error {
		out = append(out, rowVM{
			Path:     path,
			Depth:    depth,
			Name:     n.Name,
			Leaf:     n.IsLeaf(),
			Priority: n.Priority,
			Root:     depth == 0,
		})
		return nil
	})
	return out
}

func encoded(tree model.Tree, settings model.Settings) encodedVM {
	msg, err := codec.Encode(tree, settings)
	if err != nil {
		return encodedVM{Error: err.Error()}
	}
	vm := encodedVM{}
	for _, k := range msg.Keys() {
		v := msg[k]
		vm.Entries = append(vm.Entries, encodedEntry{Key: k, Value: v.String(), Int: v.IsInt()})
	}
	return vm
}

// formSession applies the submitted field values to the tree carried in the
// hidden "tree" field. Fields are keyed by node path: name.<path>, prio.<path>.
func formSession(form url.Values) (model.Tree, model.Settings, error) {
	tree, err := model.ParseTree([]byte(form.Get("tree")))
	if err != nil {
		return nil, model.Settings{}, err
	}
	tree.Normalize()

	err = tree.Walk(func(path string, n *model.Node, _ int) error {
		if vs, ok := form["name."+path]; ok && len(vs) > 0 {
			name := strings.TrimSpace(vs[0])
			if name == "" {
				return &model.NodeError{Path: path, Name: n.Name, Reason: "node has no name or value"}
			}
			if n.Value == n.Name {
				n.Value = name
			}
			n.Name = name
		}
		if !n.IsLeaf() {
			return nil
		}
		if vs, ok := form["prio."+path]; ok && len(vs) > 0 {
			p, err := strconv.Atoi(strings.TrimSpace(vs[0]))
			if err != nil || p < 1 {
				return &model.NodeError{Path: path, Name: n.Name, Reason: "leaf priority must be a positive integer"}
			}
			n.Priority = p
		}
		return nil
	})
	if err != nil {
		return nil, model.Settings{}, err
	}

	var settings model.Settings
	if settings.Total, err = model.ParseHours(form.Get("total")); err != nil {
		return nil, model.Settings{}, &model.SettingsError{Field: "total"}
	}
	if settings.AccTotal, err = model.ParseHours(form.Get("acctotal")); err != nil {
		return nil, model.Settings{}, &model.SettingsError{Field: "accTotal"}
	}
	if err := settings.Validate(); err != nil {
		return nil, model.Settings{}, err
	}
	return tree, settings, nil
}

func (s *Server) handleEditorSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	action := strings.TrimSpace(r.PostForm.Get("action"))
	returnTo := strings.TrimSpace(r.PostForm.Get("return_to"))

	if action == "cancel" {
		s.close(w, r, returnTo, "")
		return
	}

	tree, settings, err := formSession(r.PostForm)
	if err != nil {
		fallback, _ := model.ParseTree([]byte(r.PostForm.Get("tree")))
		if len(fallback) == 0 {
			fallback = model.DefaultTree()
		}
		fallback.Normalize()
		s.renderEditor(w, http.StatusUnprocessableEntity, fallback, model.DefaultSettings(), returnTo, err.Error(), "")
		return
	}

	if action != "" && action != "save" {
		res, err := mutate.Apply(tree, action)
		msg := ""
		status := http.StatusOK
		if err != nil {
			msg = err.Error()
			status = http.StatusUnprocessableEntity
		}
		s.renderEditor(w, status, res.Tree, settings, returnTo, msg, "")
		return
	}

	if err := tree.Validate(); err != nil {
		s.renderEditor(w, http.StatusUnprocessableEntity, tree, settings, returnTo, err.Error(), "")
		return
	}
	resp, err := bridge.FormatResponse(tree, settings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.close(w, r, returnTo, resp)
}

// close hands the response back: to the watch's webview when return_to names
// its close URL, otherwise to the configured close handler.
func (s *Server) close(w http.ResponseWriter, r *http.Request, returnTo, response string) {
	if returnTo != "" {
		if !validReturnTo(returnTo) {
			http.Error(w, "invalid return_to", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, returnTo+response, http.StatusSeeOther)
		return
	}

	vm := doneVM{Cancelled: response == ""}
	status := http.StatusOK
	if err := s.cfg.OnClose(r.Context(), response); err != nil {
		vm.Error = err.Error()
		status = http.StatusUnprocessableEntity
		var capErr *codec.CapacityError
		if errors.As(err, &capErr) {
			vm.Error += " (the tree was saved but not sent)"
		}
	}
	s.writeHTMLTemplate(w, status, "done.html", vm)
}

func validReturnTo(v string) bool {
	return strings.HasPrefix(v, closeURLPrefix) || (strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//"))
}
