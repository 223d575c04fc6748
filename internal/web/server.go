package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
)

//go:embed templates/*.html help.md
var assetsFS embed.FS

const editorPath = "/tracker.html"

type ServerConfig struct {
	Addr string

	// OnClose receives the editor response: the URL-encoded
	// [tree, total, accTotal] payload, or "" when the user cancelled.
	OnClose func(ctx context.Context, response string) error

	Logger *log.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	help template.HTML
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.OnClose == nil {
		return nil, errors.New("web: missing close handler")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	help, err := assetsFS.ReadFile("help.md")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, help: renderHelp(string(help))}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// EditorURL is the editor page of a server listening on addr.
func EditorURL(addr string) string { return "http://" + addr + editorPath }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, editorPath, http.StatusFound)
	})
	mux.HandleFunc("GET "+editorPath, s.handleEditor)
	mux.HandleFunc("POST "+editorPath, s.handleEditorSubmit)
	mux.HandleFunc("GET /preview", s.handlePreview)

	var h http.Handler = mux
	h = withAccessLog(s.cfg.Logger)(h)
	h = withRecover(s.cfg.Logger)(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, status int, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, html)
}
