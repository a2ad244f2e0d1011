// Package web serves the browser surface: the ranked topic listing,
// per-subject story pages, and the websocket upgrade endpoint.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pellmark/skein/internal/realtime"
	"github.com/pellmark/skein/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Options configures the web server.
type Options struct {
	Addr    string
	Order   string // default listing order for GET /
	PerPage int    // default page size for GET /
}

// Server is the HTTP front of the story service.
type Server struct {
	st   store.Store
	rt   *realtime.Server
	log  *slog.Logger
	tmpl *template.Template
	opts Options

	httpSrv *http.Server
}

// NewServer builds the server and parses the embedded templates.
func NewServer(st store.Store, rt *realtime.Server, opts Options, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Server{
		st:   st,
		rt:   rt,
		log:  log.With("component", "web"),
		tmpl: tmpl,
		opts: opts,
	}, nil
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleTopics)
	r.Get("/favicon.ico", s.handleFavicon)
	r.Get("/ws", s.rt.ServeWS)
	r.Get("/{subjectID}", s.handleSubject)
	return r
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("web server listening", "addr", s.opts.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.log.Info("web server shutting down")
	return s.httpSrv.Shutdown(ctx)
}
