package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pellmark/skein/internal/store"
	"github.com/pellmark/skein/internal/topics"
)

type topicsView struct {
	Page *topics.Page
}

type subjectView struct {
	ID    int64
	Label string // display form, upper-cased
	Room  string // realtime room key, the raw label
}

// handleTopics renders the ranked topic listing.
// Query: page (1-based), per_page, order (time|posts).
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	perPage := intParam(q.Get("per_page"), s.defaultPerPage())
	order := q.Get("order")
	if order == "" {
		order = s.opts.Order
	}

	p, err := topics.List(r.Context(), s.st, order, page, perPage)
	if err != nil {
		// The only client-caused failure here is a bogus order value.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.render(w, "topics.html", topicsView{Page: p})
}

// handleSubject renders a subject's story page. The page itself is a
// shell; the current story state arrives over the websocket.
func (s *Server) handleSubject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "subjectID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sub, err := s.st.GetSubject(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("loading subject", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, "subject.html", subjectView{
		ID:    sub.ID,
		Label: strings.ToUpper(sub.Label),
		Room:  sub.Label,
	})
}

// handleFavicon always 404s; there is no icon to serve.
func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

// render executes a template into a buffer first so a failure can
// still produce a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("rendering template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) defaultPerPage() int {
	if s.opts.PerPage > 0 {
		return s.opts.PerPage
	}
	return topics.DefaultPerPage
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
