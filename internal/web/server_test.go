package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pellmark/skein/internal/realtime"
	"github.com/pellmark/skein/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv, err := NewServer(st, realtime.NewServer(st, nil), Options{}, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, st
}

func seedSubject(t *testing.T, st store.Store, label string) (subjectID, sentenceID int64) {
	t.Helper()
	sentenceID, err := st.InsertSentence(context.Background(), []string{label}, &store.Sentence{
		Text: fmt.Sprintf("The %s wandered into the story.", label),
	})
	if err != nil {
		t.Fatalf("seeding sentence: %v", err)
	}
	top, err := st.PopularSubjects(context.Background(), 50)
	if err != nil {
		t.Fatalf("listing subjects: %v", err)
	}
	for _, sc := range top {
		if sc.Label == label {
			return sc.SubjectID, sentenceID
		}
	}
	t.Fatalf("subject %q not found after seeding", label)
	return 0, 0
}

func TestHandleTopics(t *testing.T) {
	srv, st := newTestServer(t)
	seedSubject(t, st, "cat")
	seedSubject(t, st, "dog")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"CAT", "DOG", "page 1 of 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("listing missing %q", want)
		}
	}
}

func TestHandleTopics_UnknownOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?order=magic", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTopics_Pagination(t *testing.T) {
	srv, st := newTestServer(t)
	for _, label := range []string{"ant", "bee", "cat", "dog", "eel"} {
		seedSubject(t, st, label)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?page=2&per_page=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "page 2 of 3") {
		t.Errorf("expected page 2 of 3 in body")
	}
	if !strings.Contains(body, "previous") || !strings.Contains(body, "next") {
		t.Errorf("middle page should link both directions")
	}
}

func TestHandleSubject(t *testing.T) {
	srv, st := newTestServer(t)
	subjectID, _ := seedSubject(t, st, "cat")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, fmt.Sprintf("/%d", subjectID), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "CAT") {
		t.Errorf("subject page should display the upper-cased label")
	}
}

func TestHandleSubject_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/999", "/not-a-number"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestHandleFavicon(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWebsocket_JoinAndSubmit(t *testing.T) {
	srv, st := newTestServer(t)
	subjectID, sentenceID := seedSubject(t, st, "cat")

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	join := realtime.ClientMessage{Event: realtime.EventJoin, SubjectID: subjectID, Room: "cat"}
	if err := conn.WriteJSON(join); err != nil {
		t.Fatalf("sending join: %v", err)
	}

	var msg realtime.ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading join answer: %v", err)
	}
	if msg.Event != realtime.EventUpdate || len(msg.Data.Available) != 1 {
		t.Fatalf("join answer = %+v, want update with 1 available", msg)
	}

	submit := realtime.ClientMessage{
		Event: realtime.EventSubmit, SubjectID: subjectID,
		SentenceID: sentenceID, Room: "cat",
	}
	if err := conn.WriteJSON(submit); err != nil {
		t.Fatalf("sending submit: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if msg.Event != realtime.EventUpdate || len(msg.Data.Used) != 1 || len(msg.Data.Available) != 0 {
		t.Fatalf("broadcast = %+v, want update with the pick used", msg)
	}

	var rows []store.StoryRow
	rows, err = st.GetStory(context.Background(), subjectID)
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if len(rows) != 1 || !rows[0].Used {
		t.Fatalf("ledger should record the pick, rows = %+v", rows)
	}
}
