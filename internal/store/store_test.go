package store

import (
	"context"
	"fmt"
	"testing"
)

// newTestStore creates an in-memory store for testing.
func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewStore(StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedSentence inserts a sentence linked to the given labels and returns its id.
func seedSentence(t *testing.T, s Store, text string, labels ...string) int64 {
	t.Helper()
	id, err := s.InsertSentence(context.Background(), labels, &Sentence{
		Text:      text,
		Link:      "https://example.com/" + fmt.Sprintf("%d", len(text)),
		Batch:     "test-batch",
		WordCount: 3,
	})
	if err != nil {
		t.Fatalf("InsertSentence(%q): %v", text, err)
	}
	return id
}

// subjectID looks up a subject id by label.
func subjectID(t *testing.T, s Store, label string) int64 {
	t.Helper()
	ss := s.(*SQLiteStore)
	var id int64
	if err := ss.db.QueryRow(`SELECT id FROM subjects WHERE label = ?`, label).Scan(&id); err != nil {
		t.Fatalf("looking up subject %q: %v", label, err)
	}
	return id
}

// --- Database initialization ---

func TestNewStore(t *testing.T) {
	s, err := NewStore(StoreConfig{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	// Verify tables exist by querying each
	ss := s.(*SQLiteStore)
	tables := []string{"subjects", "sentences", "sentence_subjects", "story_entries", "meta"}
	for _, table := range tables {
		var name string
		err := ss.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestSubjectLabelUnique(t *testing.T) {
	s := newTestStore(t)
	ss := s.(*SQLiteStore)

	var count int
	err := ss.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_subjects_label'`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("checking label index: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected unique label index to exist, count=%d", count)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)
	ss := s.(*SQLiteStore)

	var version string
	ss.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if version != "1" {
		t.Errorf("expected schema_version '1', got %q", version)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSentence(t, s, "cats are great", "cat")
	seedSentence(t, s, "dogs chase cats", "dog", "cat")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.SubjectCount != 2 {
		t.Errorf("SubjectCount = %d, want 2", stats.SubjectCount)
	}
	if stats.SentenceCount != 2 {
		t.Errorf("SentenceCount = %d, want 2", stats.SentenceCount)
	}
	if stats.LinkCount != 3 {
		t.Errorf("LinkCount = %d, want 3", stats.LinkCount)
	}
	if stats.StoryCount != 0 {
		t.Errorf("StoryCount = %d, want 0", stats.StoryCount)
	}
}
