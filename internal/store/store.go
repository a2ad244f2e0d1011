// Package store provides the SQLite storage layer for skein.
//
// All story data lives in a single SQLite database file, including:
// - Canonical subjects with a uniqueness constraint on the label
// - Ingested sentences with their sentiment scores and provenance
// - The subject/sentence link table produced by tagging
// - The append-only story log that orders each subject's narrative
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.skein/skein.db"

// Subject is a canonicalized noun label acting as a topic.
// Subjects are created on first sighting and never mutated.
type Subject struct {
	ID        int64
	Label     string
	CreatedAt time.Time
}

// Sentence is one ingested, tagged unit of text.
type Sentence struct {
	ID           int64
	Text         string
	Sentiment    float64 // compound polarity in [-1, 1]
	Subjectivity float64 // 0 = objective, 1 = subjective
	WordCount    int
	Link         string // source URL
	Batch        string // ingestion run label
	IngestedAt   time.Time
}

// StoryRow is one sentence linked to a subject, flagged with its
// story membership. Used rows carry the append timestamp that orders
// the story; available rows have a zero UsedAt.
type StoryRow struct {
	SentenceID   int64
	Text         string
	Link         string
	Sentiment    float64
	Subjectivity float64
	WordCount    int
	Used         bool
	UsedAt       time.Time
}

// TopicOrder selects the ranking mode for ListTopics.
type TopicOrder string

const (
	// OrderActivity ranks subjects by most recent story append.
	OrderActivity TopicOrder = "activity"
	// OrderVolume ranks subjects by total story appends.
	OrderVolume TopicOrder = "volume"
)

// TopicOpts controls ordering and pagination for ListTopics.
type TopicOpts struct {
	Order  TopicOrder
	Offset int
	Limit  int
}

// Topic is one row of the ranked subject listing.
type Topic struct {
	SubjectID      int64
	Label          string
	LastActivity   time.Time // zero when the subject has no story entries
	UsedCount      int64
	AvailableCount int64
}

// SubjectCount pairs a subject with its total link count.
type SubjectCount struct {
	Label     string
	SubjectID int64
	Links     int64
}

// StoreStats holds observability counts about the store.
type StoreStats struct {
	SubjectCount  int64
	SentenceCount int64
	LinkCount     int64
	StoryCount    int64
	DBSizeBytes   int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the persistence contract for the story service.
type Store interface {
	// Ingestion
	InsertSentence(ctx context.Context, subjects []string, s *Sentence) (int64, error)

	// Story ledger
	GetStory(ctx context.Context, subjectID int64) ([]StoryRow, error)
	AppendToStory(ctx context.Context, subjectID, sentenceID int64) (int64, error)

	// Subjects
	GetSubject(ctx context.Context, id int64) (*Subject, error)
	CountSubjects(ctx context.Context) (int64, error)
	PopularSubjects(ctx context.Context, limit int) ([]SubjectCount, error)

	// Ranking
	ListTopics(ctx context.Context, opts TopicOpts) ([]Topic, error)

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)

	Close() error
}

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so cap the pool at a single connection.
	if cfg.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Enable WAL mode and foreign keys
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the raw handle for callers that need ad hoc queries
// (stats surfaces, tests).
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
