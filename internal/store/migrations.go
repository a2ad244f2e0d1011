package store

import (
	"fmt"
)

// schemaVersion is bumped whenever bootstrapDDL changes shape.
const schemaVersion = "1"

// migrate creates all tables if they don't exist and seeds metadata.
//
// Timestamps are stored as INTEGER unix milliseconds so MAX() aggregates
// and ordering work numerically without driver-specific time parsing.
func (s *SQLiteStore) migrate() error {
	if err := s.runBootstrapDDL(); err != nil {
		return err
	}

	if err := s.seedMeta(); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	return nil
}

func (s *SQLiteStore) runBootstrapDDL() error {
	statements := []string{
		// Canonical subjects. The unique index on label is the enforcement
		// point for subject identity: concurrent ingestion workers race on
		// insert-or-get, and the index makes the upsert atomic.
		`CREATE TABLE IF NOT EXISTS subjects (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			label      TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_subjects_label ON subjects(label)`,

		// Ingested sentences with typed sentiment columns and provenance.
		`CREATE TABLE IF NOT EXISTS sentences (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			raw_text     TEXT NOT NULL,
			sentiment    REAL NOT NULL DEFAULT 0,
			subjectivity REAL NOT NULL DEFAULT 0,
			word_count   INTEGER NOT NULL DEFAULT 0,
			link         TEXT NOT NULL DEFAULT '',
			batch        TEXT NOT NULL DEFAULT '',
			ingested_at  INTEGER NOT NULL
		)`,

		// Subject/sentence links from tagging. Deliberately no uniqueness:
		// re-ingesting a batch may duplicate links, and a sentence then
		// counts more than once for that subject.
		`CREATE TABLE IF NOT EXISTS sentence_subjects (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id  INTEGER NOT NULL,
			sentence_id INTEGER NOT NULL,
			FOREIGN KEY (subject_id) REFERENCES subjects(id),
			FOREIGN KEY (sentence_id) REFERENCES sentences(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_links_subject ON sentence_subjects(subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_links_sentence ON sentence_subjects(sentence_id)`,

		// Append-only story log. Rows are never updated or deleted;
		// (created_at, id) defines story order.
		`CREATE TABLE IF NOT EXISTS story_entries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id  INTEGER NOT NULL,
			sentence_id INTEGER NOT NULL,
			created_at  INTEGER NOT NULL,
			FOREIGN KEY (subject_id) REFERENCES subjects(id),
			FOREIGN KEY (sentence_id) REFERENCES sentences(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_story_subject ON story_entries(subject_id, created_at, id)`,

		// Key-value metadata
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing bootstrap DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bootstrap DDL: %w", err)
	}
	return nil
}

func (s *SQLiteStore) seedMeta() error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`,
		schemaVersion,
	)
	return err
}
