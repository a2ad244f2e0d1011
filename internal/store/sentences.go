package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertSentence stores one sentence and links it to every subject label,
// resolving or creating each subject through the atomic upsert. The whole
// operation runs in a single transaction: a failure on any link rolls back
// the sentence row too, so a sentence is never left orphaned from its
// subjects.
func (s *SQLiteStore) InsertSentence(ctx context.Context, subjects []string, sen *Sentence) (int64, error) {
	labels := make([]string, 0, len(subjects))
	for _, l := range subjects {
		if l != "" {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return 0, fmt.Errorf("%w: sentence has no subjects", ErrConstraint)
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sentences (raw_text, sentiment, subjectivity, word_count, link, batch, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sen.Text, sen.Sentiment, sen.Subjectivity, sen.WordCount, sen.Link, sen.Batch, now.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sentence: %w", err)
	}
	sentenceID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting sentence id: %w", err)
	}

	for _, label := range labels {
		subjectID, err := upsertSubject(ctx, tx, label, now)
		if err != nil {
			return 0, fmt.Errorf("resolving subject %q: %w", label, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentence_subjects (subject_id, sentence_id) VALUES (?, ?)`,
			subjectID, sentenceID,
		); err != nil {
			return 0, fmt.Errorf("linking subject %q: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing sentence: %v", ErrUnavailable, err)
	}

	sen.ID = sentenceID
	sen.IngestedAt = now
	return sentenceID, nil
}

// upsertSubject resolves a label to its subject id, creating the row if the
// label has never been seen. The ON CONFLICT clause makes check-then-insert
// a single atomic statement, so two workers racing on the same new label
// both resolve to one row.
func upsertSubject(ctx context.Context, tx *sql.Tx, label string, now time.Time) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO subjects (label, created_at) VALUES (?, ?)
		 ON CONFLICT(label) DO UPDATE SET label = excluded.label
		 RETURNING id`,
		label, now.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
