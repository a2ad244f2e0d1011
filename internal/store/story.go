package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetStory returns every sentence ever linked to the subject, each flagged
// used if it has a story entry for that subject. Used rows come first,
// ordered by append time (oldest first, entry id breaking ties); available
// rows follow in sentence id order. Reads go straight to the database so
// the result always reflects the latest committed appends.
func (s *SQLiteStore) GetStory(ctx context.Context, subjectID int64) ([]StoryRow, error) {
	// Unknown subject is NotFound, not an empty story.
	if _, err := s.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ls.sentence_id, ls.raw_text, ls.link, ls.sentiment, ls.subjectivity, ls.word_count,
		        CASE WHEN st.id IS NOT NULL THEN 1 ELSE 0 END AS used,
		        COALESCE(st.created_at, 0),
		        COALESCE(st.id, 0)
		 FROM (
		     SELECT ss.subject_id, sen.id AS sentence_id, sen.raw_text, sen.link,
		            sen.sentiment, sen.subjectivity, sen.word_count
		     FROM sentence_subjects ss
		     JOIN sentences sen ON ss.sentence_id = sen.id
		     WHERE ss.subject_id = ?
		 ) ls
		 LEFT JOIN story_entries st
		   ON st.subject_id = ls.subject_id AND st.sentence_id = ls.sentence_id
		 ORDER BY used DESC, st.created_at ASC, st.id ASC, ls.sentence_id ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying story for subject %d: %w", subjectID, err)
	}
	defer rows.Close()

	var out []StoryRow
	for rows.Next() {
		var r StoryRow
		var used int
		var usedMs, entryID int64
		if err := rows.Scan(&r.SentenceID, &r.Text, &r.Link, &r.Sentiment,
			&r.Subjectivity, &r.WordCount, &used, &usedMs, &entryID); err != nil {
			return nil, fmt.Errorf("scanning story row: %w", err)
		}
		r.Used = used == 1
		if r.Used {
			r.UsedAt = time.UnixMilli(usedMs).UTC()
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendToStory adds one story entry for (subjectID, sentenceID) and
// returns its id. The pair must reference an existing subject/sentence
// link; otherwise ErrConstraint is returned and nothing is written.
// Entries are append-only — there is no update or delete path.
func (s *SQLiteStore) AppendToStory(ctx context.Context, subjectID, sentenceID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM sentence_subjects WHERE subject_id = ? AND sentence_id = ? LIMIT 1`,
		subjectID, sentenceID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: no link between subject %d and sentence %d",
			ErrConstraint, subjectID, sentenceID)
	}
	if err != nil {
		return 0, fmt.Errorf("checking link: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO story_entries (subject_id, sentence_id, created_at) VALUES (?, ?, ?)`,
		subjectID, sentenceID, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("appending story entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting entry id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing story entry: %v", ErrUnavailable, err)
	}
	return id, nil
}
