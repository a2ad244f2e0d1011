package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetSubject returns a subject by id. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetSubject(ctx context.Context, id int64) (*Subject, error) {
	var sub Subject
	var createdMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, created_at FROM subjects WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Label, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: subject %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting subject %d: %w", id, err)
	}
	sub.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &sub, nil
}

// CountSubjects returns the number of known subjects.
func (s *SQLiteStore) CountSubjects(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subjects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting subjects: %w", err)
	}
	return n, nil
}

// PopularSubjects returns the subjects with the most sentence links,
// descending, ties broken by lowest subject id.
func (s *SQLiteStore) PopularSubjects(ctx context.Context, limit int) ([]SubjectCount, error) {
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sub.label, sub.id, COUNT(ss.id) AS links
		 FROM subjects sub
		 LEFT JOIN sentence_subjects ss ON ss.subject_id = sub.id
		 GROUP BY sub.id
		 ORDER BY links DESC, sub.id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying popular subjects: %w", err)
	}
	defer rows.Close()

	var out []SubjectCount
	for rows.Next() {
		var sc SubjectCount
		if err := rows.Scan(&sc.Label, &sc.SubjectID, &sc.Links); err != nil {
			return nil, fmt.Errorf("scanning popular subject: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
