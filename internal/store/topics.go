package store

import (
	"context"
	"fmt"
	"time"
)

// ListTopics returns one ranked page of subjects with per-subject story
// aggregates. Order selects the primary sort key: OrderActivity ranks by
// latest story append, OrderVolume by total appends. Both fall back to
// available-sentence count descending, then lowest subject id, so pages
// stay stable across requests between writes. Subjects with no story
// activity still appear.
func (s *SQLiteStore) ListTopics(ctx context.Context, opts TopicOpts) ([]Topic, error) {
	var orderKey string
	switch opts.Order {
	case OrderActivity:
		orderKey = "activity"
	case OrderVolume:
		orderKey = "posts"
	default:
		return nil, fmt.Errorf("%w: unknown topic order %q", ErrConstraint, opts.Order)
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	query := fmt.Sprintf(
		`SELECT cnt.id, cnt.label,
		        COALESCE(MAX(st.created_at), 0) AS activity,
		        COUNT(st.id) AS posts,
		        cnt.num_sentences - COUNT(st.id) AS available
		 FROM (
		     SELECT sub.id, sub.label, COUNT(ss.id) AS num_sentences
		     FROM subjects sub
		     LEFT JOIN sentence_subjects ss ON ss.subject_id = sub.id
		     GROUP BY sub.id
		 ) cnt
		 LEFT JOIN story_entries st ON st.subject_id = cnt.id
		 GROUP BY cnt.id
		 ORDER BY %s DESC, available DESC, cnt.id ASC
		 LIMIT ? OFFSET ?`,
		orderKey,
	)

	rows, err := s.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		var t Topic
		var activityMs int64
		if err := rows.Scan(&t.SubjectID, &t.Label, &activityMs,
			&t.UsedCount, &t.AvailableCount); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		if activityMs > 0 {
			t.LastActivity = time.UnixMilli(activityMs).UTC()
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
