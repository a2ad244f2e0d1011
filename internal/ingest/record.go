package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one raw comment from the dump, one per input line.
type Record struct {
	Body   string `json:"body"`
	LinkID string `json:"link_id"`
	ID     string `json:"id"`
}

// parseRecord decodes a single JSONL line.
func parseRecord(line []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("malformed record: %w", err)
	}
	if r.Body == "" {
		return nil, fmt.Errorf("record %q has no body", r.ID)
	}
	return &r, nil
}

// Removed reports whether the comment content was taken down at the source.
func (r *Record) Removed() bool {
	return r.Body == "[removed]" || r.Body == "[deleted]"
}

// SourceLink renders the canonical URL for the comment's thread.
// LinkID carries a "t3_" type prefix that is not part of the URL.
func (r *Record) SourceLink() string {
	linkID := r.LinkID
	if i := strings.Index(linkID, "_"); i >= 0 {
		linkID = linkID[i+1:]
	}
	return fmt.Sprintf("https://www.reddit.com//comments/%s//%s", linkID, r.ID)
}
