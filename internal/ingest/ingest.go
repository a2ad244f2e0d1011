// Package ingest provides the comment-dump import pipeline for skein.
// It reads one JSON record per line, sanitizes the markdown-ish body,
// splits it into sentences, tags noun subjects and sentiment, and feeds
// the results into the storage layer through a bounded worker pool.
package ingest

import "fmt"

// Result summarizes an ingestion run.
type Result struct {
	Lines     int // lines read from the input
	Records   int // records successfully parsed
	Removed   int // records skipped because the content was removed
	Sentences int // sentences stored
	Skipped   int // sentences dropped (too short or no subjects)
	Errors    []RecordError
}

// RecordError records a non-fatal error for one input line.
type RecordError struct {
	Line    int
	Message string
}

// Add merges another Result into this one.
func (r *Result) Add(other *Result) {
	r.Lines += other.Lines
	r.Records += other.Records
	r.Removed += other.Removed
	r.Sentences += other.Sentences
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// String renders a one-run summary for the CLI.
func (r *Result) String() string {
	return fmt.Sprintf("%d lines, %d records, %d sentences stored, %d removed, %d skipped, %d errors",
		r.Lines, r.Records, r.Sentences, r.Removed, r.Skipped, len(r.Errors))
}
