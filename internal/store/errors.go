package store

import "errors"

// ErrNotFound is returned when a subject or sentence id does not exist.
var ErrNotFound = errors.New("skein: not found")

// ErrConstraint is returned when a write would violate the data model:
// a story append without a matching subject/sentence link, or a sentence
// insert with no subjects.
var ErrConstraint = errors.New("skein: constraint violation")

// ErrUnavailable is returned when the underlying database cannot be
// reached or a transaction cannot be started.
var ErrUnavailable = errors.New("skein: store unavailable")
