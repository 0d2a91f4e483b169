package storage

import "errors"

// Archive errors. Archives are append-only: a key, once written, is never
// rewritten.
var (
	// ErrDuplicateKey reports an insert whose key is already archived, or a
	// batch that repeats a key.
	ErrDuplicateKey = errors.New("archive: duplicate key")

	// ErrInvalidInput reports a nil record, an empty run ID or a
	// non-positive limit.
	ErrInvalidInput = errors.New("archive: invalid input")
)
