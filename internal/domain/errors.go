package domain

import "errors"

var (
	// ErrNotFound means the source text of a document is unavailable.
	ErrNotFound = errors.New("text not found")
	// ErrLengthExceeded means a text is longer than the vectorizer accepts.
	ErrLengthExceeded = errors.New("text length exceeded")
	// ErrInvalidEncoding means a text is not valid UTF-8.
	ErrInvalidEncoding = errors.New("text is not valid UTF-8")
	// ErrBatchTooSmall means the corpus cannot support the requested neighbourhood size.
	ErrBatchTooSmall = errors.New("batch too small")
	// ErrMergeKeyMismatch means a metadata record has no coordinate row.
	ErrMergeKeyMismatch = errors.New("merge key mismatch")
	// ErrDimensionMismatch means a vector does not match the corpus width.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Skippable reports whether err only affects a single document.
func Skippable(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLengthExceeded) ||
		errors.Is(err, ErrInvalidEncoding)
}
