// Package apperr defines the sentinel errors shared across service boundaries.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrSelfLink      = errors.New("note cannot link to itself")
	ErrDuplicateLink = errors.New("link already exists")
	ErrEmptyTitle    = errors.New("title is empty")
	ErrEmptyTag      = errors.New("tag is empty")
	ErrArchived      = errors.New("note is archived")
)

// IsValidation reports whether err is one of the input-validation sentinels,
// as opposed to a missing note or a storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSelfLink) ||
		errors.Is(err, ErrDuplicateLink) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrEmptyTag) ||
		errors.Is(err, ErrArchived)
}
