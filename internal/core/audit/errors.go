package audit

import "errors"

var (
	// ErrInvalidPage is returned for a page number below 1.
	ErrInvalidPage = errors.New("audit: invalid page")
	// ErrInvalidPageSize is returned for a page size above the limit.
	ErrInvalidPageSize = errors.New("audit: invalid page size")
)
