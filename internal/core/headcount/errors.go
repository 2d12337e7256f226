package headcount

import "errors"

var (
	// ErrInvalidPeriod is returned for labels that are neither YYYY-MM nor MM/YYYY.
	ErrInvalidPeriod = errors.New("headcount: invalid period")
	// ErrInvalidPage is returned for a page below 1.
	ErrInvalidPage = errors.New("headcount: invalid page")
	// ErrInvalidPageSize is returned for a negative page size.
	ErrInvalidPageSize = errors.New("headcount: invalid page size")
)
