package jobdescription

import "errors"

var (
	// ErrNotFound is returned when no job description matches.
	ErrNotFound = errors.New("jobdescription: not found")
	// ErrDuplicateCode is returned when the function code is already described.
	ErrDuplicateCode = errors.New("jobdescription: function code already exists")
	// ErrInvalidInput is returned for missing mandatory fields.
	ErrInvalidInput = errors.New("jobdescription: invalid input")
	// ErrNotPDF is returned when the attachment is not a PDF document.
	ErrNotPDF = errors.New("jobdescription: attachment must be a PDF")
)
