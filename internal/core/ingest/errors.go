package ingest

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyWorkbook is returned when the file has no sheets.
	ErrEmptyWorkbook = errors.New("ingest: workbook has no sheets")
	// ErrUnreadableSheet is returned when the first sheet cannot be parsed.
	ErrUnreadableSheet = errors.New("ingest: first sheet could not be read")
	// ErrEmptyData is returned when the sheet has no data rows.
	ErrEmptyData = errors.New("ingest: sheet has no data rows")
	// ErrMissingColumns is matched by MissingColumnsError.
	ErrMissingColumns = errors.New("ingest: missing required columns")
	// ErrNoValidRows is returned when every row lacks a matricula.
	ErrNoValidRows = errors.New("ingest: no valid rows")
	// ErrBackupWrite is returned when the backup artifact cannot be written.
	ErrBackupWrite = errors.New("ingest: backup write failed")
	// ErrStorageReplace is returned when the roster replacement fails.
	ErrStorageReplace = errors.New("ingest: roster replace failed")
	// ErrInvalidFilePath is returned when the path is not a pending upload.
	ErrInvalidFilePath = errors.New("ingest: invalid file path")
	// ErrUnsupportedFile is returned for files that are not spreadsheets or CSV.
	ErrUnsupportedFile = errors.New("ingest: unsupported file type")
)

// MissingColumnsError names the mandatory columns absent from the header row.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return ErrMissingColumns.Error() + ": " + strings.Join(e.Columns, ", ")
}

// Is makes errors.Is(err, ErrMissingColumns) true.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}
