package ingest

import "context"

// Sheet is the first sheet of an uploaded file, as text cells.
type Sheet struct {
	Name string
	Rows [][]string
}

// SheetReader opens the first sheet of a spreadsheet or CSV file.
// Implementations return ErrEmptyWorkbook or ErrUnreadableSheet.
type SheetReader interface {
	ReadFirstSheet(ctx context.Context, path string) (*Sheet, error)
}

// Scratch is the temporary upload area.
type Scratch interface {
	// Resolve checks that path names a file inside the scratch area.
	Resolve(path string) (string, error)
	Remove(path string) error
}

// ReplaceObserver is told about every roster replacement.
type ReplaceObserver interface {
	ObserveReplace(operation string, rows int, err error)
}
