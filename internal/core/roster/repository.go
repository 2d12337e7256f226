package roster

import (
	"context"
	"time"
)

// Repository is the roster snapshot store.
type Repository interface {
	// Lock serializes replacements across processes for the current transaction.
	Lock(ctx context.Context) error
	ListAll(ctx context.Context) ([]Employee, error)
	// ReplaceAll deletes every employee and inserts rows. It must run inside a
	// read-write transaction so that no partial replacement is ever visible.
	ReplaceAll(ctx context.Context, rows []Employee) (int, error)
	FindByMatricula(ctx context.Context, matricula string) (*Employee, error)
	CountByFunction(ctx context.Context, statuses []string) (map[string]int, error)
}

// UploadRepository persists upload records.
type UploadRepository interface {
	Create(ctx context.Context, record *UploadRecord) (*UploadRecord, error)
	FindByID(ctx context.Context, id string) (*UploadRecord, error)
	MarkReverted(ctx context.Context, id, actorID string, at time.Time) error
	List(ctx context.Context) ([]*UploadRecord, error)
}

// BackupStore writes and reads roster snapshots.
type BackupStore interface {
	EnsureDir() error
	Write(ctx context.Context, rows []Employee, at time.Time) (string, error)
	Read(ctx context.Context, path string) ([]Employee, error)
}
