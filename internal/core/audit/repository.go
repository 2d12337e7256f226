package audit

import "context"

// Repository persists audit entries.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) ([]*LogView, error)
	Count(ctx context.Context) (int, error)
}

// ListFilter pages the audit listing, newest first.
type ListFilter struct {
	Limit  int
	Offset int
}
