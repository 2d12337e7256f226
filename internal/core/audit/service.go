package audit

import "context"

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Service serves the admin log listing.
type Service struct {
	repo Repository
}

// UseCase is the public surface of the audit service.
type UseCase interface {
	ListLogs(ctx context.Context, in ListLogsInput) (*ListLogsResult, error)
}

// NewService creates a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListLogsInput selects one page of the log.
type ListLogsInput struct {
	Page     int
	PageSize int
}

// ListLogsResult is one page of the log plus totals.
type ListLogsResult struct {
	Logs        []*LogView
	TotalItems  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// ListLogs returns the newest entries first.
func (s *Service) ListLogs(ctx context.Context, in ListLogsInput) (*ListLogsResult, error) {
	page := in.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}

	size := in.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		return nil, ErrInvalidPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.List(ctx, ListFilter{Limit: size, Offset: (page - 1) * size})
	if err != nil {
		return nil, err
	}

	return &ListLogsResult{
		Logs:        logs,
		TotalItems:  total,
		TotalPages:  (total + size - 1) / size,
		CurrentPage: page,
		PageSize:    size,
	}, nil
}
