package headcount

import "context"

// Repository reads budgeted positions.
type Repository interface {
	List(ctx context.Context, q ListQuery) ([]*BudgetedPosition, error)
	Count(ctx context.Context, f Filter) (int, error)
	ListAll(ctx context.Context) ([]*BudgetedPosition, error)
}

// RealizedCounter counts employees per function code among the given statuses.
type RealizedCounter interface {
	CountByFunction(ctx context.Context, statuses []string) (map[string]int, error)
}
