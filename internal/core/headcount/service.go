package headcount

import (
	"context"
	"sort"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// DefaultCountedStatuses are the employee statuses that fill a budgeted slot.
var DefaultCountedStatuses = []string{"ativo", "Férias", "Licença Maternidade"}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager is the transaction abstraction used by the service.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Deps bundles the collaborators of Service.
type Deps struct {
	Positions       Repository
	Realized        RealizedCounter
	Policy          PeriodPolicy
	CountedStatuses []string
	Clock           Clock
	Tx              TransactionManager
}

// Service compares budgeted headcount against the live roster.
type Service struct {
	positions Repository
	realized  RealizedCounter
	policy    PeriodPolicy
	statuses  []string
	clock     Clock
	tx        TransactionManager
}

// UseCase is the public surface of the aggregation engine.
type UseCase interface {
	Query(ctx context.Context, in QueryInput) (*QueryResult, error)
	Dashboard(ctx context.Context) (*DashboardResult, error)
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Tx == nil {
		d.Tx = noopTransactionManager{}
	}
	if len(d.CountedStatuses) == 0 {
		d.CountedStatuses = DefaultCountedStatuses
	}
	return &Service{
		positions: d.Positions,
		realized:  d.Realized,
		policy:    d.Policy,
		statuses:  append([]string(nil), d.CountedStatuses...),
		clock:     d.Clock,
		tx:        d.Tx,
	}
}

// QueryInput is the paged headcount request. Zero values select defaults.
type QueryInput struct {
	Page     int
	PageSize int
	Sort     SortField
	Order    SortOrder
	Filter   Filter
}

// QueryResult is one page of rows.
type QueryResult struct {
	Rows        []Row
	TotalItems  int
	TotalPages  int
	CurrentPage int
	PageSize    int
	Period      Period
}

// DashboardResult holds the per macro area totals.
type DashboardResult struct {
	Areas  []AreaTotals
	Period Period
}

// Query returns a filtered, sorted page of positions with budgeted, realized
// and balance figures for the reporting period.
func (s *Service) Query(ctx context.Context, in QueryInput) (*QueryResult, error) {
	page := in.Page
	switch {
	case page == 0:
		page = 1
	case page < 0:
		return nil, ErrInvalidPage
	}

	size := in.PageSize
	switch {
	case size == 0:
		size = defaultPageSize
	case size < 0:
		return nil, ErrInvalidPageSize
	case size > maxPageSize:
		size = maxPageSize
	}

	sortField := in.Sort
	if _, ok := sortFields[sortField]; !ok {
		sortField = DefaultSortField
	}
	order := in.Order
	if order != SortDesc {
		order = SortAsc
	}

	q := ListQuery{
		Filter: in.Filter.normalized(),
		Sort:   sortField,
		Order:  order,
		Limit:  size,
		Offset: (page - 1) * size,
	}

	var (
		positions []*BudgetedPosition
		total     int
		realized  map[string]int
	)
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if total, err = s.positions.Count(txCtx, q.Filter); err != nil {
			return err
		}
		if positions, err = s.positions.List(txCtx, q); err != nil {
			return err
		}
		realized, err = s.realized.CountByFunction(txCtx, s.statuses)
		return err
	})
	if err != nil {
		return nil, err
	}

	period := s.policy.Current(s.clock.Now())
	rows := make([]Row, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, compare(p, period, realized))
	}

	return &QueryResult{
		Rows:        rows,
		TotalItems:  total,
		TotalPages:  (total + size - 1) / size,
		CurrentPage: page,
		PageSize:    size,
		Period:      period,
	}, nil
}

// Dashboard sums budgeted and realized headcount per macro area over every position.
func (s *Service) Dashboard(ctx context.Context) (*DashboardResult, error) {
	var (
		positions []*BudgetedPosition
		realized  map[string]int
	)
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		if positions, err = s.positions.ListAll(txCtx); err != nil {
			return err
		}
		realized, err = s.realized.CountByFunction(txCtx, s.statuses)
		return err
	})
	if err != nil {
		return nil, err
	}

	period := s.policy.Current(s.clock.Now())
	return &DashboardResult{Areas: groupByArea(positions, period, realized), Period: period}, nil
}

func compare(p *BudgetedPosition, period Period, realized map[string]int) Row {
	budgeted := p.History.Lookup(period)
	actual := realized[p.CodFuncao]
	return Row{
		Position: *p,
		Budgeted: budgeted,
		Realized: actual,
		Balance:  budgeted - actual,
	}
}

func groupByArea(positions []*BudgetedPosition, period Period, realized map[string]int) []AreaTotals {
	totals := make(map[string]*AreaTotals)
	for _, p := range positions {
		name := p.MacroArea
		if name == "" {
			name = DefaultMacroArea
		}
		t, ok := totals[name]
		if !ok {
			t = &AreaTotals{Name: name}
			totals[name] = t
		}
		row := compare(p, period, realized)
		t.Budgeted += row.Budgeted
		t.Realized += row.Realized
	}

	out := make([]AreaTotals, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
