package headcount

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakePositions struct {
	rows      []*BudgetedPosition
	lastQuery ListQuery
	err       error
}

func (f *fakePositions) matches(p *BudgetedPosition, flt Filter) bool {
	contains := func(s, sub string) bool { return strings.Contains(strings.ToLower(s), strings.ToLower(sub)) }
	if flt.Gestor != "" && !contains(p.GestorAreaHC, flt.Gestor) {
		return false
	}
	if flt.CodFuncao != "" && p.CodFuncao != flt.CodFuncao {
		return false
	}
	if flt.MacroArea != "" && p.MacroArea != flt.MacroArea {
		return false
	}
	if flt.Search != "" && !contains(p.DescFuncao, flt.Search) && !contains(p.DescSecHC, flt.Search) && !contains(p.GestorAreaHC, flt.Search) {
		return false
	}
	return true
}

func (f *fakePositions) List(_ context.Context, q ListQuery) ([]*BudgetedPosition, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	var out []*BudgetedPosition
	for _, p := range f.rows {
		if f.matches(p, q.Filter) {
			out = append(out, p)
		}
	}
	if q.Offset >= len(out) {
		return nil, nil
	}
	out = out[q.Offset:]
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakePositions) Count(_ context.Context, flt Filter) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, p := range f.rows {
		if f.matches(p, flt) {
			n++
		}
	}
	return n, nil
}

func (f *fakePositions) ListAll(context.Context) ([]*BudgetedPosition, error) {
	return f.rows, f.err
}

type employee struct {
	funcao string
	status string
}

type fakeRealized struct {
	employees []employee
	calls     int
}

func (f *fakeRealized) CountByFunction(_ context.Context, statuses []string) (map[string]int, error) {
	f.calls++
	counted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		counted[s] = true
	}
	out := make(map[string]int)
	for _, e := range f.employees {
		if counted[e.status] {
			out[e.funcao]++
		}
	}
	return out, nil
}

type countingTx struct {
	calls int
}

func (c *countingTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	c.calls++
	return fn(ctx)
}

func seedPositions() []*BudgetedPosition {
	return []*BudgetedPosition{
		{ID: 1, MacroArea: "Administrativo", GestorAreaHC: "Maria Souza", DescSecHC: "Financeiro", CodFuncao: "FIN-JR", DescFuncao: "Analista Financeiro Jr",
			History: NewBudgetHistory(map[string]int{"09/2025": 2, "10/2025": 3})},
		{ID: 2, MacroArea: "Administrativo", GestorAreaHC: "Maria Souza", DescSecHC: "Financeiro", CodFuncao: "FIN-PL", DescFuncao: "Analista Financeiro Pl",
			History: NewBudgetHistory(map[string]int{"09/2025": 1, "10/2025": 1})},
		{ID: 3, MacroArea: "Tecnologia", GestorAreaHC: "João Lima", DescSecHC: "Infraestrutura", CodFuncao: "TI-SR", DescFuncao: "Analista de TI Sr",
			History: NewBudgetHistory(map[string]int{"09/2025": 2, "10/2025": 2})},
		{ID: 4, GestorAreaHC: "Pedro", DescSecHC: "Suporte", CodFuncao: "SUP", DescFuncao: "Suporte",
			History: NewBudgetHistory(map[string]int{"08/2025": 4})},
	}
}

func seedEmployees() []employee {
	return []employee{
		{"TI-SR", "ativo"}, {"TI-SR", "ativo"}, {"TI-SR", "ativo"},
		{"TI-SR", "Licença Maternidade"}, {"TI-SR", "Demitido"},
		{"FIN-JR", "ativo"}, {"FIN-JR", "Férias"},
		{"FIN-PL", "Afastado"},
		{"SUP", "ativo"},
	}
}

func newService(t *testing.T, positions *fakePositions, realized *fakeRealized, tx TransactionManager) *Service {
	t.Helper()

	policy, err := NewPeriodPolicy("", time.UTC)
	if err != nil {
		t.Fatalf("NewPeriodPolicy returned error: %v", err)
	}
	return NewService(Deps{
		Positions: positions,
		Realized:  realized,
		Policy:    policy,
		Clock:     stubClock{now: time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)},
		Tx:        tx,
	})
}

func rowByCode(rows []Row, code string) Row {
	for _, r := range rows {
		if r.Position.CodFuncao == code {
			return r
		}
	}
	return Row{}
}

func TestService_Query_ComputesBalance(t *testing.T) {
	t.Parallel()

	positions := &fakePositions{rows: seedPositions()}
	realized := &fakeRealized{employees: seedEmployees()}
	tx := &countingTx{}
	svc := newService(t, positions, realized, tx)

	result, err := svc.Query(context.Background(), QueryInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	tiSR := rowByCode(result.Rows, "TI-SR")
	if tiSR.Budgeted != 2 || tiSR.Realized != 4 || tiSR.Balance != -2 {
		t.Fatalf("unexpected TI-SR row %+v", tiSR)
	}
	finJR := rowByCode(result.Rows, "FIN-JR")
	if finJR.Budgeted != 3 || finJR.Realized != 2 || finJR.Balance != 1 {
		t.Fatalf("unexpected FIN-JR row %+v", finJR)
	}
	sup := rowByCode(result.Rows, "SUP")
	if sup.Budgeted != 4 || sup.Balance != 3 {
		t.Fatalf("expected fallback to the most recent earlier period, got %+v", sup)
	}

	if result.TotalItems != 4 || result.TotalPages != 1 || result.CurrentPage != 1 || result.PageSize != 20 {
		t.Fatalf("unexpected envelope %+v", result)
	}
	if result.Period != (Period{2025, time.October}) {
		t.Fatalf("unexpected period %v", result.Period)
	}
	if realized.calls != 1 || tx.calls != 1 {
		t.Fatalf("expected one realized computation in one transaction, got %d/%d", realized.calls, tx.calls)
	}
}

func TestService_Query_PagingAndDefaults(t *testing.T) {
	t.Parallel()

	positions := &fakePositions{rows: seedPositions()}
	svc := newService(t, positions, &fakeRealized{}, nil)

	result, err := svc.Query(context.Background(), QueryInput{Page: 2, PageSize: 3, Sort: "drop table", Order: "sideways"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	if len(result.Rows) != 1 || result.TotalPages != 2 || result.CurrentPage != 2 {
		t.Fatalf("unexpected page %+v", result)
	}
	want := ListQuery{Sort: SortDescSecHC, Order: SortAsc, Limit: 3, Offset: 3}
	if !reflect.DeepEqual(positions.lastQuery, want) {
		t.Fatalf("unexpected list query %+v", positions.lastQuery)
	}

	result, err = svc.Query(context.Background(), QueryInput{PageSize: 5000})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if result.PageSize != maxPageSize {
		t.Fatalf("expected page size clamp, got %d", result.PageSize)
	}
}

func TestService_Query_Filters(t *testing.T) {
	t.Parallel()

	positions := &fakePositions{rows: seedPositions()}
	svc := newService(t, positions, &fakeRealized{}, nil)

	result, err := svc.Query(context.Background(), QueryInput{Filter: Filter{Search: " infra "}})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if result.TotalItems != 1 || result.Rows[0].Position.CodFuncao != "TI-SR" {
		t.Fatalf("unexpected search result %+v", result)
	}
	if positions.lastQuery.Filter.Search != "infra" {
		t.Fatalf("expected trimmed search, got %q", positions.lastQuery.Filter.Search)
	}

	result, err = svc.Query(context.Background(), QueryInput{Filter: Filter{Gestor: "maria", CodFuncao: "FIN-PL"}})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if result.TotalItems != 1 || result.Rows[0].Position.CodFuncao != "FIN-PL" {
		t.Fatalf("unexpected filter result %+v", result)
	}
}

func TestService_Query_Errors(t *testing.T) {
	t.Parallel()

	svc := newService(t, &fakePositions{}, &fakeRealized{}, nil)

	if _, err := svc.Query(context.Background(), QueryInput{Page: -1}); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
	if _, err := svc.Query(context.Background(), QueryInput{PageSize: -5}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}

	boom := errors.New("db down")
	failing := newService(t, &fakePositions{err: boom}, &fakeRealized{}, nil)
	if _, err := failing.Query(context.Background(), QueryInput{}); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestService_Dashboard(t *testing.T) {
	t.Parallel()

	svc := newService(t, &fakePositions{rows: seedPositions()}, &fakeRealized{employees: seedEmployees()}, nil)

	result, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard returned error: %v", err)
	}

	want := []AreaTotals{
		{Name: "Administrativo", Budgeted: 4, Realized: 2},
		{Name: DefaultMacroArea, Budgeted: 4, Realized: 1},
		{Name: "Tecnologia", Budgeted: 2, Realized: 4},
	}
	if !reflect.DeepEqual(result.Areas, want) {
		t.Fatalf("unexpected areas %+v", result.Areas)
	}
}

func TestService_RealizedSumMatchesCountedEmployees(t *testing.T) {
	t.Parallel()

	employees := seedEmployees()
	realized := &fakeRealized{employees: employees}
	svc := newService(t, &fakePositions{rows: seedPositions()}, realized, nil)

	result, err := svc.Query(context.Background(), QueryInput{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	sum := 0
	for _, r := range result.Rows {
		sum += r.Realized
	}

	counted := 0
	for _, e := range employees {
		for _, s := range DefaultCountedStatuses {
			if e.status == s {
				counted++
			}
		}
	}
	if sum != counted {
		t.Fatalf("sum of realized %d != counted employees %d", sum, counted)
	}
}
