package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	employees map[string]Employee
}

func (r *fakeRepo) Lock(context.Context) error {
	return nil
}

func (r *fakeRepo) ListAll(context.Context) ([]Employee, error) {
	out := make([]Employee, 0, len(r.employees))
	for _, e := range r.employees {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRepo) ReplaceAll(_ context.Context, rows []Employee) (int, error) {
	r.employees = make(map[string]Employee, len(rows))
	for _, e := range rows {
		r.employees[e.Matricula] = e
	}
	return len(rows), nil
}

func (r *fakeRepo) FindByMatricula(_ context.Context, matricula string) (*Employee, error) {
	e, ok := r.employees[matricula]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}

func (r *fakeRepo) CountByFunction(_ context.Context, statuses []string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, e := range r.employees {
		for _, s := range statuses {
			if e.Status == s {
				counts[e.FuncaoCodigo]++
			}
		}
	}
	return counts, nil
}

type fakeUploads struct {
	records []*UploadRecord
}

func (u *fakeUploads) Create(_ context.Context, r *UploadRecord) (*UploadRecord, error) {
	u.records = append(u.records, r)
	return r, nil
}

func (u *fakeUploads) FindByID(_ context.Context, id string) (*UploadRecord, error) {
	for _, r := range u.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrUploadNotFound
}

func (u *fakeUploads) MarkReverted(_ context.Context, id, actorID string, at time.Time) error {
	return nil
}

func (u *fakeUploads) List(context.Context) ([]*UploadRecord, error) {
	return u.records, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestElapsed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		start time.Time
		today time.Time
		want  Duration
	}{
		{"plain", date(2020, 1, 10), date(2025, 10, 15), Duration{5, 9, 5}},
		{"borrow days from february", date(2020, 1, 20), date(2025, 3, 10), Duration{5, 1, 18}},
		{"day before anniversary", date(1990, 10, 16), date(2025, 10, 15), Duration{34, 11, 29}},
		{"same day", date(2025, 10, 15), date(2025, 10, 15), Duration{0, 0, 0}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Elapsed(tc.start, tc.today); got != tc.want {
				t.Fatalf("Elapsed(%s, %s) = %+v, want %+v", tc.start.Format(dateLayout), tc.today.Format(dateLayout), got, tc.want)
			}
		})
	}
}

func TestService_GetEmployeeView(t *testing.T) {
	t.Parallel()

	hourly := decimal.RequireFromString("15.90")
	repo := &fakeRepo{employees: map[string]Employee{
		"1001": {
			Matricula:      "1001",
			Nome:           "Ana Silva",
			DataNascimento: date(1990, 5, 15),
			DataAdmissao:   date(2020, 1, 10),
			FuncaoCodigo:   "FIN-JR",
			FuncaoDesc:     "Analista Financeiro Jr",
			Setor:          "Financeiro",
			Jornada:        220,
			SalarioAtual:   decimal.RequireFromString("3500"),
			SalarioHora:    &hourly,
			Status:         "ativo",
		},
	}}

	clk := stubClock{now: time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, &fakeUploads{}, clk, time.UTC)

	view, err := svc.GetEmployeeView(context.Background(), " 1001 ")
	if err != nil {
		t.Fatalf("GetEmployeeView returned error: %v", err)
	}

	if view.Idade != 35 {
		t.Errorf("expected age 35, got %d", view.Idade)
	}
	if view.TempoDeCasa != "5 anos, 9 meses, 5 dias" {
		t.Errorf("unexpected tenure %q", view.TempoDeCasa)
	}
	if view.DataNascimento != "1990-05-15" || view.DataAdmissao != "2020-01-10" {
		t.Errorf("unexpected dates %s / %s", view.DataNascimento, view.DataAdmissao)
	}
	if view.FuncaoAtual != "Analista Financeiro Jr" || view.SetorAtual != "Financeiro" {
		t.Errorf("unexpected function/sector %+v", view)
	}
	if view.Devedor != UnknownValue || view.TempoNaFuncaoAtual != UnknownValue {
		t.Errorf("expected placeholders, got %+v", view)
	}
}

func TestService_GetEmployeeView_UsesLocation(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{employees: map[string]Employee{
		"1": {Matricula: "1", DataNascimento: date(2000, 1, 1), DataAdmissao: date(2024, 10, 16)},
	}}
	brt := time.FixedZone("BRT", -3*60*60)
	clk := stubClock{now: time.Date(2025, 10, 16, 1, 0, 0, 0, time.UTC)}

	view, err := NewService(repo, &fakeUploads{}, clk, brt).GetEmployeeView(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetEmployeeView returned error: %v", err)
	}
	if view.TempoDeCasa != "0 anos, 11 meses, 29 dias" {
		t.Fatalf("expected tenure computed on the local date, got %q", view.TempoDeCasa)
	}
}

func TestService_GetEmployeeView_Errors(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeRepo{employees: map[string]Employee{}}, &fakeUploads{}, nil, nil)

	if _, err := svc.GetEmployeeView(context.Background(), "  "); !errors.Is(err, ErrInvalidMatricula) {
		t.Fatalf("expected ErrInvalidMatricula, got %v", err)
	}
	if _, err := svc.GetEmployeeView(context.Background(), "404"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestReplaceGuard_SerializesAndHonoursContext(t *testing.T) {
	t.Parallel()

	g := NewReplaceGuard()

	release, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while held, got %v", err)
	}

	release()

	release2, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release returned error: %v", err)
	}
	release2()
}
