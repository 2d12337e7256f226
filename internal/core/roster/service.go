package roster

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service serves single-employee lookups and the upload history.
type Service struct {
	repo    Repository
	uploads UploadRepository
	clock   Clock
	loc     *time.Location
}

// UseCase is the public surface of the roster service.
type UseCase interface {
	GetEmployeeView(ctx context.Context, matricula string) (*EmployeeView, error)
	ListUploads(ctx context.Context) ([]*UploadRecord, error)
}

// NewService creates a Service. Derived ages and tenures are computed in loc.
func NewService(repo Repository, uploads UploadRepository, clock Clock, loc *time.Location) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, uploads: uploads, clock: clock, loc: loc}
}

// GetEmployeeView returns the employee with age and tenure derived from today.
func (s *Service) GetEmployeeView(ctx context.Context, matricula string) (*EmployeeView, error) {
	matricula = strings.TrimSpace(matricula)
	if matricula == "" {
		return nil, ErrInvalidMatricula
	}

	e, err := s.repo.FindByMatricula(ctx, matricula)
	if err != nil {
		return nil, err
	}

	today := s.clock.Now().In(s.loc)
	age := Elapsed(e.DataNascimento, today)
	tenure := Elapsed(e.DataAdmissao, today)

	return &EmployeeView{
		Nome:               e.Nome,
		DataNascimento:     e.DataNascimento.Format(dateLayout),
		FuncaoAtual:        e.FuncaoDesc,
		DataAdmissao:       e.DataAdmissao.Format(dateLayout),
		SalarioHora:        e.SalarioHora,
		Jornada:            e.Jornada,
		SalarioAtual:       e.SalarioAtual,
		SetorAtual:         e.Setor,
		Escolaridade:       e.Escolaridade,
		Devedor:            UnknownValue,
		TempoNaFuncaoAtual: UnknownValue,
		Idade:              age.Years,
		TempoDeCasa:        tenure.String(),
	}, nil
}

// ListUploads returns the upload history, newest first.
func (s *Service) ListUploads(ctx context.Context) ([]*UploadRecord, error) {
	return s.uploads.List(ctx)
}

// Duration is a calendar difference.
type Duration struct {
	Years  int
	Months int
	Days   int
}

func (d Duration) String() string {
	return fmt.Sprintf("%d anos, %d meses, %d dias", d.Years, d.Months, d.Days)
}

// Elapsed returns the calendar difference between the date part of start and
// today. Negative days borrow the length of the month before today's month.
func Elapsed(start, today time.Time) Duration {
	sy, sm, sd := start.Date()
	ty, tm, td := today.Date()

	years := ty - sy
	months := int(tm) - int(sm)
	days := td - sd

	if days < 0 {
		months--
		days += time.Date(ty, tm, 0, 0, 0, 0, 0, time.UTC).Day()
	}
	if months < 0 {
		years--
		months += 12
	}

	return Duration{Years: years, Months: months, Days: days}
}
