package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

const rosterLockKey = "roster"

var employeeColumns = []string{
	"matricula",
	"nome",
	"data_nascimento",
	"data_admissao",
	"funcao_codigo",
	"funcao_desc",
	"setor",
	"jornada",
	"salario_atual",
	"salario_hora",
	"escolaridade",
	"status",
}

const employeeSelect = `
        SELECT matricula, nome, data_nascimento, data_admissao, funcao_codigo, funcao_desc, setor,
               jornada, salario_atual, salario_hora, escolaridade, status
          FROM employees`

// RosterRepository stores the roster snapshot in PostgreSQL.
type RosterRepository struct {
	pool pgdb.Queryer
}

// NewRosterRepository creates a RosterRepository.
func NewRosterRepository(pool pgdb.Queryer) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// Lock takes the transaction-scoped roster lock shared by every replacement.
func (r *RosterRepository) Lock(ctx context.Context) error {
	return pgdb.AcquireXactLock(ctx, rosterLockKey)
}

// ListAll returns every employee ordered by matricula.
func (r *RosterRepository) ListAll(ctx context.Context) ([]roster.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, employeeSelect+`
         ORDER BY matricula ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]roster.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// ReplaceAll deletes the roster and copies rows in. It refuses to run
// outside a transaction.
func (r *RosterRepository) ReplaceAll(ctx context.Context, rows []roster.Employee) (int, error) {
	if !pgdb.InTransaction(ctx) {
		return 0, pgdb.ErrNoTransaction
	}
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	if _, err := exec.Exec(ctx, `DELETE FROM employees`); err != nil {
		return 0, fmt.Errorf("delete employees: %w", err)
	}

	values := make([][]any, 0, len(rows))
	for _, e := range rows {
		values = append(values, []any{
			e.Matricula,
			e.Nome,
			e.DataNascimento,
			e.DataAdmissao,
			e.FuncaoCodigo,
			e.FuncaoDesc,
			e.Setor,
			int32(e.Jornada),
			toNumeric(e.SalarioAtual),
			toNullableNumeric(e.SalarioHora),
			nullableString(e.Escolaridade),
			e.Status,
		})
	}

	n, err := exec.CopyFrom(ctx, pgx.Identifier{"employees"}, employeeColumns, pgx.CopyFromRows(values))
	if err != nil {
		if pgErrorCode(err) == uniqueViolationCode {
			return 0, fmt.Errorf("copy employees: duplicate matricula: %w", err)
		}
		return 0, fmt.Errorf("copy employees: %w", err)
	}
	return int(n), nil
}

// FindByMatricula returns one employee.
func (r *RosterRepository) FindByMatricula(ctx context.Context, matricula string) (*roster.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	return scanEmployee(exec.QueryRow(ctx, employeeSelect+`
         WHERE matricula = $1
         LIMIT 1
    `, matricula))
}

// CountByFunction counts employees per function code among statuses.
func (r *RosterRepository) CountByFunction(ctx context.Context, statuses []string) (map[string]int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT funcao_codigo, COUNT(*)
          FROM employees
         WHERE status = ANY($1)
         GROUP BY funcao_codigo
    `, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			code  string
			count int64
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		counts[code] = int(count)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func scanEmployee(row pgx.Row) (*roster.Employee, error) {
	var (
		e            roster.Employee
		birth, hired time.Time
		jornada      int32
		salario      pgtype.Numeric
		salarioHora  pgtype.Numeric
		escolaridade sql.NullString
	)

	if err := row.Scan(
		&e.Matricula,
		&e.Nome,
		&birth,
		&hired,
		&e.FuncaoCodigo,
		&e.FuncaoDesc,
		&e.Setor,
		&jornada,
		&salario,
		&salarioHora,
		&escolaridade,
		&e.Status,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, roster.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.DataNascimento = dateOnly(birth)
	e.DataAdmissao = dateOnly(hired)
	e.Jornada = int(jornada)
	e.SalarioAtual = fromNumeric(salario)
	e.SalarioHora = fromNullableNumeric(salarioHora)
	e.Escolaridade = stringOrEmpty(escolaridade)
	return &e, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
