package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/headcount"
	pgdb "github.com/ogurasousui/headcount-clean-arch/internal/platform/db/postgres"
)

const headcountSelect = `
        SELECT id, colig, cod_colig, empresa_hc, cod_sec_hc, cod_sec, gestor_area_hc, atividade_hc,
               desc_sec_hc, desc_area_rm, macro_area, cod_funcao, desc_funcao, qtd_orc_historico
          FROM headcounts`

var headcountSortColumns = map[headcount.SortField]string{
	headcount.SortColig:        "colig",
	headcount.SortCodColig:     "cod_colig",
	headcount.SortEmpresaHC:    "empresa_hc",
	headcount.SortCodSecHC:     "cod_sec_hc",
	headcount.SortCodSec:       "cod_sec",
	headcount.SortGestorAreaHC: "gestor_area_hc",
	headcount.SortAtividadeHC:  "atividade_hc",
	headcount.SortDescSecHC:    "desc_sec_hc",
	headcount.SortDescAreaRM:   "desc_area_rm",
	headcount.SortMacroArea:    "macro_area",
	headcount.SortCodFuncao:    "cod_funcao",
	headcount.SortDescFuncao:   "desc_funcao",
}

// HeadcountRepository reads budgeted positions from PostgreSQL.
type HeadcountRepository struct {
	pool pgdb.Queryer
}

// NewHeadcountRepository creates a HeadcountRepository.
func NewHeadcountRepository(pool pgdb.Queryer) *HeadcountRepository {
	return &HeadcountRepository{pool: pool}
}

// List returns one filtered, sorted page of positions.
func (r *HeadcountRepository) List(ctx context.Context, q headcount.ListQuery) ([]*headcount.BudgetedPosition, error) {
	if q.Limit <= 0 {
		return nil, headcount.ErrInvalidPageSize
	}
	if q.Offset < 0 {
		return nil, headcount.ErrInvalidPage
	}

	whereClause, args := headcountWhere(q.Filter)

	column, ok := headcountSortColumns[q.Sort]
	if !ok {
		column = headcountSortColumns[headcount.DefaultSortField]
	}
	direction := "ASC"
	if q.Order == headcount.SortDesc {
		direction = "DESC"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, q.Limit)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, q.Offset)

	query := headcountSelect + whereClause + `
         ORDER BY ` + column + ` ` + direction + `, id ASC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	return r.query(ctx, query, args...)
}

// Count returns how many positions match f.
func (r *HeadcountRepository) Count(ctx context.Context, f headcount.Filter) (int, error) {
	whereClause, args := headcountWhere(f)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var total int64
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM headcounts`+whereClause, args...).Scan(&total); err != nil {
		return 0, err
	}
	return int(total), nil
}

// ListAll returns every position.
func (r *HeadcountRepository) ListAll(ctx context.Context) ([]*headcount.BudgetedPosition, error) {
	return r.query(ctx, headcountSelect+`
         ORDER BY id ASC
    `)
}

func (r *HeadcountRepository) query(ctx context.Context, query string, args ...any) ([]*headcount.BudgetedPosition, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]*headcount.BudgetedPosition, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

func headcountWhere(f headcount.Filter) (string, []any) {
	args := make([]any, 0, 4)
	conditions := make([]string, 0, 4)

	if f.Gestor != "" {
		args = append(args, likePattern(f.Gestor))
		conditions = append(conditions, "gestor_area_hc ILIKE $"+strconv.Itoa(len(args)))
	}
	if f.CodFuncao != "" {
		args = append(args, f.CodFuncao)
		conditions = append(conditions, "cod_funcao = $"+strconv.Itoa(len(args)))
	}
	if f.MacroArea != "" {
		args = append(args, f.MacroArea)
		conditions = append(conditions, "macro_area = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		p := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(desc_funcao ILIKE "+p+" OR desc_sec_hc ILIKE "+p+" OR gestor_area_hc ILIKE "+p+")")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanPosition(row pgx.Row) (*headcount.BudgetedPosition, error) {
	var (
		p       headcount.BudgetedPosition
		history []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Colig,
		&p.CodColig,
		&p.EmpresaHC,
		&p.CodSecHC,
		&p.CodSec,
		&p.GestorAreaHC,
		&p.AtividadeHC,
		&p.DescSecHC,
		&p.DescAreaRM,
		&p.MacroArea,
		&p.CodFuncao,
		&p.DescFuncao,
		&history,
	); err != nil {
		return nil, err
	}

	h, err := decodeHistory(history)
	if err != nil {
		return nil, fmt.Errorf("headcount %d: %w", p.ID, err)
	}
	p.History = h
	return &p, nil
}

// decodeHistory reads the stored label to count map. Counts may be stored as
// numbers or numeric strings; anything else is skipped.
func decodeHistory(raw []byte) (headcount.BudgetHistory, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode qtd_orc_historico: %w", err)
	}

	counts := make(map[string]int, len(values))
	for label, v := range values {
		switch n := v.(type) {
		case float64:
			counts[label] = int(n)
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				counts[label] = i
			}
		}
	}
	return headcount.NewBudgetHistory(counts), nil
}
