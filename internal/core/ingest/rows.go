package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/shopspring/decimal"
)

// Column names recognised in the header row (trimmed, case-insensitive).
const (
	ColMatricula      = "matricula"
	ColNome           = "nome"
	ColStatus         = "status"
	ColFuncaoCodigo   = "funcao_codigo"
	ColFuncaoDesc     = "funcao_desc"
	ColSetor          = "setor"
	ColDataNascimento = "data_nascimento"
	ColDataAdmissao   = "data_admissao"
	ColJornada        = "jornada"
	ColSalarioAtual   = "salario_atual"
	ColSalarioHora    = "salario_hora"
	ColEscolaridade   = "escolaridade"
)

var requiredColumns = []string{ColMatricula, ColNome, ColStatus}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

type columnIndex map[string]int

func indexHeaders(headers []string) columnIndex {
	idx := make(columnIndex, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func (c columnIndex) missing() []string {
	var out []string
	for _, col := range requiredColumns {
		if _, ok := c[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

func (c columnIndex) cell(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// buildEmployees converts data rows to employees. Rows with a blank matricula
// are skipped; a repeated matricula keeps its last occurrence.
func buildEmployees(idx columnIndex, rows [][]string, now time.Time) []roster.Employee {
	hired := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]roster.Employee, 0, len(rows))
	position := make(map[string]int, len(rows))

	for _, row := range rows {
		matricula := idx.cell(row, ColMatricula)
		if matricula == "" {
			continue
		}

		e := roster.Employee{
			Matricula:      matricula,
			Nome:           idx.cell(row, ColNome),
			Status:         idx.cell(row, ColStatus),
			FuncaoCodigo:   orDefault(idx.cell(row, ColFuncaoCodigo), roster.UnknownValue),
			FuncaoDesc:     orDefault(idx.cell(row, ColFuncaoDesc), roster.UnknownValue),
			Setor:          orDefault(idx.cell(row, ColSetor), roster.UnknownValue),
			DataNascimento: parseDate(idx.cell(row, ColDataNascimento), roster.PlaceholderBirthDate),
			DataAdmissao:   parseDate(idx.cell(row, ColDataAdmissao), hired),
			Jornada:        parseInt(idx.cell(row, ColJornada)),
			SalarioAtual:   parseDecimal(idx.cell(row, ColSalarioAtual)),
			Escolaridade:   idx.cell(row, ColEscolaridade),
		}
		if raw := idx.cell(row, ColSalarioHora); raw != "" {
			v := parseDecimal(raw)
			e.SalarioHora = &v
		}

		if i, seen := position[matricula]; seen {
			out[i] = e
			continue
		}
		position[matricula] = len(out)
		out = append(out, e)
	}

	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDate(raw string, def time.Time) time.Time {
	if raw == "" {
		return def
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 && serial < 2958466 {
		return excelEpoch.AddDate(0, 0, int(math.Floor(serial)))
	}
	return def
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	// Stored as a 4-byte integer column.
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(f))
}

// parseDecimal accepts "3500", "3500.50", "3500,50" and "3.500,50".
func parseDecimal(raw string) decimal.Decimal {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
