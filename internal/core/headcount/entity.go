package headcount

// DefaultMacroArea groups positions whose macro area is blank.
const DefaultMacroArea = "Sem Área"

// BudgetedPosition is one headcount row: an organizational slot for a function
// with its monthly budget history.
type BudgetedPosition struct {
	ID           int64
	Colig        string
	CodColig     string
	EmpresaHC    string
	CodSecHC     string
	CodSec       string
	GestorAreaHC string
	AtividadeHC  string
	DescSecHC    string
	DescAreaRM   string
	MacroArea    string
	CodFuncao    string
	DescFuncao   string
	History      BudgetHistory
}

// Row is a position with its budget compared to the live roster.
type Row struct {
	Position BudgetedPosition
	Budgeted int
	Realized int
	Balance  int
}

// AreaTotals sums budgeted and realized headcount of one macro area.
type AreaTotals struct {
	Name     string
	Budgeted int
	Realized int
}
