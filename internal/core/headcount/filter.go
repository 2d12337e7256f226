package headcount

import "strings"

// SortField is a column the paged query may order by.
type SortField string

const (
	SortColig        SortField = "colig"
	SortCodColig     SortField = "cod_colig"
	SortEmpresaHC    SortField = "empresa_hc"
	SortCodSecHC     SortField = "cod_sec_hc"
	SortCodSec       SortField = "cod_sec"
	SortGestorAreaHC SortField = "gestor_area_hc"
	SortAtividadeHC  SortField = "atividade_hc"
	SortDescSecHC    SortField = "desc_sec_hc"
	SortDescAreaRM   SortField = "desc_area_rm"
	SortMacroArea    SortField = "macro_area"
	SortCodFuncao    SortField = "cod_funcao"
	SortDescFuncao   SortField = "desc_funcao"
)

// DefaultSortField orders rows when no recognised field is requested.
const DefaultSortField = SortDescSecHC

var sortFields = map[SortField]struct{}{
	SortColig: {}, SortCodColig: {}, SortEmpresaHC: {}, SortCodSecHC: {},
	SortCodSec: {}, SortGestorAreaHC: {}, SortAtividadeHC: {}, SortDescSecHC: {},
	SortDescAreaRM: {}, SortMacroArea: {}, SortCodFuncao: {}, SortDescFuncao: {},
}

// ParseSortField returns the field named s, or DefaultSortField when s is not sortable.
func ParseSortField(s string) SortField {
	f := SortField(strings.TrimSpace(s))
	if _, ok := sortFields[f]; ok {
		return f
	}
	return DefaultSortField
}

// SortOrder is the direction of the ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder treats anything other than "desc" as ascending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Filter narrows the paged query. Empty fields do not filter.
type Filter struct {
	// Gestor is a case-insensitive substring of gestor_area_hc.
	Gestor    string
	CodFuncao string
	MacroArea string
	// Search is a case-insensitive substring of desc_funcao, desc_sec_hc or gestor_area_hc.
	Search string
}

func (f Filter) normalized() Filter {
	return Filter{
		Gestor:    strings.TrimSpace(f.Gestor),
		CodFuncao: strings.TrimSpace(f.CodFuncao),
		MacroArea: strings.TrimSpace(f.MacroArea),
		Search:    strings.TrimSpace(f.Search),
	}
}

// ListQuery is what the repository pages over.
type ListQuery struct {
	Filter Filter
	Sort   SortField
	Order  SortOrder
	Limit  int
	Offset int
}
