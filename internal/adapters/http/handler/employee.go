package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type employeeResponse struct {
	Nome               string           `json:"nome"`
	DataNascimento     string           `json:"data_nascimento"`
	FuncaoAtual        string           `json:"funcao_atual"`
	DataAdmissao       string           `json:"data_admissao"`
	SalarioHora        *decimal.Decimal `json:"salario_hora"`
	Jornada            int              `json:"jornada"`
	SalarioAtual       decimal.Decimal  `json:"salario_atual"`
	SetorAtual         string           `json:"setor_atual"`
	Escolaridade       string           `json:"escolaridade"`
	Devedor            string           `json:"devedor"`
	TempoNaFuncaoAtual string           `json:"tempo_na_funcao_atual"`
	Idade              int              `json:"idade"`
	TempoDeCasa        string           `json:"tempo_de_casa"`
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	v, err := h.roster.GetEmployeeView(r.Context(), chi.URLParam(r, "matricula"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, employeeResponse{
		Nome:               v.Nome,
		DataNascimento:     v.DataNascimento,
		FuncaoAtual:        v.FuncaoAtual,
		DataAdmissao:       v.DataAdmissao,
		SalarioHora:        v.SalarioHora,
		Jornada:            v.Jornada,
		SalarioAtual:       v.SalarioAtual,
		SetorAtual:         v.SetorAtual,
		Escolaridade:       v.Escolaridade,
		Devedor:            v.Devedor,
		TempoNaFuncaoAtual: v.TempoNaFuncaoAtual,
		Idade:              v.Idade,
		TempoDeCasa:        v.TempoDeCasa,
	})
}
