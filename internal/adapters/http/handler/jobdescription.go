package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/jobdescription"
)

type jobDescriptionSummary struct {
	ID        int64  `json:"id"`
	CodFuncao string `json:"cod_funcao"`
	Titulo    string `json:"titulo"`
}

type jobDescriptionResponse struct {
	ID               int64  `json:"id"`
	CodFuncao        string `json:"cod_funcao"`
	Titulo           string `json:"titulo"`
	DescricaoSumaria string `json:"descricao_sumaria"`
	ConteudoHTML     string `json:"conteudo_html"`
	ArquivoURL       string `json:"arquivo_url,omitempty"`
}

type createJobDescriptionRequest struct {
	CodFuncao        string `json:"cod_funcao" validate:"required"`
	Titulo           string `json:"titulo" validate:"required"`
	DescricaoSumaria string `json:"descricao_sumaria"`
	ConteudoHTML     string `json:"conteudo_html"`
}

func toJobDescriptionResponse(jd *jobdescription.JobDescription) jobDescriptionResponse {
	return jobDescriptionResponse{
		ID:               jd.ID,
		CodFuncao:        jd.CodFuncao,
		Titulo:           jd.Titulo,
		DescricaoSumaria: jd.DescricaoSumaria,
		ConteudoHTML:     jd.ConteudoHTML,
		ArquivoURL:       jd.ArquivoURL,
	}
}

func (h *Handler) listJobDescriptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.jobs.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]jobDescriptionSummary, 0, len(list))
	for _, jd := range list {
		out = append(out, jobDescriptionSummary{ID: jd.ID, CodFuncao: jd.CodFuncao, Titulo: jd.Titulo})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getJobDescription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, jobdescription.ErrNotFound)
		return
	}

	jd, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDescriptionResponse(jd))
}

func (h *Handler) createJobDescription(w http.ResponseWriter, r *http.Request) {
	var req createJobDescriptionRequest
	if err := h.decode(r, &req, "Código da função e título são obrigatórios."); err != nil {
		writeError(w, r, err)
		return
	}

	jd, err := h.jobs.Create(r.Context(), jobdescription.CreateInput{
		ActorID:          principalFrom(r.Context()).UserID,
		CodFuncao:        req.CodFuncao,
		Titulo:           req.Titulo,
		DescricaoSumaria: req.DescricaoSumaria,
		ConteudoHTML:     req.ConteudoHTML,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobDescriptionResponse(jd))
}

func (h *Handler) uploadJobDescriptionPDF(w http.ResponseWriter, r *http.Request) {
	file, _, cleanup, err := h.formFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	jd, err := h.jobs.AttachPDF(r.Context(), jobdescription.AttachInput{
		ActorID:   principalFrom(r.Context()).UserID,
		CodFuncao: chi.URLParam(r, "cod_funcao"),
		File:      file,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDescriptionResponse(jd))
}
