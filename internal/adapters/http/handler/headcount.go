package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/headcount"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/rollback"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/roster"
	"github.com/rs/zerolog/hlog"
)

const (
	uploadFormField     = "file"
	uploadMemoryLimit   = 1 << 20
	periodHeader        = "X-Reporting-Period"
	msgNoFile           = "Nenhum arquivo enviado."
	msgFilePathRequired = "O caminho do arquivo (filePath) é obrigatório."
)

type headcountRow struct {
	ID              int64          `json:"id"`
	Colig           string         `json:"colig"`
	CodColig        string         `json:"cod_colig"`
	EmpresaHC       string         `json:"empresa_hc"`
	CodSecHC        string         `json:"cod_sec_hc"`
	CodSec          string         `json:"cod_sec"`
	GestorAreaHC    string         `json:"gestor_area_hc"`
	AtividadeHC     string         `json:"atividade_hc"`
	DescSecHC       string         `json:"desc_sec_hc"`
	DescAreaRM      string         `json:"desc_area_rm"`
	MacroArea       string         `json:"macro_area"`
	CodFuncao       string         `json:"cod_funcao"`
	DescFuncao      string         `json:"desc_funcao"`
	QtdOrcHistorico map[string]int `json:"qtd_orc_historico"`
	QtdOrc          int            `json:"qtd_orc"`
	Realizado       int            `json:"realizado"`
	Saldo           int            `json:"saldo"`
}

type headcountPage struct {
	TotalItems  int            `json:"totalItems"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	PageSize    int            `json:"pageSize"`
	Period      string         `json:"period"`
	Data        []headcountRow `json:"data"`
}

type areaResponse struct {
	Name     string `json:"name"`
	Budgeted int    `json:"Orçado"`
	Realized int    `json:"Realizado"`
}

type previewResponse struct {
	Headers          []string   `json:"headers"`
	PreviewRows      [][]string `json:"previewRows"`
	TotalRows        int        `json:"totalRows"`
	SheetName        string     `json:"sheetName"`
	OriginalFilePath string     `json:"originalFilePath"`
}

type confirmRequest struct {
	FilePath string `json:"filePath" validate:"required"`
}

type confirmResponse struct {
	Message            string `json:"message"`
	TotalRowsProcessed int    `json:"totalRowsProcessed"`
	BackupFile         string `json:"backupFile"`
	UploadID           string `json:"uploadId"`
}

type rollbackResponse struct {
	Message      string `json:"message"`
	RestoredRows int    `json:"restoredRows"`
}

type uploadResponse struct {
	ID           string     `json:"id"`
	UploadedBy   string     `json:"uploaded_by"`
	UploaderNome string     `json:"uploader_nome,omitempty"`
	FileName     string     `json:"file_name"`
	RowCount     int        `json:"row_count"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	Status       string     `json:"status"`
	BackupPath   string     `json:"backup_path"`
	RevertedAt   *time.Time `json:"reverted_at,omitempty"`
	RevertedBy   string     `json:"reverted_by,omitempty"`
}

func toHeadcountRow(row headcount.Row) headcountRow {
	p := row.Position
	return headcountRow{
		ID:              p.ID,
		Colig:           p.Colig,
		CodColig:        p.CodColig,
		EmpresaHC:       p.EmpresaHC,
		CodSecHC:        p.CodSecHC,
		CodSec:          p.CodSec,
		GestorAreaHC:    p.GestorAreaHC,
		AtividadeHC:     p.AtividadeHC,
		DescSecHC:       p.DescSecHC,
		DescAreaRM:      p.DescAreaRM,
		MacroArea:       p.MacroArea,
		CodFuncao:       p.CodFuncao,
		DescFuncao:      p.DescFuncao,
		QtdOrcHistorico: p.History.Map(),
		QtdOrc:          row.Budgeted,
		Realizado:       row.Realized,
		Saldo:           row.Balance,
	}
}

func toUploadResponse(u *roster.UploadRecord) uploadResponse {
	return uploadResponse{
		ID:           u.ID,
		UploadedBy:   u.UploadedBy,
		UploaderNome: u.UploaderNome,
		FileName:     u.FileName,
		RowCount:     u.RowCount,
		UploadedAt:   u.UploadedAt,
		Status:       string(u.Status),
		BackupPath:   u.BackupPath,
		RevertedAt:   u.RevertedAt,
		RevertedBy:   u.RevertedBy,
	}
}

// formFile limits the body and returns the uploaded file field. cleanup closes
// the file and removes any temporary parts.
func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, nil, err
		}
		return nil, nil, nil, badRequest(msgNoFile)
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil, nil, badRequest(msgNoFile)
	}
	cleanup := func() {
		_ = file.Close()
		_ = r.MultipartForm.RemoveAll()
	}
	return file, header, cleanup, nil
}

// queryInt parses an optional positive-or-zero integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("Parâmetros de paginação inválidos.")
	}
	return n, nil
}

func (h *Handler) queryHeadcount(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	res, err := h.headcount.Query(r.Context(), headcount.QueryInput{
		Page:     page,
		PageSize: pageSize,
		Sort:     headcount.ParseSortField(q.Get("sortField")),
		Order:    headcount.ParseSortOrder(q.Get("sortOrder")),
		Filter: headcount.Filter{
			Gestor:    q.Get("gestor_area_hc"),
			CodFuncao: q.Get("cod_funcao"),
			MacroArea: q.Get("macro_area"),
			Search:    q.Get("buscaGlobal"),
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows := make([]headcountRow, 0, len(res.Rows))
	for _, row := range res.Rows {
		rows = append(rows, toHeadcountRow(row))
	}

	w.Header().Set(periodHeader, res.Period.String())
	writeJSON(w, http.StatusOK, headcountPage{
		TotalItems:  res.TotalItems,
		TotalPages:  res.TotalPages,
		CurrentPage: res.CurrentPage,
		PageSize:    res.PageSize,
		Period:      res.Period.String(),
		Data:        rows,
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.headcount.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]areaResponse, 0, len(res.Areas))
	for _, a := range res.Areas {
		out = append(out, areaResponse{Name: a.Name, Budgeted: a.Budgeted, Realized: a.Realized})
	}
	w.Header().Set(periodHeader, res.Period.String())
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) uploadPreview(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := h.formFile(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	path, err := h.uploads.Save(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.ingest.Preview(r.Context(), path)
	if err != nil {
		if rmErr := h.uploads.Remove(path); rmErr != nil {
			hlog.FromRequest(r).Warn().Err(rmErr).Msg("failed to remove rejected upload")
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		Headers:          res.Headers,
		PreviewRows:      res.PreviewRows,
		TotalRows:        res.TotalRows,
		SheetName:        res.SheetName,
		OriginalFilePath: res.FilePath,
	})
}

func (h *Handler) uploadConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := h.decode(r, &req, msgFilePathRequired); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.ingest.Confirm(r.Context(), ingest.ConfirmInput{
		FilePath: req.FilePath,
		ActorID:  principalFrom(r.Context()).UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmResponse{
		Message:            res.Message,
		TotalRowsProcessed: res.TotalRowsProcessed,
		BackupFile:         res.BackupFile,
		UploadID:           res.UploadID,
	})
}

func (h *Handler) listUploads(w http.ResponseWriter, r *http.Request) {
	records, err := h.roster.ListUploads(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]uploadResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toUploadResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) rollbackUpload(w http.ResponseWriter, r *http.Request) {
	res, err := h.rollback.Rollback(r.Context(), rollback.Input{
		UploadID: chi.URLParam(r, "id"),
		ActorID:  principalFrom(r.Context()).UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rollbackResponse{Message: res.Message, RestoredRows: res.RestoredRows})
}
