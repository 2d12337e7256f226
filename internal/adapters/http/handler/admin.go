package handler

import (
	"net/http"
	"time"

	"github.com/ogurasousui/headcount-clean-arch/internal/core/audit"
)

type logUser struct {
	Nome      string `json:"nome"`
	Matricula string `json:"matricula"`
}

type logResponse struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id,omitempty"`
	Action      string         `json:"action"`
	TargetTable string         `json:"target_table,omitempty"`
	TargetID    string         `json:"target_id,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	User        *logUser       `json:"user"`
}

type logPage struct {
	TotalItems  int           `json:"totalItems"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	PageSize    int           `json:"pageSize"`
	Data        []logResponse `json:"data"`
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.audit.ListLogs(r.Context(), audit.ListLogsInput{Page: page, PageSize: pageSize})
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := make([]logResponse, 0, len(res.Logs))
	for _, l := range res.Logs {
		item := logResponse{
			ID:          l.ID,
			UserID:      l.UserID,
			Action:      l.Action,
			TargetTable: l.TargetTable,
			TargetID:    l.TargetID,
			Details:     l.Details,
			Timestamp:   l.Timestamp,
		}
		if l.UserID != "" {
			item.User = &logUser{Nome: l.UserNome, Matricula: l.UserMatricula}
		}
		data = append(data, item)
	}

	writeJSON(w, http.StatusOK, logPage{
		TotalItems:  res.TotalItems,
		TotalPages:  res.TotalPages,
		CurrentPage: res.CurrentPage,
		PageSize:    res.PageSize,
		Data:        data,
	})
}
