package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"studentmedia/internal/apperr"
	"studentmedia/internal/models"
)

type HealthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
}

// Health reports whether the store answers, along with its table count.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	count, err := h.TablesService.CountTables(r.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
		}
		writeSuccess(w, HealthResponse{Status: "unavailable"}, http.StatusServiceUnavailable)
		return
	}

	writeSuccess(w, HealthResponse{Status: "ok", Tables: count}, http.StatusOK)
}

func (h *Handlers) Departments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	writeSuccess(w, map[string][]string{"departments": models.Departments}, http.StatusOK)
}
