package handlers

import (
	"encoding/json"
	"net/http"

	"studentmedia/internal/apperr"
	"studentmedia/internal/service"
)

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req service.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	posts, err := h.SearchService.Search(r.Context(), user.ID, req)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, posts, http.StatusOK)
}
