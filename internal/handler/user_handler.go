package handlers

import (
	"encoding/json"
	"net/http"

	"studentmedia/internal/apperr"
	"studentmedia/internal/service"
)

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		WriteError(w, apperr.Unauthorized("authentication required"))
		return
	}

	var req service.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	if _, err := h.UserService.UpdateProfile(r.Context(), user.ID, req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, MessageResponse{Message: "Profile updated successfully"}, http.StatusOK)
}
