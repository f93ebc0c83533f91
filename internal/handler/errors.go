package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"studentmedia/internal/apperr"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError writes err as {"error","kind"} with the status its kind maps to.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, ErrorResponse{Error: apperr.PublicMessage(err), Kind: string(kind)}, StatusFor(kind))
}

func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, data, statusCode)
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidCode:
		return http.StatusBadRequest
	case apperr.KindDuplicateUser:
		return http.StatusConflict
	case apperr.KindInvalidCredentials, apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError translates a service error. Internal details go to the log only.
func (h *Handlers) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(apperr.KindOf(err)) == http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	WriteError(w, err)
}
