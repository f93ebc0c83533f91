package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"studentmedia/internal/apperr"
	"studentmedia/internal/models"
	"studentmedia/internal/service"
	"studentmedia/internal/validation"
)

type VerifyEmailRequest struct {
	Email            string `json:"email" validate:"required"`
	VerificationCode string `json:"verification_code" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// decode reads a JSON body into dst and runs the shape validation.
// It writes the 400 response itself and reports whether to continue.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, apperr.Validation("invalid request body"))
		return false
	}

	if err := h.Validate.Struct(dst); err != nil {
		WriteError(w, apperr.Validation(validation.Describe(err, h.Cfg.CampusDomain)))
		return false
	}

	return true
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	// check method
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, apperr.Validation("invalid request body"))
		return
	}

	if _, err := h.AuthService.Register(r.Context(), req); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, MessageResponse{
		Message: "Registration successful. Please check your email for verification code.",
	}, http.StatusCreated)
}

func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	var req VerifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.AuthService.VerifyEmail(r.Context(), req.Email, req.VerificationCode); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, MessageResponse{Message: "Email verified successfully"}, http.StatusOK)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, http.StatusOK)
}

func (h *Handlers) ResendCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	var req ResendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.AuthService.ResendCode(r.Context(), req.Email); err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, MessageResponse{Message: "Verification code sent"}, http.StatusOK)
}

// DemoCode exposes the active code so the flow can be tried without a mail server.
func (h *Handlers) DemoCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, apperr.MethodNotAllowed())
		return
	}

	if !h.Cfg.DemoMode {
		WriteError(w, apperr.NotFound("not found"))
		return
	}

	code, err := h.AuthService.DemoCode(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"verification_code": code}, http.StatusOK)
}
