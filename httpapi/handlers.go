package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	goSignup "github.com/MrEthical07/goSignup"
	"github.com/MrEthical07/goSignup/middleware"
)

const maxBodyBytes = 1 << 20

// Handler holds the HTTP handlers for the signup routes.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

func NewHandler(svc Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logDiscard()
	}
	return &Handler{svc: svc, logger: logger}
}

type sendVerificationRequest struct {
	Email string `json:"email"`
}

type sendVerificationResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	Code             string `json:"code"`
	VerificationCode string `json:"verificationCode"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string        `json:"token"`
	Email     string        `json:"email"`
	Role      goSignup.Role `json:"role"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type profileResponse struct {
	Subject string        `json:"subject"`
	UserID  string        `json:"userId"`
	Email   string        `json:"email"`
	Role    goSignup.Role `json:"role"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.DebugContext(r.Context(), "request body rejected", "path", r.URL.Path, "error", err)
	h.writeError(w, r, goSignup.ErrInvalidInput)
}

func (h *Handler) handleSendVerification(w http.ResponseWriter, r *http.Request) {
	var req sendVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.svc.RequestCode(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sendVerificationResponse{Message: res.Message, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.svc.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	code := req.Code
	if code == "" {
		code = req.VerificationCode
	}
	res, err := h.svc.CompleteRegistration(r.Context(), goSignup.CompleteRegistrationRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Code:     code,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: res.Token, Email: res.Email, Role: res.Role, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: res.Token, Email: res.Email, Role: res.Role, ExpiresAt: res.ExpiresAt})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, r, goSignup.ErrMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Subject: id.Subject, UserID: id.Subject, Email: id.Email, Role: id.Role})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
