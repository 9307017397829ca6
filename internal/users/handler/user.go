package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"lockerd/internal/auth"
	"lockerd/internal/users/service"
	apperrors "lockerd/pkg/errors"
	httputil "lockerd/pkg/http"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

type UserHandler struct {
	service   service.UserService
	log       *logger.Logger
	jwtSecret string
}

func NewUserHandler(service service.UserService, log *logger.Logger, jwtSecret string) *UserHandler {
	return &UserHandler{
		service:   service,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Register", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Login", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "Me", apperrors.Unauthorized("Authentication required"))
		return
	}

	user, err := h.service.GetByID(r.Context(), actor.UserID)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "error", err)
	}
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "ForgotPassword", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.ForgotPassword(r.Context(), &req); err != nil {
		h.writeError(w, "ForgotPassword", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"message": "If the email exists, a reset link has been sent"}); err != nil {
		h.log.Error("failed to write success response", "handler", "ForgotPassword", "error", err)
	}
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "ResetPassword", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		h.writeError(w, "ResetPassword", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"message": "Password has been reset"}); err != nil {
		h.log.Error("failed to write success response", "handler", "ResetPassword", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	authenticate := auth.Authenticate(h.jwtSecret, h.log)

	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/forgot-password", h.ForgotPassword)
	router.POST("/api/v1/auth/reset-password", h.ResetPassword)
	router.GET("/api/v1/auth/me", authenticate(h.Me))
}

func (h *UserHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *UserHandler) writeJSON(w http.ResponseWriter, handlerName string, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "error", err)
	}
}
