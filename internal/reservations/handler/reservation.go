package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"lockerd/internal/auth"
	"lockerd/internal/reservations/service"
	apperrors "lockerd/pkg/errors"
	httputil "lockerd/pkg/http"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

type ReservationHandler struct {
	service   service.ReservationService
	log       *logger.Logger
	jwtSecret string
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger, jwtSecret string) *ReservationHandler {
	return &ReservationHandler{
		service:   service,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Create", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	reservation, err := h.service.Create(r.Context(), actor.UserID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Authentication required"))
		return
	}

	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"), actor)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// GetMine lists the caller's own reservations, newest first.
func (h *ReservationHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetMine", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	reservations, err := h.service.GetByUser(r.Context(), actor.UserID, limit, offset)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservations); err != nil {
		h.log.Error("failed to write success response", "handler", "GetMine", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	reservations, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "Cancel", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Cancel(r.Context(), ps.ByName("id"), actor); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	authenticate := auth.Authenticate(h.jwtSecret, h.log)
	admin := auth.RequireAdmin(h.log)

	router.POST("/api/v1/reservations", authenticate(h.Create))
	router.GET("/api/v1/reservations", authenticate(h.GetMine))
	router.GET("/api/v1/reservations/:id", authenticate(h.GetByID))
	router.DELETE("/api/v1/reservations/:id", authenticate(h.Cancel))
	router.GET("/api/v1/admin/reservations", authenticate(admin(h.GetAll)))
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ReservationHandler) writeJSON(w http.ResponseWriter, handlerName string, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "error", err)
	}
}
