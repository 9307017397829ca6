package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"lockerd/internal/auth"
	"lockerd/internal/lockers/service"
	httputil "lockerd/pkg/http"
	"lockerd/pkg/logger"
	"lockerd/pkg/model"
)

type LockerHandler struct {
	service   service.LockerService
	log       *logger.Logger
	jwtSecret string
}

func NewLockerHandler(service service.LockerService, log *logger.Logger, jwtSecret string) *LockerHandler {
	return &LockerHandler{
		service:   service,
		log:       log,
		jwtSecret: jwtSecret,
	}
}

func (h *LockerHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var locker model.Locker
	if err := json.NewDecoder(r.Body).Decode(&locker); err != nil {
		h.writeJSON(w, "Create", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.Create(r.Context(), &locker); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, locker); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *LockerHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	locker, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, locker); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *LockerHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	status := r.URL.Query().Get("status")

	lockers, total, err := h.service.GetAll(r.Context(), status, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, lockers, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *LockerHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.LockerUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeJSON(w, "Update", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LockerHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LockerHandler) RegisterRoutes(router *httprouter.Router) {
	authenticate := auth.Authenticate(h.jwtSecret, h.log)
	admin := auth.RequireAdmin(h.log)

	router.GET("/api/v1/lockers", h.GetAll)
	router.GET("/api/v1/lockers/:id", h.GetByID)
	router.POST("/api/v1/lockers", authenticate(admin(h.Create)))
	router.PUT("/api/v1/lockers/:id", authenticate(admin(h.Update)))
	router.DELETE("/api/v1/lockers/:id", authenticate(admin(h.Delete)))
}

func (h *LockerHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *LockerHandler) writeJSON(w http.ResponseWriter, handlerName string, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerName, "error", err)
	}
}
