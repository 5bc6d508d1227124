package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"coachbook/internal/packages/service"
	httputil "coachbook/pkg/http"
	"coachbook/pkg/logger"
	"coachbook/pkg/model"
)

type PackageHandler struct {
	service service.PackageService
	log     *logger.Logger
}

func NewPackageHandler(service service.PackageService, log *logger.Logger) *PackageHandler {
	return &PackageHandler{
		service: service,
		log:     log,
	}
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.SessionPackage
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &p); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, p); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *PackageHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, p); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PackageHandler) GetByClient(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	orgID := strings.TrimSpace(query.Get("org_id"))
	clientID := strings.TrimSpace(query.Get("client_id"))

	if orgID == "" || clientID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'org_id' and 'client_id' query parameters are required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "GetByClient", "operation", "WriteJSON", "error", err)
		}
		return
	}

	packages, err := h.service.GetByClient(r.Context(), orgID, clientID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByClient", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, packages); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByClient", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PackageHandler) Consume(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Consume(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Consume", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PackageHandler) Reinstate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Reinstate(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reinstate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PackageHandler) SetPaymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var req paymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetPaymentStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.SetPaymentStatus(r.Context(), id, req.PaymentStatus); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetPaymentStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PackageHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/packages", h.Create)
	router.GET("/api/v1/packages", h.GetByClient)
	router.GET("/api/v1/packages/id/:id", h.GetByID)
	router.POST("/api/v1/packages/id/:id/consume", h.Consume)
	router.POST("/api/v1/packages/id/:id/reinstate", h.Reinstate)
	router.PATCH("/api/v1/packages/id/:id/payment", h.SetPaymentStatus)
}
