package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"coachbook/internal/slots/service"
	"coachbook/pkg/config"
	apperrors "coachbook/pkg/errors"
	httputil "coachbook/pkg/http"
	"coachbook/pkg/logger"
)

type SlotHandler struct {
	service         service.SlotService
	defaultDuration int
	log             *logger.Logger
}

func NewSlotHandler(service service.SlotService, cfg *config.Config) *SlotHandler {
	return &SlotHandler{
		service:         service,
		defaultDuration: cfg.DefaultDurationMinutes,
		log:             cfg.Log,
	}
}

func (h *SlotHandler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	orgID := strings.TrimSpace(query.Get("org_id"))
	durationStr := strings.TrimSpace(query.Get("duration_minutes"))

	if orgID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'org_id' query parameter is required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "Generate", "operation", "WriteJSON", "error", err)
		}
		return
	}

	duration := h.defaultDuration
	if durationStr != "" {
		var err error
		duration, err = strconv.Atoi(durationStr)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid duration_minutes parameter: %s", durationStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Generate", "operation", "WriteError", "error", writeErr)
			}
			return
		}
	}

	slots, err := h.service.GenerateSlots(r.Context(), orgID, duration)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Generate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Generate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Grid(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	orgID := strings.TrimSpace(query.Get("org_id"))
	date := strings.TrimSpace(query.Get("date"))

	if orgID == "" || date == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'org_id' and 'date' query parameters are required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "Grid", "operation", "WriteJSON", "error", err)
		}
		return
	}

	cells, err := h.service.Grid(r.Context(), orgID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Grid", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, cells); err != nil {
		h.log.Error("failed to write success response", "handler", "Grid", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/slots", h.Generate)
	router.GET("/api/v1/slots/grid", h.Grid)
}
