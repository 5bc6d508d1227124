package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"coachbook/internal/availability/service"
	httputil "coachbook/pkg/http"
	"coachbook/pkg/logger"
	"coachbook/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) CreateWindow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var window model.AvailabilityWindow
	if err := json.NewDecoder(r.Body).Decode(&window); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateWindow", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateWindow(r.Context(), &window); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateWindow", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, window); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateWindow", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) GetWindows(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	orgID := strings.TrimSpace(r.URL.Query().Get("org_id"))
	if orgID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'org_id' query parameter is required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "GetWindows", "operation", "WriteJSON", "error", err)
		}
		return
	}

	windows, err := h.service.GetWindows(r.Context(), orgID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetWindows", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, windows); err != nil {
		h.log.Error("failed to write success response", "handler", "GetWindows", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteWindow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orgID := strings.TrimSpace(r.URL.Query().Get("org_id"))
	id := ps.ByName("id")

	if err := h.service.DeleteWindow(r.Context(), orgID, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteWindow", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) CreateBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var block model.BlockedInterval
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateBlock", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.CreateBlock(r.Context(), &block); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateBlock", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, block); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBlock", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) GetBlocks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	orgID := strings.TrimSpace(r.URL.Query().Get("org_id"))
	if orgID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'org_id' query parameter is required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "GetBlocks", "operation", "WriteJSON", "error", err)
		}
		return
	}

	blocks, err := h.service.GetBlocks(r.Context(), orgID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetBlocks", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, blocks); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBlocks", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteBlock(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orgID := strings.TrimSpace(r.URL.Query().Get("org_id"))
	id := ps.ByName("id")

	if err := h.service.DeleteBlock(r.Context(), orgID, id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "DeleteBlock", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// GetOpenRanges returns the resolved bookable intervals for one calendar
// day: windows minus blocks, in the organization's timezone.
func (h *AvailabilityHandler) GetOpenRanges(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	orgID := strings.TrimSpace(query.Get("org_id"))
	dateStr := strings.TrimSpace(query.Get("date"))

	if orgID == "" || dateStr == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'org_id' and 'date' query parameters are required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "GetOpenRanges", "operation", "WriteJSON", "error", err)
		}
		return
	}

	ranges, err := h.service.OpenRangesOnDate(r.Context(), orgID, dateStr)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetOpenRanges", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	type openRange struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	out := make([]openRange, 0, len(ranges))
	for _, rng := range ranges {
		out = append(out, openRange{StartTime: rng.Start, EndTime: rng.End})
	}

	if err := httputil.WriteSuccess(w, out); err != nil {
		h.log.Error("failed to write success response", "handler", "GetOpenRanges", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/availability/windows", h.CreateWindow)
	router.GET("/api/v1/availability/windows", h.GetWindows)
	router.DELETE("/api/v1/availability/windows/:id", h.DeleteWindow)

	router.POST("/api/v1/availability/blocks", h.CreateBlock)
	router.GET("/api/v1/availability/blocks", h.GetBlocks)
	router.DELETE("/api/v1/availability/blocks/:id", h.DeleteBlock)

	router.GET("/api/v1/availability/open", h.GetOpenRanges)
}
