package handlers

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/models"
	"github.com/localpulse/localpulse-engine/pkg/services"
)

// UpdateSettingsRequest for PUT /api/settings
type UpdateSettingsRequest struct {
	RefreshCooldownDays int `json:"refresh_cooldown_days"`
}

// Validate rejects obviously out-of-range values at the API edge; the
// service clamps anything that slips through.
func (r UpdateSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshCooldownDays,
			validation.Min(models.MinCooldownDays),
			validation.Max(models.MaxCooldownDays)),
	)
}

// SettingsHandler handles engine settings HTTP requests.
type SettingsHandler struct {
	settingsService services.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settingsService services.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// RegisterRoutes registers the settings handler's routes on the given mux.
func (h *SettingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/settings", h.Get)
	mux.HandleFunc("PUT /api/settings", h.Update)
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.logger.Error("Failed to get settings", zap.Error(err))
		if err := ServiceErrorResponse(w, err, "get_settings_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: settings}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if err := req.Validate(); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	settings, err := h.settingsService.Update(r.Context(), req.RefreshCooldownDays)
	if err != nil {
		h.logger.Error("Failed to update settings",
			zap.Int("refresh_cooldown_days", req.RefreshCooldownDays),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "update_settings_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: settings}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
