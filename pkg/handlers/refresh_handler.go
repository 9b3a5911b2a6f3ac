package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/services"
)

// ============================================================================
// Request Types
// ============================================================================

// RefreshScopeRequest for POST /refresh. An empty or omitted body refreshes
// the whole scope.
type RefreshScopeRequest struct {
	// KeywordIDs selects which keywords to refresh. Nil means every keyword
	// in the scope.
	KeywordIDs []int64 `json:"keyword_ids"`
	// Enforce makes an ineligible keyword fail the whole call instead of
	// being skipped.
	Enforce bool `json:"enforce"`
}

// ============================================================================
// Handler
// ============================================================================

// RefreshHandler handles volume refresh HTTP requests.
type RefreshHandler struct {
	refreshService services.RefreshService
	logger         *zap.Logger
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(refreshService services.RefreshService, logger *zap.Logger) *RefreshHandler {
	return &RefreshHandler{
		refreshService: refreshService,
		logger:         logger,
	}
}

// RegisterRoutes registers the refresh handler's routes on the given mux.
func (h *RefreshHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/locations/{lid}/categories/{cid}"

	mux.HandleFunc("POST "+base+"/keywords/{kid}/refresh", h.RefreshKeyword)
	mux.HandleFunc("POST "+base+"/refresh", h.RefreshScope)
	mux.HandleFunc("POST "+base+"/refresh-eligible", h.RefreshEligible)
	mux.HandleFunc("POST /api/refresh-eligible", h.RefreshAllEligible)
}

// RefreshKeyword handles POST /api/locations/{lid}/categories/{cid}/keywords/{kid}/refresh
// The force query parameter makes an active cooldown a hard failure instead
// of a skip.
func (h *RefreshHandler) RefreshKeyword(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}
	keywordID, ok := ParseKeywordID(w, r, h.logger)
	if !ok {
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_force", "Invalid force parameter"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		force = parsed
	}

	summary, err := h.refreshService.RefreshKeyword(r.Context(), locationID, categoryID, keywordID, force)
	if err != nil {
		h.logger.Error("Failed to refresh keyword",
			zap.Int64("keyword_id", keywordID),
			zap.Bool("force", force),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "refresh_keyword_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RefreshScope handles POST /api/locations/{lid}/categories/{cid}/refresh
func (h *RefreshHandler) RefreshScope(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req RefreshScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	summary, err := h.refreshService.RefreshKeywords(r.Context(), locationID, categoryID, req.KeywordIDs, req.Enforce)
	if err != nil {
		h.logger.Error("Failed to refresh scope",
			zap.Int64("location_id", locationID),
			zap.Int64("category_id", categoryID),
			zap.Int("keyword_ids", len(req.KeywordIDs)),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "refresh_scope_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RefreshEligible handles POST /api/locations/{lid}/categories/{cid}/refresh-eligible
func (h *RefreshHandler) RefreshEligible(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}

	summary, err := h.refreshService.RefreshEligible(r.Context(), locationID, categoryID)
	if err != nil {
		h.logger.Error("Failed to refresh eligible keywords",
			zap.Int64("location_id", locationID),
			zap.Int64("category_id", categoryID),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "refresh_eligible_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RefreshAllEligible handles POST /api/refresh-eligible
func (h *RefreshHandler) RefreshAllEligible(w http.ResponseWriter, r *http.Request) {
	summary, err := h.refreshService.RefreshAllEligible(r.Context())
	if err != nil {
		h.logger.Error("Failed to run bulk refresh", zap.Error(err))
		if err := ServiceErrorResponse(w, err, "refresh_all_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: summary}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
