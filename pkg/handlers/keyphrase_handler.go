package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/services"
)

// KeyphraseHandler serves the sorted, annotated keyword view of a scope.
type KeyphraseHandler struct {
	keyphraseService services.KeyphraseService
	logger           *zap.Logger
}

// NewKeyphraseHandler creates a new keyphrase handler.
func NewKeyphraseHandler(keyphraseService services.KeyphraseService, logger *zap.Logger) *KeyphraseHandler {
	return &KeyphraseHandler{
		keyphraseService: keyphraseService,
		logger:           logger,
	}
}

// RegisterRoutes registers the keyphrase handler's routes on the given mux.
func (h *KeyphraseHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/locations/{lid}/categories/{cid}/keyphrases", h.List)
}

// List handles GET /api/locations/{lid}/categories/{cid}/keyphrases
func (h *KeyphraseHandler) List(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.keyphraseService.GetKeyphrases(r.Context(), locationID, categoryID)
	if err != nil {
		h.logger.Error("Failed to build keyphrase report",
			zap.Int64("location_id", locationID),
			zap.Int64("category_id", categoryID),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "get_keyphrases_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: report}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
