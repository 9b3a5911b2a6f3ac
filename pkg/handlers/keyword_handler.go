package handlers

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/models"
	"github.com/localpulse/localpulse-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// AddKeywordRequest for POST /keywords
type AddKeywordRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Validate checks the request shape. Scope rules (location containment, the
// canonical main-term phrase) belong to the service.
func (r AddKeywordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Type, validation.Required, validation.In(
			string(models.KeywordTypeMainTerm),
			string(models.KeywordTypeModifier),
			string(models.KeywordTypeAdjacent),
		)),
	)
}

// RetypeKeywordRequest for PATCH /keywords/{kid}
type RetypeKeywordRequest struct {
	Type string `json:"type"`
}

// Validate checks the request shape.
func (r RetypeKeywordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(
			string(models.KeywordTypeModifier),
			string(models.KeywordTypeAdjacent),
		)),
	)
}

// DeleteKeywordResponse for delete result.
type DeleteKeywordResponse struct {
	Deleted bool `json:"deleted"`
}

// ============================================================================
// Handler
// ============================================================================

// KeywordHandler handles keyword lifecycle HTTP requests.
type KeywordHandler struct {
	keywordService services.KeywordService
	logger         *zap.Logger
}

// NewKeywordHandler creates a new keyword handler.
func NewKeywordHandler(keywordService services.KeywordService, logger *zap.Logger) *KeywordHandler {
	return &KeywordHandler{
		keywordService: keywordService,
		logger:         logger,
	}
}

// RegisterRoutes registers the keyword handler's routes on the given mux.
func (h *KeywordHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/locations/{lid}/categories/{cid}/keywords"

	mux.HandleFunc("POST "+base, h.Add)
	mux.HandleFunc("POST "+base+"/{kid}/promote", h.Promote)
	mux.HandleFunc("PATCH "+base+"/{kid}", h.Retype)
	mux.HandleFunc("DELETE "+base+"/{kid}", h.Delete)
}

// Add handles POST /api/locations/{lid}/categories/{cid}/keywords
func (h *KeywordHandler) Add(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}

	var req AddKeywordRequest
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

	keyword, err := h.keywordService.AddKeyword(r.Context(), locationID, categoryID, req.Text, models.KeywordType(req.Type))
	if err != nil {
		h.logger.Error("Failed to add keyword",
			zap.Int64("location_id", locationID),
			zap.Int64("category_id", categoryID),
			zap.String("text", req.Text),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "add_keyword_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: keyword}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Promote handles POST /api/locations/{lid}/categories/{cid}/keywords/{kid}/promote
func (h *KeywordHandler) Promote(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}
	keywordID, ok := ParseKeywordID(w, r, h.logger)
	if !ok {
		return
	}

	keyword, err := h.keywordService.PromoteToMainTerm(r.Context(), locationID, categoryID, keywordID)
	if err != nil {
		h.logger.Error("Failed to promote keyword",
			zap.Int64("keyword_id", keywordID),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "promote_keyword_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: keyword}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Retype handles PATCH /api/locations/{lid}/categories/{cid}/keywords/{kid}
func (h *KeywordHandler) Retype(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}
	keywordID, ok := ParseKeywordID(w, r, h.logger)
	if !ok {
		return
	}

	var req RetypeKeywordRequest
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

	keyword, err := h.keywordService.RetypeKeyword(r.Context(), locationID, categoryID, keywordID, models.KeywordType(req.Type))
	if err != nil {
		h.logger.Error("Failed to retype keyword",
			zap.Int64("keyword_id", keywordID),
			zap.String("type", req.Type),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "retype_keyword_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: keyword}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/locations/{lid}/categories/{cid}/keywords/{kid}
func (h *KeywordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	locationID, categoryID, ok := ParseScopeIDs(w, r, h.logger)
	if !ok {
		return
	}
	keywordID, ok := ParseKeywordID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.keywordService.DeleteKeyword(r.Context(), locationID, categoryID, keywordID); err != nil {
		h.logger.Error("Failed to delete keyword",
			zap.Int64("keyword_id", keywordID),
			zap.Error(err))
		if err := ServiceErrorResponse(w, err, "delete_keyword_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: DeleteKeywordResponse{Deleted: true}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
