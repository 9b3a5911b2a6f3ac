package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseLocationID extracts and validates the location ID from the request
// path. Returns the parsed ID and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: lid
func ParseLocationID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "lid", "invalid_location_id", "Invalid location ID format", logger)
}

// ParseCategoryID extracts and validates the category ID from the request
// path. Returns the parsed ID and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: cid
func ParseCategoryID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "cid", "invalid_category_id", "Invalid category ID format", logger)
}

// ParseKeywordID extracts and validates the keyword ID from the request
// path. Returns the parsed ID and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: kid
func ParseKeywordID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "kid", "invalid_keyword_id", "Invalid keyword ID format", logger)
}

// ParseScopeIDs extracts and validates both location and category IDs.
// Returns both IDs and true on success, or zero values and false on error.
// Expects path parameters: lid, cid
func ParseScopeIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, int64, bool) {
	locationID, ok := ParseLocationID(w, r, logger)
	if !ok {
		return 0, 0, false
	}

	categoryID, ok := ParseCategoryID(w, r, logger)
	if !ok {
		return 0, 0, false
	}

	return locationID, categoryID, true
}

// parseID is the internal helper that does the actual parsing work.
func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	idStr := r.PathValue(pathParam)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
