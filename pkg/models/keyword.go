package models

import (
	"time"
)

// ============================================================================
// Keyword Type
// ============================================================================

// KeywordType classifies how a keyword relates to its (category, location)
// scope. Synonym and the single MainTerm are assigned by the classification
// resolver; users may only set Modifier or Adjacent directly (promotion to
// MainTerm is a separate validated action).
type KeywordType string

const (
	KeywordTypeMainTerm KeywordType = "main_term"
	KeywordTypeModifier KeywordType = "modifier"
	KeywordTypeAdjacent KeywordType = "adjacent"
	KeywordTypeSynonym  KeywordType = "synonym"
)

// ValidKeywordTypes contains all valid keyword type values.
var ValidKeywordTypes = []KeywordType{
	KeywordTypeMainTerm,
	KeywordTypeModifier,
	KeywordTypeAdjacent,
	KeywordTypeSynonym,
}

// IsValidKeywordType checks if the given type is valid.
func IsValidKeywordType(t KeywordType) bool {
	for _, v := range ValidKeywordTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsUserAssignableKeywordType reports whether a user may request this type on
// a manual add. Synonym is resolver-only.
func IsUserAssignableKeywordType(t KeywordType) bool {
	return t == KeywordTypeMainTerm || t == KeywordTypeModifier || t == KeywordTypeAdjacent
}

// ============================================================================
// No-Data Reason
// ============================================================================

// NoDataReason explains why a keyword carries no usable volume data.
type NoDataReason string

const (
	NoDataReasonBelowThreshold NoDataReason = "below_threshold" // Provider returned a null volume
	NoDataReasonAPIError       NoDataReason = "api_error"       // Provider failed for this keyword or the whole batch
	NoDataReasonUnknown        NoDataReason = "unknown"         // Keyword missing from the provider response
)

// ============================================================================
// Keyword Model
// ============================================================================

// Keyword is the central entity of the demand engine, scoped to one
// (category, location) pair. Stored in keywords table.
//
// Aggregate fields (AvgMonthlyVolume, CPC, Competition, CompetitionIndex,
// BidLow, BidHigh) are a cached snapshot of the latest refresh's companion
// metrics, not derived from the monthly series.
type Keyword struct {
	ID                 int64                `json:"id"`
	CategoryID         int64                `json:"category_id"`
	LocationID         int64                `json:"location_id"`
	Text               string               `json:"text"`
	Type               KeywordType          `json:"type"`
	CanonicalKeywordID *int64               `json:"canonical_keyword_id,omitempty"` // Only meaningful when Type is Synonym
	Fingerprint        *string              `json:"fingerprint,omitempty"`          // Absent while NoData
	NoData             bool                 `json:"no_data"`
	NoDataReason       NoDataReason         `json:"no_data_reason,omitempty"`
	AvgMonthlyVolume   *int64               `json:"avg_monthly_volume,omitempty"`
	CPC                *float64             `json:"cpc,omitempty"`
	Competition        *string              `json:"competition,omitempty"`
	CompetitionIndex   *int                 `json:"competition_index,omitempty"`
	BidLow             *float64             `json:"bid_low,omitempty"`
	BidHigh            *float64             `json:"bid_high,omitempty"`
	LastAttemptedAt    *time.Time           `json:"last_attempted_at,omitempty"`
	LastSucceededAt    *time.Time           `json:"last_succeeded_at,omitempty"`
	LastStatusCode     *int                 `json:"last_status_code,omitempty"`
	LastStatusMessage  *string              `json:"last_status_message,omitempty"`
	MonthlyVolumes     []MonthlyVolumePoint `json:"monthly_volumes,omitempty"` // Ascending by (Year, Month), at most 12
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// IsMainTerm returns true if the keyword is its scope's main term.
func (k *Keyword) IsMainTerm() bool {
	return k.Type == KeywordTypeMainTerm
}

// IsSynonym returns true if the keyword was folded into another by the
// classification resolver.
func (k *Keyword) IsSynonym() bool {
	return k.Type == KeywordTypeSynonym
}

// HasVolumeData returns true if the keyword carries at least one usable
// monthly point. A NoData keyword may still hold a stale series after a
// provider error; that series does not count.
func (k *Keyword) HasVolumeData() bool {
	return !k.NoData && len(k.MonthlyVolumes) > 0
}

// LatestVolume returns the most recent month's volume, or 0 when the keyword
// has no usable data.
func (k *Keyword) LatestVolume() int64 {
	if !k.HasVolumeData() {
		return 0
	}
	return k.MonthlyVolumes[len(k.MonthlyVolumes)-1].Volume
}

// KeywordChange is one reclassification the resolver wants applied: the
// desired type and canonical link for a keyword whose current state differs.
type KeywordChange struct {
	KeywordID          int64       `json:"keyword_id"`
	Type               KeywordType `json:"type"`
	CanonicalKeywordID *int64      `json:"canonical_keyword_id,omitempty"`
}

// KeywordScope identifies one (category, location) keyword set.
type KeywordScope struct {
	CategoryID int64 `json:"category_id"`
	LocationID int64 `json:"location_id"`
}

// ============================================================================
// Monthly Volume Point
// ============================================================================

// MonthlyVolumePoint is one (Year, Month, Volume) sample owned by a keyword.
// The series is replaced wholesale on every successful refresh, never merged.
// Stored in keyword_monthly_volumes table.
type MonthlyVolumePoint struct {
	KeywordID int64 `json:"-"`
	Year      int   `json:"year"`
	Month     int   `json:"month"` // 1-12
	Volume    int64 `json:"volume"`
}
