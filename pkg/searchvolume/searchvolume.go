// Package searchvolume provides the client for the external search-volume
// provider: one batched request of normalized keyword texts in, per-keyword
// demand results out. The wire format lives entirely in this package; the
// engine only ever sees the Client interface and its tagged result types.
package searchvolume

import (
	"context"
)

// BatchRequest carries the distinct normalized keyword texts for one scope
// plus the geographic/language targeting the provider should resolve them
// against.
type BatchRequest struct {
	Keywords       []string `json:"keywords"`
	Location       string   `json:"location"`
	Language       string   `json:"language"`
	SearchPartners bool     `json:"search_partners"`
}

// MonthlyVolume is one month of demand as reported by the provider.
type MonthlyVolume struct {
	Year   int   `json:"year"`
	Month  int   `json:"month"`
	Volume int64 `json:"volume"`
}

// KeywordData is the successful half of a per-keyword result.
//
// A nil Volume means the provider answered but reported the keyword below
// its volume threshold. Reported* fields echo the targeting the provider
// actually resolved against; empty/nil when the provider omits them.
type KeywordData struct {
	Volume           *int64          `json:"volume"`
	CPC              *float64        `json:"cpc,omitempty"`
	CompetitionLabel *string         `json:"competition_label,omitempty"`
	CompetitionIndex *int            `json:"competition_index,omitempty"`
	BidLow           *float64        `json:"bid_low,omitempty"`
	BidHigh          *float64        `json:"bid_high,omitempty"`
	MonthlySeries    []MonthlyVolume `json:"monthly_series,omitempty"`
	ReportedLocation string          `json:"reported_location,omitempty"`
	ReportedLanguage string          `json:"reported_language,omitempty"`
	ReportedPartners *bool           `json:"reported_partners,omitempty"`
}

// KeywordError is the failed half of a per-keyword result.
type KeywordError struct {
	StatusCode    int    `json:"status_code,omitempty"`
	StatusMessage string `json:"status_message,omitempty"`
}

// KeywordResult is the tagged per-keyword outcome: exactly one of Data or
// Err is set. Callers branch on which half is present instead of probing a
// soup of nullable fields.
type KeywordResult struct {
	Data *KeywordData  `json:"data,omitempty"`
	Err  *KeywordError `json:"err,omitempty"`
}

// Succeeded reports whether the provider returned usable data for this
// keyword.
func (r KeywordResult) Succeeded() bool {
	return r.Data != nil
}

// BatchResult is a successful batch response. Results is keyed by the
// normalized keyword text; a keyword the engine asked about may be absent
// entirely, which callers must treat as its own outcome.
type BatchResult struct {
	StatusCode int                      `json:"status_code"`
	Results    map[string]KeywordResult `json:"results"`
}

// Client fetches demand data for a batch of keywords. A non-nil error means
// the whole batch failed (transport, auth, malformed envelope) and no
// per-keyword results exist; batch-level status lives on the *Error.
// Implementations must honor ctx cancellation.
type Client interface {
	FetchVolumes(ctx context.Context, req *BatchRequest) (*BatchResult, error)
}
