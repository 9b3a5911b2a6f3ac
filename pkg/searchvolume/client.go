package searchvolume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/jsonutil"
)

const defaultTimeout = 30 * time.Second

// maxErrorBodyBytes caps how much of a failure body is kept for the status
// message recorded on keywords.
const maxErrorBodyBytes = 512

// Config holds configuration for creating a provider client.
type Config struct {
	Endpoint string        // Base URL of the provider API
	APIKey   string        // Bearer token, env-only
	Timeout  time.Duration // Per-request timeout, defaults to 30s
}

// HTTPClient calls the search-volume provider's JSON API.
type HTTPClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *zap.Logger
}

// NewHTTPClient creates a provider client. Missing endpoint or credentials
// fail here, before any network call is ever attempted.
func NewHTTPClient(cfg *Config, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, NewError(ErrorTypeConfig, "endpoint is required", false, nil)
	}
	if cfg.APIKey == "" {
		return nil, NewError(ErrorTypeConfig, "api key is required", false, nil)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger.Named("searchvolume"),
	}, nil
}

var _ Client = (*HTTPClient)(nil)

// Wire DTOs. Numeric fields use json.RawMessage because the provider sends
// numbers, whole floats, or numeric strings depending on the result source.
type batchRequestBody struct {
	Keywords       []string `json:"keywords"`
	Location       string   `json:"location"`
	Language       string   `json:"language"`
	SearchPartners bool     `json:"search_partners"`
}

type batchEnvelope struct {
	StatusCode    int                 `json:"status_code"`
	StatusMessage string              `json:"status_message"`
	Results       []keywordResultBody `json:"results"`
}

type keywordResultBody struct {
	Keyword            string              `json:"keyword"`
	Success            bool                `json:"success"`
	StatusCode         int                 `json:"status_code"`
	StatusMessage      string              `json:"status_message"`
	AvgMonthlySearches json.RawMessage     `json:"avg_monthly_searches"`
	CPC                json.RawMessage     `json:"cpc"`
	Competition        string              `json:"competition"`
	CompetitionIndex   json.RawMessage     `json:"competition_index"`
	LowTopOfPageBid    json.RawMessage     `json:"low_top_of_page_bid"`
	HighTopOfPageBid   json.RawMessage     `json:"high_top_of_page_bid"`
	MonthlySearches    []monthlySearchBody `json:"monthly_searches"`
	Location           string              `json:"location"`
	Language           string              `json:"language"`
	SearchPartners     *bool               `json:"search_partners"`
}

type monthlySearchBody struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Searches json.RawMessage `json:"searches"`
}

// FetchVolumes implements Client.
func (c *HTTPClient) FetchVolumes(ctx context.Context, req *BatchRequest) (*BatchResult, error) {
	if len(req.Keywords) == 0 {
		return &BatchResult{StatusCode: http.StatusOK, Results: map[string]KeywordResult{}}, nil
	}

	body, err := json.Marshal(batchRequestBody{
		Keywords:       req.Keywords,
		Location:       req.Location,
		Language:       req.Language,
		SearchPartners: req.SearchPartners,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal batch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/search-volume", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("search-volume request",
		zap.Int("keywords", len(req.Keywords)),
		zap.String("location", req.Location),
		zap.String("language", req.Language),
		zap.Bool("search_partners", req.SearchPartners))

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("search-volume request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		svErr := ClassifyError(err)
		svErr.Endpoint = c.endpoint
		return nil, svErr
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		svErr := NewError(ErrorTypeTransport, "read response body", true, err)
		svErr.StatusCode = resp.StatusCode
		svErr.Endpoint = c.endpoint
		return nil, svErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svErr := c.statusError(resp.StatusCode, respBody)
		c.logger.Error("search-volume request rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return nil, svErr
	}

	var envelope batchEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		svErr := NewError(ErrorTypeEnvelope, "malformed response envelope", false, err)
		svErr.StatusCode = resp.StatusCode
		svErr.Endpoint = c.endpoint
		return nil, svErr
	}

	// Some provider failures arrive inside a 200 envelope.
	if envelope.StatusCode >= 400 {
		svErr := NewError(ErrorTypeProvider, envelope.StatusMessage, envelope.StatusCode >= 500, nil)
		svErr.StatusCode = envelope.StatusCode
		svErr.Endpoint = c.endpoint
		return nil, svErr
	}

	result := &BatchResult{
		StatusCode: resp.StatusCode,
		Results:    make(map[string]KeywordResult, len(envelope.Results)),
	}
	for _, rb := range envelope.Results {
		key := strings.ToLower(strings.TrimSpace(rb.Keyword))
		if key == "" {
			continue
		}
		result.Results[key] = mapKeywordResult(rb)
	}

	c.logger.Info("search-volume request completed",
		zap.Int("keywords", len(req.Keywords)),
		zap.Int("results", len(result.Results)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// statusError builds the batch-level error for a non-2xx HTTP response.
func (c *HTTPClient) statusError(statusCode int, body []byte) *Error {
	message := strings.TrimSpace(string(body))
	if len(message) > maxErrorBodyBytes {
		message = message[:maxErrorBodyBytes]
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}

	errType := ErrorTypeProvider
	retryable := statusCode == http.StatusTooManyRequests || statusCode >= 500
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		errType = ErrorTypeAuth
	}

	svErr := NewError(errType, message, retryable, nil)
	svErr.StatusCode = statusCode
	svErr.Endpoint = c.endpoint
	return svErr
}

// mapKeywordResult converts one wire result into the tagged variant. Any
// malformed numeric field fails just that keyword, not the batch.
func mapKeywordResult(rb keywordResultBody) KeywordResult {
	if !rb.Success {
		return KeywordResult{Err: &KeywordError{
			StatusCode:    rb.StatusCode,
			StatusMessage: rb.StatusMessage,
		}}
	}

	data := &KeywordData{
		ReportedLocation: rb.Location,
		ReportedLanguage: rb.Language,
		ReportedPartners: rb.SearchPartners,
	}

	var err error
	if data.Volume, err = jsonutil.FlexibleInt64(rb.AvgMonthlySearches); err != nil {
		return malformedResult("avg_monthly_searches", err)
	}
	if data.CPC, err = jsonutil.FlexibleFloat64(rb.CPC); err != nil {
		return malformedResult("cpc", err)
	}
	if data.BidLow, err = jsonutil.FlexibleFloat64(rb.LowTopOfPageBid); err != nil {
		return malformedResult("low_top_of_page_bid", err)
	}
	if data.BidHigh, err = jsonutil.FlexibleFloat64(rb.HighTopOfPageBid); err != nil {
		return malformedResult("high_top_of_page_bid", err)
	}

	idx, err := jsonutil.FlexibleInt64(rb.CompetitionIndex)
	if err != nil {
		return malformedResult("competition_index", err)
	}
	if idx != nil {
		v := int(*idx)
		data.CompetitionIndex = &v
	}

	if rb.Competition != "" {
		label := rb.Competition
		data.CompetitionLabel = &label
	}

	for _, m := range rb.MonthlySearches {
		volume, err := jsonutil.FlexibleInt64(m.Searches)
		if err != nil {
			return malformedResult("monthly_searches", err)
		}
		if volume == nil {
			continue
		}
		data.MonthlySeries = append(data.MonthlySeries, MonthlyVolume{
			Year:   m.Year,
			Month:  m.Month,
			Volume: *volume,
		})
	}

	return KeywordResult{Data: data}
}

func malformedResult(field string, err error) KeywordResult {
	return KeywordResult{Err: &KeywordError{
		StatusMessage: fmt.Sprintf("malformed %s: %v", field, err),
	}}
}
