package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
	"github.com/localpulse/localpulse-engine/pkg/fingerprint"
	"github.com/localpulse/localpulse-engine/pkg/logging"
	"github.com/localpulse/localpulse-engine/pkg/metrics"
	"github.com/localpulse/localpulse-engine/pkg/models"
	"github.com/localpulse/localpulse-engine/pkg/repositories"
	"github.com/localpulse/localpulse-engine/pkg/searchvolume"
)

// seriesWindowMonths is the rolling window of monthly points retained per
// keyword.
const seriesWindowMonths = 12

// RefreshTargeting is the language/partner targeting carried on every batch
// request to the provider. The location half of the targeting comes from the
// scope being refreshed.
type RefreshTargeting struct {
	Language       string
	SearchPartners bool
}

// RefreshService orchestrates cooldown-gated batch calls to the
// search-volume provider and maps the results back onto keyword rows. Every
// public call is one atomic transaction: keyword updates, series writes and
// the classification pass commit together or not at all.
type RefreshService interface {
	// RefreshKeywords refreshes the given keywords. With enforceEligibility
	// set, any keyword still inside the cooldown fails the whole call;
	// otherwise ineligible keywords are skipped and counted.
	RefreshKeywords(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool) (*models.RefreshSummary, error)

	// RefreshKeyword is the single-keyword convenience wrapper.
	RefreshKeyword(ctx context.Context, locationID, categoryID, keywordID int64, enforceEligibility bool) (*models.RefreshSummary, error)

	// RefreshEligible refreshes every cooldown-expired keyword in the scope.
	RefreshEligible(ctx context.Context, locationID, categoryID int64) (*models.RefreshSummary, error)

	// RefreshAllEligible runs RefreshEligible across every scope holding
	// keywords, bounded-parallel. One scope's failure does not stop the
	// others.
	RefreshAllEligible(ctx context.Context) (*models.RefreshSummary, error)
}

type refreshService struct {
	tx           TxRunner
	keywordRepo  repositories.KeywordRepository
	locationRepo repositories.LocationRepository
	settings     SettingsService
	client       searchvolume.Client
	targeting    RefreshTargeting
	concurrency  int
	logger       *zap.Logger
}

// NewRefreshService creates a new RefreshService. Concurrency bounds the
// cross-scope fan-out of RefreshAllEligible.
func NewRefreshService(
	tx TxRunner,
	keywordRepo repositories.KeywordRepository,
	locationRepo repositories.LocationRepository,
	settings SettingsService,
	client searchvolume.Client,
	targeting RefreshTargeting,
	concurrency int,
	logger *zap.Logger,
) RefreshService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &refreshService{
		tx:           tx,
		keywordRepo:  keywordRepo,
		locationRepo: locationRepo,
		settings:     settings,
		client:       client,
		targeting:    targeting,
		concurrency:  concurrency,
		logger:       logger.Named("refresh-service"),
	}
}

var _ RefreshService = (*refreshService)(nil)

func (s *refreshService) RefreshKeywords(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	return s.run(ctx, locationID, categoryID, keywordIDs, enforceEligibility)
}

func (s *refreshService) RefreshKeyword(ctx context.Context, locationID, categoryID, keywordID int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	return s.run(ctx, locationID, categoryID, []int64{keywordID}, enforceEligibility)
}

func (s *refreshService) RefreshEligible(ctx context.Context, locationID, categoryID int64) (*models.RefreshSummary, error) {
	// nil ids selects the whole scope; ineligible keywords count as skipped.
	return s.run(ctx, locationID, categoryID, nil, false)
}

func (s *refreshService) RefreshAllEligible(ctx context.Context) (*models.RefreshSummary, error) {
	scopes, err := s.keywordRepo.ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keyword scopes: %w", err)
	}

	total := &models.RefreshSummary{BatchID: uuid.New()}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, scope := range scopes {
		g.Go(func() error {
			summary, err := s.RefreshEligible(gCtx, scope.LocationID, scope.CategoryID)
			if err != nil {
				// Scopes are independent; a failed one is logged and the
				// rest keep going.
				s.logger.Warn("Scope refresh failed",
					zap.Int64("category_id", scope.CategoryID),
					zap.Int64("location_id", scope.LocationID),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			total.Add(*summary)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("Bulk refresh complete",
		zap.String("batch_id", total.BatchID.String()),
		zap.Int("scopes", len(scopes)),
		zap.Int("requested", total.Requested),
		zap.Int("refreshed", total.Refreshed),
		zap.Int("skipped", total.Skipped),
		zap.Int("errored", total.Errored))
	return total, nil
}

// run executes one refresh call as a single transaction. A nil keywordIDs
// selects every keyword in the scope.
func (s *refreshService) run(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	summary := &models.RefreshSummary{BatchID: uuid.New()}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.refreshScope(ctx, locationID, categoryID, keywordIDs, enforceEligibility, summary)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordRefreshSummary(*summary)
	s.logger.Info("Refresh complete",
		zap.String("batch_id", summary.BatchID.String()),
		zap.Int64("category_id", categoryID),
		zap.Int64("location_id", locationID),
		zap.Int("requested", summary.Requested),
		zap.Int("refreshed", summary.Refreshed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errored", summary.Errored))
	return summary, nil
}

func (s *refreshService) refreshScope(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool, summary *models.RefreshSummary) error {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return fmt.Errorf("get location %d: %w", locationID, err)
	}

	policy, err := s.settings.Policy(ctx)
	if err != nil {
		return err
	}

	keywords, err := s.keywordRepo.GetByScope(ctx, categoryID, locationID)
	if err != nil {
		return fmt.Errorf("get keywords: %w", err)
	}

	candidates, err := selectCandidates(keywords, keywordIDs)
	if err != nil {
		return err
	}
	summary.Requested = len(candidates)

	now := time.Now().UTC()
	var batch []*models.Keyword
	for _, k := range candidates {
		if policy.Eligible(k, now) {
			batch = append(batch, k)
			continue
		}
		if enforceEligibility {
			return fmt.Errorf("keyword %d: %w", k.ID, apperrors.ErrCooldownActive)
		}
		summary.Skipped++
	}
	if len(batch) == 0 {
		return nil
	}

	// One batch request over the distinct normalized texts.
	textOf := make(map[int64]string, len(batch))
	seen := make(map[string]bool, len(batch))
	var texts []string
	for _, k := range batch {
		norm := normalizeText(k.Text)
		textOf[k.ID] = norm
		if !seen[norm] {
			seen[norm] = true
			texts = append(texts, norm)
		}
	}

	req := &searchvolume.BatchRequest{
		Keywords:       texts,
		Location:       location.Name,
		Language:       s.targeting.Language,
		SearchPartners: s.targeting.SearchPartners,
	}

	start := time.Now()
	result, fetchErr := s.client.FetchVolumes(ctx, req)
	if fetchErr != nil {
		metrics.ObserveProviderRequest(time.Since(start), "error")
		svErr := searchvolume.ClassifyError(fetchErr)
		s.logger.Warn("Batch volume fetch failed",
			zap.String("batch_id", summary.BatchID.String()),
			zap.String("error_type", string(svErr.Type)),
			zap.Int("status_code", svErr.StatusCode),
			zap.String("error", logging.SanitizeError(fetchErr)))

		// The whole batch is marked errored; no series data is consumed.
		for _, k := range batch {
			s.markNoData(k, models.NoDataReasonAPIError, now, svErr.StatusCode, logging.SanitizeError(fetchErr))
			if err := s.keywordRepo.UpdateVolumeData(ctx, k); err != nil {
				return err
			}
			summary.Errored++
		}
		return reconvergeScope(ctx, s.keywordRepo, categoryID, locationID)
	}
	metrics.ObserveProviderRequest(time.Since(start), "ok")

	for _, k := range batch {
		if err := s.applyResult(ctx, k, result, textOf[k.ID], req, now, summary); err != nil {
			return err
		}
	}

	// Classification converges last, inside the same transaction.
	return reconvergeScope(ctx, s.keywordRepo, categoryID, locationID)
}

// selectCandidates resolves the requested ids against the loaded scope, or
// the whole scope when ids is nil. An id outside the scope fails the call.
func selectCandidates(keywords []*models.Keyword, keywordIDs []int64) ([]*models.Keyword, error) {
	if keywordIDs == nil {
		return keywords, nil
	}

	byID := make(map[int64]*models.Keyword, len(keywords))
	for _, k := range keywords {
		byID[k.ID] = k
	}

	candidates := make([]*models.Keyword, 0, len(keywordIDs))
	for _, id := range keywordIDs {
		k, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("keyword %d: %w", id, apperrors.ErrNotFound)
		}
		candidates = append(candidates, k)
	}
	return candidates, nil
}

// applyResult maps one keyword's slice of the batch response onto its row.
func (s *refreshService) applyResult(ctx context.Context, k *models.Keyword, result *searchvolume.BatchResult, normText string, req *searchvolume.BatchRequest, now time.Time, summary *models.RefreshSummary) error {
	res, ok := result.Results[normText]
	switch {
	case !ok:
		// The provider never mentioned this keyword.
		s.markNoData(k, models.NoDataReasonUnknown, now, result.StatusCode, "keyword absent from provider response")
		summary.Errored++

	case res.Err != nil:
		s.markNoData(k, models.NoDataReasonAPIError, now, res.Err.StatusCode, logging.SanitizeStatusMessage(res.Err.StatusMessage))
		summary.Errored++

	case res.Data.Volume == nil:
		// The provider answered: demand exists but sits below its reporting
		// threshold. That is a successful refresh with nothing to keep.
		s.markNoData(k, models.NoDataReasonBelowThreshold, now, result.StatusCode, "")
		k.LastSucceededAt = &now
		k.AvgMonthlyVolume = nil
		k.CPC = nil
		k.Competition = nil
		k.CompetitionIndex = nil
		k.BidLow = nil
		k.BidHigh = nil
		k.MonthlyVolumes = nil
		if err := s.keywordRepo.DeleteMonthlySeries(ctx, k.ID); err != nil {
			return err
		}
		summary.Refreshed++

	default:
		points := seriesWindow(k.ID, res.Data.MonthlySeries)
		fp := fingerprint.Compute(
			fallback(res.Data.ReportedLocation, req.Location),
			fallback(res.Data.ReportedLanguage, req.Language),
			fallbackBool(res.Data.ReportedPartners, req.SearchPartners),
			points,
		)

		statusCode := result.StatusCode
		k.Fingerprint = &fp
		k.NoData = false
		k.NoDataReason = ""
		k.AvgMonthlyVolume = res.Data.Volume
		k.CPC = res.Data.CPC
		k.Competition = res.Data.CompetitionLabel
		k.CompetitionIndex = res.Data.CompetitionIndex
		k.BidLow = res.Data.BidLow
		k.BidHigh = res.Data.BidHigh
		k.LastAttemptedAt = &now
		k.LastSucceededAt = &now
		k.LastStatusCode = &statusCode
		k.LastStatusMessage = nil
		k.MonthlyVolumes = points
		if err := s.keywordRepo.ReplaceMonthlySeries(ctx, k.ID, points); err != nil {
			return err
		}
		summary.Refreshed++
	}

	return s.keywordRepo.UpdateVolumeData(ctx, k)
}

// markNoData flips a keyword into the no-data state. The fingerprint is
// always dropped: a NoData keyword never participates in synonym grouping.
// ApiError and Unknown keep any stale series points in place; only
// BelowThreshold deletes them (handled by the caller).
func (s *refreshService) markNoData(k *models.Keyword, reason models.NoDataReason, now time.Time, statusCode int, statusMessage string) {
	k.NoData = true
	k.NoDataReason = reason
	k.Fingerprint = nil
	k.LastAttemptedAt = &now
	if statusCode != 0 {
		k.LastStatusCode = &statusCode
	} else {
		k.LastStatusCode = nil
	}
	if statusMessage != "" {
		k.LastStatusMessage = &statusMessage
	} else {
		k.LastStatusMessage = nil
	}
}

// seriesWindow converts the provider series into model points, ascending by
// (Year, Month), trimmed to the most recent rolling window.
func seriesWindow(keywordID int64, series []searchvolume.MonthlyVolume) []models.MonthlyVolumePoint {
	points := make([]models.MonthlyVolumePoint, 0, len(series))
	for _, m := range series {
		points = append(points, models.MonthlyVolumePoint{
			KeywordID: keywordID,
			Year:      m.Year,
			Month:     m.Month,
			Volume:    m.Volume,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	if len(points) > seriesWindowMonths {
		points = points[len(points)-seriesWindowMonths:]
	}
	return points
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func fallbackBool(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
