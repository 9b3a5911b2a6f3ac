package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/models"
	"github.com/localpulse/localpulse-engine/pkg/repositories"
)

// Weights applied when blending per-keyword monthly series into the
// scope-wide demand curve. Synonyms and NoData keywords are excluded
// entirely so a synonym is never double-counted alongside its
// representative.
const (
	mainTermWeight = 1.0
	modifierWeight = 0.7
)

// demandWindowMonths is how many of the most recent calendar months the
// weighted demand curve spans.
const demandWindowMonths = 12

// KeyphraseService builds the sorted, annotated keyword view consumed by
// reports and the console's keyword screens.
type KeyphraseService interface {
	// GetKeyphrases returns every keyword in the scope with its metrics,
	// synonym-of display text, refresh eligibility and series, plus the
	// scope-wide weighted monthly demand curve.
	GetKeyphrases(ctx context.Context, locationID, categoryID int64) (*models.KeyphraseReport, error)
}

type keyphraseService struct {
	keywordRepo  repositories.KeywordRepository
	categoryRepo repositories.CategoryRepository
	locationRepo repositories.LocationRepository
	settings     SettingsService
	logger       *zap.Logger
}

// NewKeyphraseService creates a new KeyphraseService.
func NewKeyphraseService(
	keywordRepo repositories.KeywordRepository,
	categoryRepo repositories.CategoryRepository,
	locationRepo repositories.LocationRepository,
	settings SettingsService,
	logger *zap.Logger,
) KeyphraseService {
	return &keyphraseService{
		keywordRepo:  keywordRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
		settings:     settings,
		logger:       logger.Named("keyphrase-service"),
	}
}

var _ KeyphraseService = (*keyphraseService)(nil)

func (s *keyphraseService) GetKeyphrases(ctx context.Context, locationID, categoryID int64) (*models.KeyphraseReport, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", categoryID, err)
	}

	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("get location %d: %w", locationID, err)
	}

	keywords, err := s.keywordRepo.GetByScope(ctx, categoryID, locationID)
	if err != nil {
		return nil, fmt.Errorf("get keywords: %w", err)
	}

	policy, err := s.settings.Policy(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	byID := make(map[int64]*models.Keyword, len(keywords))
	for _, k := range keywords {
		byID[k.ID] = k
	}

	keyphrases := make([]models.Keyphrase, 0, len(keywords))
	for _, k := range keywords {
		row := models.Keyphrase{
			Keyword:         *k,
			RefreshEligible: policy.Eligible(k, now),
			LatestVolume:    k.LatestVolume(),
		}
		if k.IsSynonym() && k.CanonicalKeywordID != nil {
			if canonical, ok := byID[*k.CanonicalKeywordID]; ok {
				row.SynonymOf = canonical.Text
			}
		}
		keyphrases = append(keyphrases, row)
	}

	sortKeyphrases(keyphrases)

	return &models.KeyphraseReport{
		CategoryID:   category.ID,
		CategoryName: category.DisplayName,
		LocationID:   location.ID,
		LocationName: location.Name,
		Keyphrases:   keyphrases,
		Demand:       weightedMonthlyDemand(keywords),
	}, nil
}

// sortKeyphrases orders rows for presentation: the main term first, then
// keywords holding usable data before those without, then by the most recent
// month's volume descending, then alphabetically.
func sortKeyphrases(rows []models.Keyphrase) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.Keyword.IsMainTerm() != b.Keyword.IsMainTerm() {
			return a.Keyword.IsMainTerm()
		}
		if a.Keyword.HasVolumeData() != b.Keyword.HasVolumeData() {
			return a.Keyword.HasVolumeData()
		}
		if a.LatestVolume != b.LatestVolume {
			return a.LatestVolume > b.LatestVolume
		}
		return a.Keyword.Text < b.Keyword.Text
	})
}

// demandWeight returns a keyword's contribution factor to the blended
// monthly curve.
func demandWeight(k *models.Keyword) float64 {
	if k.NoData {
		return 0
	}
	switch k.Type {
	case models.KeywordTypeMainTerm:
		return mainTermWeight
	case models.KeywordTypeModifier, models.KeywordTypeAdjacent:
		return modifierWeight
	default:
		return 0
	}
}

type yearMonth struct {
	year  int
	month int
}

// weightedMonthlyDemand blends the contributing keywords' series into one
// curve over the most recent twelve calendar months present in the scope,
// ascending, each total rounded to two decimal places away from zero.
func weightedMonthlyDemand(keywords []*models.Keyword) []models.MonthlyDemand {
	totals := make(map[yearMonth]float64)
	for _, k := range keywords {
		weight := demandWeight(k)
		if weight == 0 {
			continue
		}
		for _, p := range k.MonthlyVolumes {
			totals[yearMonth{p.Year, p.Month}] += float64(p.Volume) * weight
		}
	}
	if len(totals) == 0 {
		return nil
	}

	months := make([]yearMonth, 0, len(totals))
	for ym := range totals {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].year != months[j].year {
			return months[i].year < months[j].year
		}
		return months[i].month < months[j].month
	})
	if len(months) > demandWindowMonths {
		months = months[len(months)-demandWindowMonths:]
	}

	demand := make([]models.MonthlyDemand, 0, len(months))
	for _, ym := range months {
		demand = append(demand, models.MonthlyDemand{
			Year:  ym.year,
			Month: ym.month,
			Total: roundAwayFromZero(totals[ym]),
		})
	}
	return demand
}

// roundAwayFromZero rounds to two decimal places, halves away from zero.
func roundAwayFromZero(v float64) float64 {
	return math.Round(v*100) / 100
}
