package handlers

import (
	"context"

	"github.com/localpulse/localpulse-engine/pkg/models"
)

// Service mocks with per-method override funcs. Nil funcs return zero
// values.

type mockKeyphraseService struct {
	GetKeyphrasesFunc func(ctx context.Context, locationID, categoryID int64) (*models.KeyphraseReport, error)
}

func (m *mockKeyphraseService) GetKeyphrases(ctx context.Context, locationID, categoryID int64) (*models.KeyphraseReport, error) {
	if m.GetKeyphrasesFunc != nil {
		return m.GetKeyphrasesFunc(ctx, locationID, categoryID)
	}
	return &models.KeyphraseReport{}, nil
}

type mockKeywordService struct {
	AddKeywordFunc        func(ctx context.Context, locationID, categoryID int64, text string, keywordType models.KeywordType) (*models.Keyword, error)
	PromoteToMainTermFunc func(ctx context.Context, locationID, categoryID, keywordID int64) (*models.Keyword, error)
	RetypeKeywordFunc     func(ctx context.Context, locationID, categoryID, keywordID int64, newType models.KeywordType) (*models.Keyword, error)
	DeleteKeywordFunc     func(ctx context.Context, locationID, categoryID, keywordID int64) error
}

func (m *mockKeywordService) AddKeyword(ctx context.Context, locationID, categoryID int64, text string, keywordType models.KeywordType) (*models.Keyword, error) {
	if m.AddKeywordFunc != nil {
		return m.AddKeywordFunc(ctx, locationID, categoryID, text, keywordType)
	}
	return &models.Keyword{Text: text, Type: keywordType}, nil
}

func (m *mockKeywordService) PromoteToMainTerm(ctx context.Context, locationID, categoryID, keywordID int64) (*models.Keyword, error) {
	if m.PromoteToMainTermFunc != nil {
		return m.PromoteToMainTermFunc(ctx, locationID, categoryID, keywordID)
	}
	return &models.Keyword{ID: keywordID, Type: models.KeywordTypeMainTerm}, nil
}

func (m *mockKeywordService) RetypeKeyword(ctx context.Context, locationID, categoryID, keywordID int64, newType models.KeywordType) (*models.Keyword, error) {
	if m.RetypeKeywordFunc != nil {
		return m.RetypeKeywordFunc(ctx, locationID, categoryID, keywordID, newType)
	}
	return &models.Keyword{ID: keywordID, Type: newType}, nil
}

func (m *mockKeywordService) DeleteKeyword(ctx context.Context, locationID, categoryID, keywordID int64) error {
	if m.DeleteKeywordFunc != nil {
		return m.DeleteKeywordFunc(ctx, locationID, categoryID, keywordID)
	}
	return nil
}

type mockRefreshService struct {
	RefreshKeywordsFunc    func(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool) (*models.RefreshSummary, error)
	RefreshKeywordFunc     func(ctx context.Context, locationID, categoryID, keywordID int64, enforceEligibility bool) (*models.RefreshSummary, error)
	RefreshEligibleFunc    func(ctx context.Context, locationID, categoryID int64) (*models.RefreshSummary, error)
	RefreshAllEligibleFunc func(ctx context.Context) (*models.RefreshSummary, error)
}

func (m *mockRefreshService) RefreshKeywords(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	if m.RefreshKeywordsFunc != nil {
		return m.RefreshKeywordsFunc(ctx, locationID, categoryID, keywordIDs, enforceEligibility)
	}
	return &models.RefreshSummary{}, nil
}

func (m *mockRefreshService) RefreshKeyword(ctx context.Context, locationID, categoryID, keywordID int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	if m.RefreshKeywordFunc != nil {
		return m.RefreshKeywordFunc(ctx, locationID, categoryID, keywordID, enforceEligibility)
	}
	return &models.RefreshSummary{}, nil
}

func (m *mockRefreshService) RefreshEligible(ctx context.Context, locationID, categoryID int64) (*models.RefreshSummary, error) {
	if m.RefreshEligibleFunc != nil {
		return m.RefreshEligibleFunc(ctx, locationID, categoryID)
	}
	return &models.RefreshSummary{}, nil
}

func (m *mockRefreshService) RefreshAllEligible(ctx context.Context) (*models.RefreshSummary, error) {
	if m.RefreshAllEligibleFunc != nil {
		return m.RefreshAllEligibleFunc(ctx)
	}
	return &models.RefreshSummary{}, nil
}

type mockSettingsService struct {
	GetFunc    func(ctx context.Context) (*models.EngineSettings, error)
	UpdateFunc func(ctx context.Context, cooldownDays int) (*models.EngineSettings, error)
	PolicyFunc func(ctx context.Context) (models.RefreshPolicy, error)
}

func (m *mockSettingsService) Get(ctx context.Context) (*models.EngineSettings, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return &models.EngineSettings{}, nil
}

func (m *mockSettingsService) Update(ctx context.Context, cooldownDays int) (*models.EngineSettings, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, cooldownDays)
	}
	return &models.EngineSettings{RefreshCooldownDays: cooldownDays}, nil
}

func (m *mockSettingsService) Policy(ctx context.Context) (models.RefreshPolicy, error) {
	if m.PolicyFunc != nil {
		return m.PolicyFunc(ctx)
	}
	return models.RefreshPolicy{}, nil
}
