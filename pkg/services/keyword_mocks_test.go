package services

import (
	"context"
	"sort"
	"strings"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
	"github.com/localpulse/localpulse-engine/pkg/models"
)

// passTx satisfies TxRunner by running the function directly; unit tests
// exercise service logic without a store.
type passTx struct{}

func (passTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockKeywordRepo is an in-memory KeywordRepository. Override funcs inject
// failures per method.
type mockKeywordRepo struct {
	keywords map[int64]*models.Keyword
	nextID   int64

	appliedChanges [][]models.KeywordChange
	updateCalls    int

	createErr error
	getErr    error
	scopeErr  error
	applyErr  error
}

func newMockKeywordRepo() *mockKeywordRepo {
	return &mockKeywordRepo{
		keywords: make(map[int64]*models.Keyword),
		nextID:   1,
	}
}

// add seeds a keyword, assigning an id when none is set.
func (m *mockKeywordRepo) add(k *models.Keyword) *models.Keyword {
	if k.ID == 0 {
		k.ID = m.nextID
	}
	if k.ID >= m.nextID {
		m.nextID = k.ID + 1
	}
	m.keywords[k.ID] = k
	return k
}

func (m *mockKeywordRepo) Create(ctx context.Context, keyword *models.Keyword) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.keywords {
		if existing.CategoryID != keyword.CategoryID || existing.LocationID != keyword.LocationID {
			continue
		}
		if strings.EqualFold(existing.Text, keyword.Text) {
			return apperrors.ErrDuplicateKeyword
		}
		if keyword.Type == models.KeywordTypeMainTerm && existing.Type == models.KeywordTypeMainTerm {
			return apperrors.ErrMainTermExists
		}
	}
	keyword.ID = m.nextID
	m.nextID++
	m.keywords[keyword.ID] = keyword
	return nil
}

func (m *mockKeywordRepo) GetByID(ctx context.Context, id int64) (*models.Keyword, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	k, ok := m.keywords[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return k, nil
}

func (m *mockKeywordRepo) GetByScope(ctx context.Context, categoryID, locationID int64) ([]*models.Keyword, error) {
	if m.scopeErr != nil {
		return nil, m.scopeErr
	}
	var out []*models.Keyword
	for _, k := range m.keywords {
		if k.CategoryID == categoryID && k.LocationID == locationID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockKeywordRepo) HasMainTerm(ctx context.Context, categoryID, locationID int64) (bool, error) {
	for _, k := range m.keywords {
		if k.CategoryID == categoryID && k.LocationID == locationID && k.Type == models.KeywordTypeMainTerm {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockKeywordRepo) UpdateVolumeData(ctx context.Context, keyword *models.Keyword) error {
	if _, ok := m.keywords[keyword.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.updateCalls++
	m.keywords[keyword.ID] = keyword
	return nil
}

func (m *mockKeywordRepo) ReplaceMonthlySeries(ctx context.Context, keywordID int64, points []models.MonthlyVolumePoint) error {
	k, ok := m.keywords[keywordID]
	if !ok {
		return apperrors.ErrNotFound
	}
	k.MonthlyVolumes = points
	return nil
}

func (m *mockKeywordRepo) DeleteMonthlySeries(ctx context.Context, keywordID int64) error {
	k, ok := m.keywords[keywordID]
	if !ok {
		return apperrors.ErrNotFound
	}
	k.MonthlyVolumes = nil
	return nil
}

func (m *mockKeywordRepo) ApplyChanges(ctx context.Context, changes []models.KeywordChange) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.appliedChanges = append(m.appliedChanges, changes)
	for _, change := range changes {
		k, ok := m.keywords[change.KeywordID]
		if !ok {
			return apperrors.ErrNotFound
		}
		k.Type = change.Type
		k.CanonicalKeywordID = change.CanonicalKeywordID
	}
	return nil
}

func (m *mockKeywordRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.keywords[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.keywords, id)
	return nil
}

func (m *mockKeywordRepo) ListScopes(ctx context.Context) ([]models.KeywordScope, error) {
	seen := make(map[models.KeywordScope]bool)
	var scopes []models.KeywordScope
	for _, k := range m.keywords {
		s := models.KeywordScope{CategoryID: k.CategoryID, LocationID: k.LocationID}
		if !seen[s] {
			seen[s] = true
			scopes = append(scopes, s)
		}
	}
	sort.Slice(scopes, func(i, j int) bool {
		if scopes[i].CategoryID != scopes[j].CategoryID {
			return scopes[i].CategoryID < scopes[j].CategoryID
		}
		return scopes[i].LocationID < scopes[j].LocationID
	})
	return scopes, nil
}

type mockCategoryRepo struct {
	categories map[int64]*models.Category
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

type mockLocationRepo struct {
	locations map[int64]*models.Location
}

func (m *mockLocationRepo) GetByID(ctx context.Context, id int64) (*models.Location, error) {
	l, ok := m.locations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return l, nil
}

type mockSettingsRepo struct {
	settings models.EngineSettings
	getErr   error
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*models.EngineSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsRepo) Update(ctx context.Context, cooldownDays int) (*models.EngineSettings, error) {
	m.settings.RefreshCooldownDays = cooldownDays
	s := m.settings
	return &s, nil
}

// mockRefreshService records refresh requests made by the keyword service.
type mockRefreshService struct {
	summary      *models.RefreshSummary
	err          error
	refreshedIDs []int64
}

func (m *mockRefreshService) RefreshKeywords(ctx context.Context, locationID, categoryID int64, keywordIDs []int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	m.refreshedIDs = append(m.refreshedIDs, keywordIDs...)
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &models.RefreshSummary{Requested: len(keywordIDs), Refreshed: len(keywordIDs)}, nil
}

func (m *mockRefreshService) RefreshKeyword(ctx context.Context, locationID, categoryID, keywordID int64, enforceEligibility bool) (*models.RefreshSummary, error) {
	return m.RefreshKeywords(ctx, locationID, categoryID, []int64{keywordID}, enforceEligibility)
}

func (m *mockRefreshService) RefreshEligible(ctx context.Context, locationID, categoryID int64) (*models.RefreshSummary, error) {
	return m.RefreshKeywords(ctx, locationID, categoryID, nil, false)
}

func (m *mockRefreshService) RefreshAllEligible(ctx context.Context) (*models.RefreshSummary, error) {
	return m.RefreshKeywords(ctx, 0, 0, nil, false)
}
