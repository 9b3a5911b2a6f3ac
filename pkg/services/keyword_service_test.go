package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
	"github.com/localpulse/localpulse-engine/pkg/models"
)

type keywordFixture struct {
	repo    *mockKeywordRepo
	refresh *mockRefreshService
	service KeywordService
}

func newKeywordFixture(t *testing.T) *keywordFixture {
	t.Helper()
	repo := newMockKeywordRepo()
	refresh := &mockRefreshService{}
	categories := &mockCategoryRepo{categories: map[int64]*models.Category{
		testCategoryID: {ID: testCategoryID, Name: "plumber", DisplayName: "Plumbers"},
	}}
	locations := &mockLocationRepo{locations: map[int64]*models.Location{
		testLocationID: {ID: testLocationID, Name: "Bristol"},
	}}
	service := NewKeywordService(passTx{}, repo, categories, locations, refresh, zap.NewNop())
	return &keywordFixture{repo: repo, refresh: refresh, service: service}
}

func TestAddKeyword_Validation(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind models.KeywordType
	}{
		{"empty text", "   ", models.KeywordTypeModifier},
		{"synonym is resolver-only", "plumbers bristol", models.KeywordTypeSynonym},
		{"missing location name", "emergency plumbers", models.KeywordTypeModifier},
		{"location only as prefix", "plumbers bristols", models.KeywordTypeModifier},
		{"main term with extra words", "Best Plumbers Bristol", models.KeywordTypeMainTerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newKeywordFixture(t)

			_, err := f.service.AddKeyword(context.Background(), testLocationID, testCategoryID, tt.text, tt.kind)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "want validation error, got %v", err)
			assert.Empty(t, f.repo.keywords, "no keyword persisted on rejection")
			assert.Zero(t, len(f.refresh.refreshedIDs), "no refresh attempted on rejection")
		})
	}
}

func TestAddKeyword_WholeTokenLocationMatch(t *testing.T) {
	repo := newMockKeywordRepo()
	refresh := &mockRefreshService{}
	categories := &mockCategoryRepo{categories: map[int64]*models.Category{
		testCategoryID: {ID: testCategoryID, DisplayName: "Plumbers"},
	}}
	locations := &mockLocationRepo{locations: map[int64]*models.Location{
		testLocationID: {ID: testLocationID, Name: "Ham"},
	}}
	service := NewKeywordService(passTx{}, repo, categories, locations, refresh, zap.NewNop())

	_, err := service.AddKeyword(context.Background(), testLocationID, testCategoryID, "plumbers birmingham", models.KeywordTypeModifier)
	require.Error(t, err, "ham inside birmingham is not a location match")
	assert.True(t, apperrors.IsValidation(err))

	created, err := service.AddKeyword(context.Background(), testLocationID, testCategoryID, "plumbers ham", models.KeywordTypeModifier)
	require.NoError(t, err)
	assert.Equal(t, "plumbers ham", created.Text)
}

func TestAddKeyword_UnknownScope(t *testing.T) {
	f := newKeywordFixture(t)

	_, err := f.service.AddKeyword(context.Background(), testLocationID, 999, "plumbers bristol", models.KeywordTypeModifier)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err), "unknown category is a validation rejection")

	_, err = f.service.AddKeyword(context.Background(), 999, testCategoryID, "plumbers bristol", models.KeywordTypeModifier)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err), "unknown location is a validation rejection")
}

func TestAddKeyword_Duplicate(t *testing.T) {
	f := newKeywordFixture(t)
	f.repo.add(scopedKeyword("emergency plumber bristol", models.KeywordTypeModifier))

	_, err := f.service.AddKeyword(context.Background(), testLocationID, testCategoryID, "Emergency Plumber Bristol", models.KeywordTypeModifier)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKeyword)
}

func TestAddKeyword_MainTerm(t *testing.T) {
	f := newKeywordFixture(t)

	created, err := f.service.AddKeyword(context.Background(), testLocationID, testCategoryID, "Plumbers Bristol", models.KeywordTypeMainTerm)
	require.NoError(t, err)
	assert.Equal(t, models.KeywordTypeMainTerm, created.Type)
	assert.Equal(t, "Plumbers Bristol", created.Text)

	// A second main term is a conflict even when the text differs only in
	// whitespace.
	_, err = f.service.AddKeyword(context.Background(), testLocationID, testCategoryID, "plumbers  bristol", models.KeywordTypeMainTerm)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMainTermExists)
}

func TestAddKeyword_TriggersImmediateRefresh(t *testing.T) {
	f := newKeywordFixture(t)

	created, err := f.service.AddKeyword(context.Background(), testLocationID, testCategoryID, "boiler repair bristol", models.KeywordTypeModifier)
	require.NoError(t, err)
	assert.Equal(t, []int64{created.ID}, f.refresh.refreshedIDs)
}

func TestAddKeyword_RefreshFailureDoesNotFailAdd(t *testing.T) {
	f := newKeywordFixture(t)
	f.refresh.err = apperrors.ErrNotFound

	created, err := f.service.AddKeyword(context.Background(), testLocationID, testCategoryID, "boiler repair bristol", models.KeywordTypeModifier)
	require.NoError(t, err, "a failed post-add refresh must not undo the add")
	assert.Contains(t, f.repo.keywords, created.ID)
}

func TestAddKeyword_ReloadFailureLogsAndReturnsCreated(t *testing.T) {
	repo := newMockKeywordRepo()
	refresh := &mockRefreshService{}
	categories := &mockCategoryRepo{categories: map[int64]*models.Category{
		testCategoryID: {ID: testCategoryID, DisplayName: "Plumbers"},
	}}
	locations := &mockLocationRepo{locations: map[int64]*models.Location{
		testLocationID: {ID: testLocationID, Name: "Bristol"},
	}}
	core, logs := observer.New(zap.WarnLevel)
	service := NewKeywordService(passTx{}, repo, categories, locations, refresh, zap.New(core))

	repo.getErr = apperrors.ErrNotFound
	created, err := service.AddKeyword(context.Background(), testLocationID, testCategoryID, "plumbers bristol", models.KeywordTypeModifier)
	require.NoError(t, err, "a failed post-refresh reload must not undo the add")
	require.NotNil(t, created)
	assert.Equal(t, "plumbers bristol", created.Text)

	entries := logs.FilterMessage("Post-add reload failed").All()
	require.Len(t, entries, 1, "the reload failure is logged, not swallowed")
	assert.Equal(t, created.ID, entries[0].ContextMap()["keyword_id"])
}

func TestPromoteToMainTerm(t *testing.T) {
	f := newKeywordFixture(t)
	old := f.repo.add(scopedKeyword("plumbers bristol", models.KeywordTypeMainTerm))
	candidate := f.repo.add(scopedKeyword("Plumbers Bristol", models.KeywordTypeModifier))
	// Distinct fingerprints keep the resolver from regrouping during the test.
	fpA, fpB := "fp-a", "fp-b"
	old.Fingerprint = &fpA
	candidate.Fingerprint = &fpB

	promoted, err := f.service.PromoteToMainTerm(context.Background(), testLocationID, testCategoryID, candidate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KeywordTypeMainTerm, promoted.Type)
	assert.Equal(t, models.KeywordTypeModifier, f.repo.keywords[old.ID].Type, "previous main term demoted")
}

func TestPromoteToMainTerm_RejectsNonCanonicalPhrase(t *testing.T) {
	f := newKeywordFixture(t)
	k := f.repo.add(scopedKeyword("emergency plumber bristol", models.KeywordTypeModifier))

	_, err := f.service.PromoteToMainTerm(context.Background(), testLocationID, testCategoryID, k.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPromoteToMainTerm_AlreadyMainIsIdempotent(t *testing.T) {
	f := newKeywordFixture(t)
	k := f.repo.add(scopedKeyword("plumbers bristol", models.KeywordTypeMainTerm))

	promoted, err := f.service.PromoteToMainTerm(context.Background(), testLocationID, testCategoryID, k.ID)
	require.NoError(t, err)
	assert.Equal(t, k.ID, promoted.ID)
	assert.Empty(t, f.repo.appliedChanges, "no writes when the keyword is already the main term")
}

func TestPromoteToMainTerm_WrongScope(t *testing.T) {
	f := newKeywordFixture(t)
	other := scopedKeyword("plumbers bristol", models.KeywordTypeModifier)
	other.LocationID = 99
	f.repo.add(other)

	_, err := f.service.PromoteToMainTerm(context.Background(), testLocationID, testCategoryID, other.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRetypeKeyword(t *testing.T) {
	f := newKeywordFixture(t)
	k := f.repo.add(scopedKeyword("plumbing quotes bristol", models.KeywordTypeModifier))

	retyped, err := f.service.RetypeKeyword(context.Background(), testLocationID, testCategoryID, k.ID, models.KeywordTypeAdjacent)
	require.NoError(t, err)
	assert.Equal(t, models.KeywordTypeAdjacent, retyped.Type)
}

func TestRetypeKeyword_RejectsInvalidTargets(t *testing.T) {
	f := newKeywordFixture(t)
	k := f.repo.add(scopedKeyword("plumbing quotes bristol", models.KeywordTypeModifier))

	for _, target := range []models.KeywordType{models.KeywordTypeMainTerm, models.KeywordTypeSynonym} {
		_, err := f.service.RetypeKeyword(context.Background(), testLocationID, testCategoryID, k.ID, target)
		require.Error(t, err, "retype to %s must be rejected", target)
		assert.True(t, apperrors.IsValidation(err))
	}
}

func TestRetypeKeyword_RejectsMainTermSource(t *testing.T) {
	f := newKeywordFixture(t)
	k := f.repo.add(scopedKeyword("plumbers bristol", models.KeywordTypeMainTerm))

	_, err := f.service.RetypeKeyword(context.Background(), testLocationID, testCategoryID, k.ID, models.KeywordTypeAdjacent)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, models.KeywordTypeMainTerm, f.repo.keywords[k.ID].Type)
}

func TestDeleteKeyword_ReelectsRepresentative(t *testing.T) {
	f := newKeywordFixture(t)
	fp := "fp-shared"
	rep := scopedKeyword("plumbers near me bristol", models.KeywordTypeModifier)
	rep.Fingerprint = &fp
	f.repo.add(rep)
	syn := scopedKeyword("emergency plumber bristol", models.KeywordTypeSynonym)
	syn.Fingerprint = &fp
	syn.CanonicalKeywordID = &rep.ID
	f.repo.add(syn)

	err := f.service.DeleteKeyword(context.Background(), testLocationID, testCategoryID, rep.ID)
	require.NoError(t, err)

	assert.NotContains(t, f.repo.keywords, rep.ID)
	got := f.repo.keywords[syn.ID]
	assert.NotEqual(t, models.KeywordTypeSynonym, got.Type, "orphaned synonym re-elected")
	assert.Nil(t, got.CanonicalKeywordID)
}

func TestDeleteKeyword_WrongScope(t *testing.T) {
	f := newKeywordFixture(t)
	other := scopedKeyword("plumbers bristol", models.KeywordTypeModifier)
	other.CategoryID = 99
	f.repo.add(other)

	err := f.service.DeleteKeyword(context.Background(), testLocationID, testCategoryID, other.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, f.repo.keywords, other.ID)
}
