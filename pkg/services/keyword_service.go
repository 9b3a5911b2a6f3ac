package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
	"github.com/localpulse/localpulse-engine/pkg/models"
	"github.com/localpulse/localpulse-engine/pkg/repositories"
)

// KeywordService is the keyword lifecycle API. Every mutation validates,
// writes, and re-converges the scope's classification inside one
// transaction.
type KeywordService interface {
	// AddKeyword creates a keyword after validating text, type, the
	// location-containment rule and (for a main term) the canonical phrase.
	// On success it immediately attempts a single-keyword refresh; a refresh
	// failure is logged, not returned.
	AddKeyword(ctx context.Context, locationID, categoryID int64, text string, keywordType models.KeywordType) (*models.Keyword, error)

	// PromoteToMainTerm makes the keyword its scope's main term, demoting
	// the previous one to modifier. The keyword's text must match the
	// canonical phrase for the scope.
	PromoteToMainTerm(ctx context.Context, locationID, categoryID, keywordID int64) (*models.Keyword, error)

	// RetypeKeyword switches a keyword between modifier and adjacent. The
	// current main term cannot be retyped, and synonym is resolver-only.
	RetypeKeyword(ctx context.Context, locationID, categoryID, keywordID int64, newType models.KeywordType) (*models.Keyword, error)

	// DeleteKeyword removes a keyword and re-converges the remaining scope.
	DeleteKeyword(ctx context.Context, locationID, categoryID, keywordID int64) error
}

type keywordService struct {
	tx           TxRunner
	keywordRepo  repositories.KeywordRepository
	categoryRepo repositories.CategoryRepository
	locationRepo repositories.LocationRepository
	refreshSvc   RefreshService
	logger       *zap.Logger
}

// NewKeywordService creates a new KeywordService.
func NewKeywordService(
	tx TxRunner,
	keywordRepo repositories.KeywordRepository,
	categoryRepo repositories.CategoryRepository,
	locationRepo repositories.LocationRepository,
	refreshSvc RefreshService,
	logger *zap.Logger,
) KeywordService {
	return &keywordService{
		tx:           tx,
		keywordRepo:  keywordRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
		refreshSvc:   refreshSvc,
		logger:       logger.Named("keyword-service"),
	}
}

var _ KeywordService = (*keywordService)(nil)

func (s *keywordService) AddKeyword(ctx context.Context, locationID, categoryID int64, text string, keywordType models.KeywordType) (*models.Keyword, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("keyword text is required")
	}
	if !models.IsUserAssignableKeywordType(keywordType) {
		return nil, apperrors.NewValidationError("keyword type %q cannot be assigned directly", keywordType)
	}

	var created *models.Keyword
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		category, location, err := s.lookupScope(ctx, locationID, categoryID)
		if err != nil {
			return err
		}

		norm := normalizeText(trimmed)
		if !containsWholeToken(norm, normalizeText(location.Name)) {
			return apperrors.NewValidationError("keyword %q must contain the location name %q", trimmed, location.Name)
		}

		if keywordType == models.KeywordTypeMainTerm {
			expected := canonicalPhrase(category.DisplayName, location.Name)
			if norm != expected {
				return apperrors.NewValidationError("main term must be %q", expected)
			}
			hasMain, err := s.keywordRepo.HasMainTerm(ctx, categoryID, locationID)
			if err != nil {
				return err
			}
			if hasMain {
				return fmt.Errorf("add main term: %w", apperrors.ErrMainTermExists)
			}
		}

		keyword := &models.Keyword{
			CategoryID: categoryID,
			LocationID: locationID,
			Text:       trimmed,
			Type:       keywordType,
		}
		if err := s.keywordRepo.Create(ctx, keyword); err != nil {
			return err
		}
		created = keyword

		return reconvergeScope(ctx, s.keywordRepo, categoryID, locationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added keyword",
		zap.Int64("keyword_id", created.ID),
		zap.Int64("category_id", categoryID),
		zap.Int64("location_id", locationID),
		zap.String("text", created.Text),
		zap.String("type", string(created.Type)))

	// The new keyword has never been attempted, so the cooldown cannot gate
	// this refresh. Its failure leaves the keyword in place to retry later.
	if _, err := s.refreshSvc.RefreshKeyword(ctx, locationID, categoryID, created.ID, false); err != nil {
		s.logger.Warn("Post-add refresh failed",
			zap.Int64("keyword_id", created.ID),
			zap.Error(err))
	}

	fresh, err := s.keywordRepo.GetByID(ctx, created.ID)
	if err != nil {
		s.logger.Warn("Post-add reload failed, returning pre-refresh keyword",
			zap.Int64("keyword_id", created.ID),
			zap.Error(err))
		return created, nil
	}
	return fresh, nil
}

func (s *keywordService) PromoteToMainTerm(ctx context.Context, locationID, categoryID, keywordID int64) (*models.Keyword, error) {
	var promoted *models.Keyword
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		category, location, err := s.lookupScope(ctx, locationID, categoryID)
		if err != nil {
			return err
		}

		keyword, err := s.getScopedKeyword(ctx, keywordID, categoryID, locationID)
		if err != nil {
			return err
		}

		expected := canonicalPhrase(category.DisplayName, location.Name)
		if normalizeText(keyword.Text) != expected {
			return apperrors.NewValidationError("keyword %q cannot be the main term; expected %q", keyword.Text, expected)
		}

		if keyword.IsMainTerm() {
			promoted = keyword
			return nil
		}

		keywords, err := s.keywordRepo.GetByScope(ctx, categoryID, locationID)
		if err != nil {
			return fmt.Errorf("get keywords: %w", err)
		}

		// Demote first so the store's single-main-term guard never sees two.
		var changes []models.KeywordChange
		for _, k := range keywords {
			if k.IsMainTerm() {
				changes = append(changes, models.KeywordChange{KeywordID: k.ID, Type: models.KeywordTypeModifier})
			}
		}
		changes = append(changes, models.KeywordChange{KeywordID: keywordID, Type: models.KeywordTypeMainTerm})
		if err := s.keywordRepo.ApplyChanges(ctx, changes); err != nil {
			return err
		}

		if err := reconvergeScope(ctx, s.keywordRepo, categoryID, locationID); err != nil {
			return err
		}

		promoted, err = s.keywordRepo.GetByID(ctx, keywordID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Promoted keyword to main term",
		zap.Int64("keyword_id", keywordID),
		zap.Int64("category_id", categoryID),
		zap.Int64("location_id", locationID))
	return promoted, nil
}

func (s *keywordService) RetypeKeyword(ctx context.Context, locationID, categoryID, keywordID int64, newType models.KeywordType) (*models.Keyword, error) {
	if newType != models.KeywordTypeModifier && newType != models.KeywordTypeAdjacent {
		return nil, apperrors.NewValidationError("keywords can only be retyped to modifier or adjacent")
	}

	var retyped *models.Keyword
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		keyword, err := s.getScopedKeyword(ctx, keywordID, categoryID, locationID)
		if err != nil {
			return err
		}
		if keyword.IsMainTerm() {
			return apperrors.NewValidationError("the main term cannot be retyped; promote another keyword instead")
		}

		change := models.KeywordChange{KeywordID: keywordID, Type: newType}
		if err := s.keywordRepo.ApplyChanges(ctx, []models.KeywordChange{change}); err != nil {
			return err
		}

		if err := reconvergeScope(ctx, s.keywordRepo, categoryID, locationID); err != nil {
			return err
		}

		// The resolver may have immediately folded it back into a synonym
		// group; return what actually converged.
		retyped, err = s.keywordRepo.GetByID(ctx, keywordID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Retyped keyword",
		zap.Int64("keyword_id", keywordID),
		zap.String("type", string(retyped.Type)))
	return retyped, nil
}

func (s *keywordService) DeleteKeyword(ctx context.Context, locationID, categoryID, keywordID int64) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.getScopedKeyword(ctx, keywordID, categoryID, locationID); err != nil {
			return err
		}
		if err := s.keywordRepo.Delete(ctx, keywordID); err != nil {
			return err
		}
		// A deleted representative forces re-election among the remaining
		// fingerprint-matching members.
		return reconvergeScope(ctx, s.keywordRepo, categoryID, locationID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deleted keyword",
		zap.Int64("keyword_id", keywordID),
		zap.Int64("category_id", categoryID),
		zap.Int64("location_id", locationID))
	return nil
}

// lookupScope resolves the category and location, mapping unknown ids to
// validation rejections.
func (s *keywordService) lookupScope(ctx context.Context, locationID, categoryID int64) (*models.Category, *models.Location, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NewValidationError("category %d not found", categoryID)
		}
		return nil, nil, err
	}
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NewValidationError("location %d not found", locationID)
		}
		return nil, nil, err
	}
	return category, location, nil
}

// getScopedKeyword loads a keyword and verifies it belongs to the scope.
func (s *keywordService) getScopedKeyword(ctx context.Context, keywordID, categoryID, locationID int64) (*models.Keyword, error) {
	keyword, err := s.keywordRepo.GetByID(ctx, keywordID)
	if err != nil {
		return nil, err
	}
	if keyword.CategoryID != categoryID || keyword.LocationID != locationID {
		return nil, apperrors.ErrNotFound
	}
	return keyword, nil
}
