package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/localpulse/localpulse-engine/pkg/models"
	"github.com/localpulse/localpulse-engine/pkg/repositories"
)

// SettingsService manages the engine settings singleton edited by the
// console's settings screen.
type SettingsService interface {
	// Get returns the current settings.
	Get(ctx context.Context) (*models.EngineSettings, error)

	// Update writes a new refresh cooldown, clamped into the allowed range.
	Update(ctx context.Context, cooldownDays int) (*models.EngineSettings, error)

	// Policy returns the refresh policy derived from the current settings.
	// Refresh and presentation code consumes the cooldown only through this
	// value object.
	Policy(ctx context.Context) (models.RefreshPolicy, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	logger       *zap.Logger
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(settingsRepo repositories.SettingsRepository, logger *zap.Logger) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		logger:       logger.Named("settings-service"),
	}
}

var _ SettingsService = (*settingsService)(nil)

func (s *settingsService) Get(ctx context.Context) (*models.EngineSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get engine settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, cooldownDays int) (*models.EngineSettings, error) {
	clamped := models.ClampCooldownDays(cooldownDays)
	if clamped != cooldownDays {
		s.logger.Warn("Clamped out-of-range cooldown",
			zap.Int("requested", cooldownDays),
			zap.Int("clamped", clamped))
	}

	settings, err := s.settingsRepo.Update(ctx, clamped)
	if err != nil {
		s.logger.Error("Failed to update engine settings", zap.Error(err))
		return nil, fmt.Errorf("update engine settings: %w", err)
	}

	s.logger.Info("Updated engine settings",
		zap.Int("refresh_cooldown_days", settings.RefreshCooldownDays))
	return settings, nil
}

func (s *settingsService) Policy(ctx context.Context) (models.RefreshPolicy, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return models.RefreshPolicy{}, fmt.Errorf("load refresh policy: %w", err)
	}
	return models.NewRefreshPolicy(settings.RefreshCooldownDays), nil
}
