package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
	"github.com/localpulse/localpulse-engine/pkg/database"
	"github.com/localpulse/localpulse-engine/pkg/models"
)

// SettingsRepository provides data access for the engine settings singleton
// row seeded by migration.
type SettingsRepository interface {
	// Get retrieves the settings row.
	Get(ctx context.Context) (*models.EngineSettings, error)

	// Update writes a new cooldown value and returns the updated row.
	Update(ctx context.Context, cooldownDays int) (*models.EngineSettings, error)
}

type settingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(db *database.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

var _ SettingsRepository = (*settingsRepository)(nil)

func (r *settingsRepository) Get(ctx context.Context) (*models.EngineSettings, error) {
	q := r.db.QuerierFrom(ctx)

	query := `SELECT refresh_cooldown_days, updated_at FROM engine_settings WHERE id = 1`

	var s models.EngineSettings
	err := q.QueryRow(ctx, query).Scan(&s.RefreshCooldownDays, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get engine settings: %w", err)
	}

	return &s, nil
}

func (r *settingsRepository) Update(ctx context.Context, cooldownDays int) (*models.EngineSettings, error) {
	q := r.db.QuerierFrom(ctx)

	query := `
		UPDATE engine_settings
		SET refresh_cooldown_days = $1, updated_at = now()
		WHERE id = 1
		RETURNING refresh_cooldown_days, updated_at`

	var s models.EngineSettings
	err := q.QueryRow(ctx, query, cooldownDays).Scan(&s.RefreshCooldownDays, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update engine settings: %w", err)
	}

	return &s, nil
}
