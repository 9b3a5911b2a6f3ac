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

// LocationRepository provides read access to the console's location table.
// The engine never writes locations; they are managed elsewhere.
type LocationRepository interface {
	// GetByID retrieves a location. Returns apperrors.ErrNotFound when the
	// id is unknown.
	GetByID(ctx context.Context, id int64) (*models.Location, error)
}

type locationRepository struct {
	db *database.DB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *database.DB) LocationRepository {
	return &locationRepository{db: db}
}

var _ LocationRepository = (*locationRepository)(nil)

func (r *locationRepository) GetByID(ctx context.Context, id int64) (*models.Location, error) {
	q := r.db.QuerierFrom(ctx)

	query := `SELECT id, name, county, created_at FROM locations WHERE id = $1`

	var l models.Location
	err := q.QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.County, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &l, nil
}
