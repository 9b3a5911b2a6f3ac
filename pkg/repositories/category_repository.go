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

// CategoryRepository provides read access to the console's category table.
// The engine never writes categories; they are managed elsewhere.
type CategoryRepository interface {
	// GetByID retrieves a category. Returns apperrors.ErrNotFound when the
	// id is unknown.
	GetByID(ctx context.Context, id int64) (*models.Category, error)
}

type categoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *database.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

var _ CategoryRepository = (*categoryRepository)(nil)

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	q := r.db.QuerierFrom(ctx)

	query := `SELECT id, name, display_name, created_at FROM categories WHERE id = $1`

	var c models.Category
	err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.DisplayName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}
