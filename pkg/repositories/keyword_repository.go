package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
	"github.com/localpulse/localpulse-engine/pkg/database"
	"github.com/localpulse/localpulse-engine/pkg/models"
)

// KeywordRepository provides data access for keywords and their monthly
// volume series.
type KeywordRepository interface {
	// Create inserts a new keyword. Returns apperrors.ErrDuplicateKeyword
	// when the scope already holds the same text (case-insensitive) and
	// apperrors.ErrMainTermExists when a concurrent writer already claimed
	// the scope's main term slot.
	Create(ctx context.Context, keyword *models.Keyword) error

	// GetByID retrieves a keyword with its monthly series.
	GetByID(ctx context.Context, id int64) (*models.Keyword, error)

	// GetByScope retrieves every keyword in a (category, location) scope,
	// monthly series attached, ordered by id.
	GetByScope(ctx context.Context, categoryID, locationID int64) ([]*models.Keyword, error)

	// HasMainTerm reports whether the scope already holds a main term.
	HasMainTerm(ctx context.Context, categoryID, locationID int64) (bool, error)

	// UpdateVolumeData persists the refresh outcome held on the model:
	// snapshot metrics, fingerprint, no-data state and provider status.
	// Type and canonical link are not touched.
	UpdateVolumeData(ctx context.Context, keyword *models.Keyword) error

	// ReplaceMonthlySeries swaps a keyword's series wholesale
	// (delete-then-insert, never merged).
	ReplaceMonthlySeries(ctx context.Context, keywordID int64, points []models.MonthlyVolumePoint) error

	// DeleteMonthlySeries removes every monthly point for a keyword.
	DeleteMonthlySeries(ctx context.Context, keywordID int64) error

	// ApplyChanges writes type/canonical reclassifications, one UPDATE per
	// change. Used for resolver deltas and direct type mutations alike.
	ApplyChanges(ctx context.Context, changes []models.KeywordChange) error

	// Delete removes a keyword; its monthly series cascades.
	Delete(ctx context.Context, id int64) error

	// ListScopes returns every distinct (category, location) pair holding
	// at least one keyword.
	ListScopes(ctx context.Context) ([]models.KeywordScope, error)
}

type keywordRepository struct {
	db *database.DB
}

// NewKeywordRepository creates a new KeywordRepository.
func NewKeywordRepository(db *database.DB) KeywordRepository {
	return &keywordRepository{db: db}
}

var _ KeywordRepository = (*keywordRepository)(nil)

// ============================================================================
// CRUD Operations
// ============================================================================

func (r *keywordRepository) Create(ctx context.Context, keyword *models.Keyword) error {
	q := r.db.QuerierFrom(ctx)

	query := `
		INSERT INTO keywords (category_id, location_id, text, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at`

	err := q.QueryRow(ctx, query,
		keyword.CategoryID,
		keyword.LocationID,
		keyword.Text,
		keyword.Type,
	).Scan(&keyword.ID, &keyword.CreatedAt, &keyword.UpdatedAt)
	if err != nil {
		switch violatedConstraint(err) {
		case "idx_keywords_scope_text_unique":
			return apperrors.ErrDuplicateKeyword
		case "idx_keywords_single_main_term":
			return apperrors.ErrMainTermExists
		}
		return fmt.Errorf("failed to create keyword: %w", err)
	}

	return nil
}

func (r *keywordRepository) GetByID(ctx context.Context, id int64) (*models.Keyword, error) {
	q := r.db.QuerierFrom(ctx)

	query := `
		SELECT id, category_id, location_id, text, type, canonical_keyword_id,
		       fingerprint, no_data, no_data_reason, avg_monthly_volume, cpc,
		       competition, competition_index, bid_low, bid_high,
		       last_attempted_at, last_succeeded_at, last_status_code,
		       last_status_message, created_at, updated_at
		FROM keywords
		WHERE id = $1`

	keyword, err := scanKeyword(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	seriesQuery := `
		SELECT keyword_id, year, month, volume
		FROM keyword_monthly_volumes
		WHERE keyword_id = $1
		ORDER BY year, month`

	rows, err := q.Query(ctx, seriesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly volumes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.MonthlyVolumePoint
		if err := rows.Scan(&p.KeywordID, &p.Year, &p.Month, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan monthly volume: %w", err)
		}
		keyword.MonthlyVolumes = append(keyword.MonthlyVolumes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly volumes: %w", err)
	}

	return keyword, nil
}

func (r *keywordRepository) GetByScope(ctx context.Context, categoryID, locationID int64) ([]*models.Keyword, error) {
	q := r.db.QuerierFrom(ctx)

	query := `
		SELECT id, category_id, location_id, text, type, canonical_keyword_id,
		       fingerprint, no_data, no_data_reason, avg_monthly_volume, cpc,
		       competition, competition_index, bid_low, bid_high,
		       last_attempted_at, last_succeeded_at, last_status_code,
		       last_status_message, created_at, updated_at
		FROM keywords
		WHERE category_id = $1 AND location_id = $2
		ORDER BY id`

	rows, err := q.Query(ctx, query, categoryID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	var keywords []*models.Keyword
	byID := make(map[int64]*models.Keyword)
	for rows.Next() {
		keyword, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, keyword)
		byID[keyword.ID] = keyword
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keywords: %w", err)
	}

	if len(keywords) == 0 {
		return keywords, nil
	}

	seriesQuery := `
		SELECT v.keyword_id, v.year, v.month, v.volume
		FROM keyword_monthly_volumes v
		JOIN keywords k ON k.id = v.keyword_id
		WHERE k.category_id = $1 AND k.location_id = $2
		ORDER BY v.keyword_id, v.year, v.month`

	seriesRows, err := q.Query(ctx, seriesQuery, categoryID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly volumes: %w", err)
	}
	defer seriesRows.Close()

	for seriesRows.Next() {
		var p models.MonthlyVolumePoint
		if err := seriesRows.Scan(&p.KeywordID, &p.Year, &p.Month, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan monthly volume: %w", err)
		}
		if keyword, ok := byID[p.KeywordID]; ok {
			keyword.MonthlyVolumes = append(keyword.MonthlyVolumes, p)
		}
	}
	if err := seriesRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly volumes: %w", err)
	}

	return keywords, nil
}

func (r *keywordRepository) HasMainTerm(ctx context.Context, categoryID, locationID int64) (bool, error) {
	q := r.db.QuerierFrom(ctx)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM keywords
			WHERE category_id = $1 AND location_id = $2 AND type = $3
		)`

	var exists bool
	err := q.QueryRow(ctx, query, categoryID, locationID, models.KeywordTypeMainTerm).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check main term: %w", err)
	}

	return exists, nil
}

func (r *keywordRepository) UpdateVolumeData(ctx context.Context, keyword *models.Keyword) error {
	q := r.db.QuerierFrom(ctx)

	query := `
		UPDATE keywords
		SET fingerprint = $2, no_data = $3, no_data_reason = $4,
		    avg_monthly_volume = $5, cpc = $6, competition = $7,
		    competition_index = $8, bid_low = $9, bid_high = $10,
		    last_attempted_at = $11, last_succeeded_at = $12,
		    last_status_code = $13, last_status_message = $14,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := q.QueryRow(ctx, query,
		keyword.ID,
		keyword.Fingerprint,
		keyword.NoData,
		nullReason(keyword.NoDataReason),
		keyword.AvgMonthlyVolume,
		keyword.CPC,
		keyword.Competition,
		keyword.CompetitionIndex,
		keyword.BidLow,
		keyword.BidHigh,
		keyword.LastAttemptedAt,
		keyword.LastSucceededAt,
		keyword.LastStatusCode,
		keyword.LastStatusMessage,
	).Scan(&keyword.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update keyword volume data: %w", err)
	}

	return nil
}

func (r *keywordRepository) ReplaceMonthlySeries(ctx context.Context, keywordID int64, points []models.MonthlyVolumePoint) error {
	q := r.db.QuerierFrom(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM keyword_monthly_volumes WHERE keyword_id = $1`, keywordID); err != nil {
		return fmt.Errorf("failed to clear monthly series: %w", err)
	}

	query := `
		INSERT INTO keyword_monthly_volumes (keyword_id, year, month, volume)
		VALUES ($1, $2, $3, $4)`

	for _, p := range points {
		if _, err := q.Exec(ctx, query, keywordID, p.Year, p.Month, p.Volume); err != nil {
			return fmt.Errorf("failed to insert monthly volume %d-%d: %w", p.Year, p.Month, err)
		}
	}

	return nil
}

func (r *keywordRepository) DeleteMonthlySeries(ctx context.Context, keywordID int64) error {
	q := r.db.QuerierFrom(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM keyword_monthly_volumes WHERE keyword_id = $1`, keywordID); err != nil {
		return fmt.Errorf("failed to delete monthly series: %w", err)
	}

	return nil
}

func (r *keywordRepository) ApplyChanges(ctx context.Context, changes []models.KeywordChange) error {
	q := r.db.QuerierFrom(ctx)

	query := `
		UPDATE keywords
		SET type = $2, canonical_keyword_id = $3, updated_at = now()
		WHERE id = $1`

	for _, change := range changes {
		result, err := q.Exec(ctx, query, change.KeywordID, change.Type, change.CanonicalKeywordID)
		if err != nil {
			if violatedConstraint(err) == "idx_keywords_single_main_term" {
				return apperrors.ErrMainTermExists
			}
			return fmt.Errorf("failed to apply change to keyword %d: %w", change.KeywordID, err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
	}

	return nil
}

func (r *keywordRepository) Delete(ctx context.Context, id int64) error {
	q := r.db.QuerierFrom(ctx)

	result, err := q.Exec(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *keywordRepository) ListScopes(ctx context.Context) ([]models.KeywordScope, error) {
	q := r.db.QuerierFrom(ctx)

	query := `
		SELECT DISTINCT category_id, location_id
		FROM keywords
		ORDER BY category_id, location_id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword scopes: %w", err)
	}
	defer rows.Close()

	var scopes []models.KeywordScope
	for rows.Next() {
		var s models.KeywordScope
		if err := rows.Scan(&s.CategoryID, &s.LocationID); err != nil {
			return nil, fmt.Errorf("failed to scan keyword scope: %w", err)
		}
		scopes = append(scopes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keyword scopes: %w", err)
	}

	return scopes, nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func scanKeyword(row pgx.Row) (*models.Keyword, error) {
	var k models.Keyword
	var noDataReason *string

	err := row.Scan(
		&k.ID,
		&k.CategoryID,
		&k.LocationID,
		&k.Text,
		&k.Type,
		&k.CanonicalKeywordID,
		&k.Fingerprint,
		&k.NoData,
		&noDataReason,
		&k.AvgMonthlyVolume,
		&k.CPC,
		&k.Competition,
		&k.CompetitionIndex,
		&k.BidLow,
		&k.BidHigh,
		&k.LastAttemptedAt,
		&k.LastSucceededAt,
		&k.LastStatusCode,
		&k.LastStatusMessage,
		&k.CreatedAt,
		&k.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan keyword: %w", err)
	}

	// Handle nullable enum field
	if noDataReason != nil {
		k.NoDataReason = models.NoDataReason(*noDataReason)
	}

	return &k, nil
}

// nullReason returns nil for the empty reason so the column stores NULL
// rather than an empty string.
func nullReason(reason models.NoDataReason) *string {
	if reason == "" {
		return nil
	}
	s := string(reason)
	return &s
}

// violatedConstraint returns the name of the violated unique constraint, or
// "" when err is not a unique violation.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}
