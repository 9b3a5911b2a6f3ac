package services

import (
	"context"
	"fmt"

	"github.com/localpulse/localpulse-engine/pkg/repositories"
)

// TxRunner runs a function as one atomic unit of work. *database.DB
// satisfies it; tests substitute a pass-through.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// reconvergeScope re-reads a (category, location) scope and applies the
// classification resolver's deltas. Every mutation and every refresh ends
// here, inside the caller's transaction, so the resolved classification
// commits together with the change that triggered it.
func reconvergeScope(ctx context.Context, repo repositories.KeywordRepository, categoryID, locationID int64) error {
	keywords, err := repo.GetByScope(ctx, categoryID, locationID)
	if err != nil {
		return fmt.Errorf("load scope for reclassification: %w", err)
	}

	changes := ResolveClassification(keywords)
	if len(changes) == 0 {
		return nil
	}

	if err := repo.ApplyChanges(ctx, changes); err != nil {
		return fmt.Errorf("apply reclassification: %w", err)
	}
	return nil
}
