// Package retention bounds the number of completed jobs kept per owner.
package retention

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// DefaultCap is the completed-job cap applied when none is configured.
const DefaultCap = 50

// Store is the persistence surface the policy needs. WithOwnerLock must
// serialize concurrent callers for the same owner (the SQL implementation
// takes a per-owner advisory lock inside the transaction), so two
// simultaneous completions cannot both conclude they are under the cap.
type Store interface {
	WithOwnerLock(ctx context.Context, ownerID string, fn func(tx *sqlx.Tx) error) error
	CountCompletedTx(ctx context.Context, tx *sqlx.Tx, ownerID string) (int, error)
	DeleteOldestCompletedTx(ctx context.Context, tx *sqlx.Tx, ownerID string) (string, error)
}

// Policy evicts the oldest completed jobs of an owner once the count
// exceeds the cap.
type Policy struct {
	store  Store
	cap    int
	logger *slog.Logger
}

func NewPolicy(store Store, cap int, logger *slog.Logger) *Policy {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Policy{store: store, cap: cap, logger: logger}
}

// OnCompletion is invoked after a job reaches COMPLETED for the owner. It
// evicts oldest-first until the owner is back at the cap. Eviction order is
// created_at ascending with job_id as the tie-breaker, enforced by the store.
func (p *Policy) OnCompletion(ctx context.Context, ownerID string) error {
	return p.store.WithOwnerLock(ctx, ownerID, func(tx *sqlx.Tx) error {
		for {
			n, err := p.store.CountCompletedTx(ctx, tx, ownerID)
			if err != nil {
				return fmt.Errorf("count completed jobs: %w", err)
			}
			if n <= p.cap {
				return nil
			}

			evicted, err := p.store.DeleteOldestCompletedTx(ctx, tx, ownerID)
			if err != nil {
				return fmt.Errorf("evict oldest completed job: %w", err)
			}
			p.logger.Info("Evicted completed job over retention cap",
				slog.String("owner_id", ownerID),
				slog.String("job_id", evicted),
				slog.Int("cap", p.cap),
			)
		}
	})
}
