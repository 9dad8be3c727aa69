package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// SweepExpired permanently deletes every soft-deleted record whose recovery
// window has closed. Tasks are swept before projects and projects before
// organizations, so a parent purge never races its own children. Failures
// are logged and the sweep moves on; the joined error is returned.
func (s *RecoveryService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock()
	total := 0
	var errs []error

	for _, itemType := range models.RecoverableItemTypes {
		ids, err := s.recoveryRepo.ListExpiredIDs(itemType, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("list expired %ss: %w", itemType, err))
			continue
		}

		swept := 0
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				s.metrics.RecordSwept(string(itemType), swept)
				return total + swept, errors.Join(append(errs, err)...)
			}

			if err := s.recoveryRepo.Purge(itemType, id); err != nil {
				// Already removed along with its project or organization.
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				s.logger.Error("sweep purge failed", "item_type", itemType, "item_id", id, "error", err)
				errs = append(errs, fmt.Errorf("purge %s %s: %w", itemType, id, err))
				continue
			}
			swept++
		}

		s.metrics.RecordSwept(string(itemType), swept)
		total += swept
	}

	if total > 0 {
		s.logger.Info("swept expired items", "count", total)
	}
	return total, errors.Join(errs...)
}

// StartSweepTicker runs SweepExpired on a regular interval until ctx is cancelled.
func (s *RecoveryService) StartSweepTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once on startup to clear whatever expired while the server was down.
	s.sweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *RecoveryService) sweepOnce(ctx context.Context) {
	if _, err := s.SweepExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("recovery sweep finished with errors", "error", err)
	}
}
