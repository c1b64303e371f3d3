package worker

// sweeper.go
// Background goroutine that periodically cancels orders stuck in Pending
// past a configurable TTL. Cancellations run without a request context,
// so their audit rows carry change_source=system and changed_by=system.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StaleOrderCanceller is the slice of the order service the sweeper
// needs. Declared here so the worker package stays decoupled from the
// service package.
type StaleOrderCanceller interface {
	CancelStalePending(ctx context.Context, before time.Time, limit int) (int, error)
}

const sweepBatchSize = 50

// StartStaleOrderSweeper launches a ticker goroutine that cancels
// Pending orders older than ttl. It respects ctx for graceful shutdown.
func StartStaleOrderSweeper(ctx context.Context, svc StaleOrderCanceller, ttl, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("ttl", ttl).Dur("interval", interval).Msg("stale order sweeper: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stale order sweeper: shutting down")
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-ttl)
				n, err := svc.CancelStalePending(ctx, cutoff, sweepBatchSize)
				if err != nil {
					log.Error().Err(err).Msg("stale order sweeper: sweep failed")
					continue
				}
				if n > 0 {
					log.Info().Int("cancelled", n).Msg("stale order sweeper: cancelled stale pending orders")
				}
			}
		}
	}()
}
