package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler runs all three reconcilers on a fixed interval. It exists for
// deployments that want background sync in addition to the on-demand
// endpoints; an interval of zero disables it entirely.
type Scheduler struct {
	Sync     *Syncer
	Interval time.Duration
	Timeout  time.Duration
	Stop     chan struct{}
	log      zerolog.Logger
}

func NewScheduler(s *Syncer, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Sync:     s,
		Interval: interval,
		Timeout:  10 * time.Minute,
		Stop:     make(chan struct{}),
		log:      log,
	}
}

func (w *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.runOnce()
			}
		}
	}()
}

// runOnce drives shipments first so documents and invoices see fresh
// external IDs, then the other two. Failures are logged; the next tick tries
// again.
func (w *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()
	if _, err := w.Sync.SyncShipments(ctx); err != nil {
		w.log.Error().Err(err).Msg("scheduled shipment sync failed")
	}
	if _, err := w.Sync.SyncDocuments(ctx); err != nil {
		w.log.Error().Err(err).Msg("scheduled document sync failed")
	}
	if _, err := w.Sync.SyncInvoices(ctx); err != nil {
		w.log.Error().Err(err).Msg("scheduled invoice sync failed")
	}
}
