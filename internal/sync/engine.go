// Package sync contains the reconcilers that pull shipments, documents and
// invoices from the forwarder's API and upsert them into local storage.
package sync

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"freightsync/internal/forwarder"
	"freightsync/internal/metrics"
	"freightsync/internal/model"
	"freightsync/internal/store"
)

// API is the slice of the forwarder client the reconcilers need.
type API interface {
	ListShipments(ctx context.Context, page, pageSize int, q forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error)
	ShipmentDocuments(ctx context.Context, id int64) ([]forwarder.Document, error)
	ListInvoices(ctx context.Context, page, pageSize int, status string) ([]forwarder.Invoice, error)
}

const (
	// defaultPageSize matches the provider's maximum page.
	defaultPageSize = 100
	// maxPages bounds every pagination loop; a provider that keeps returning
	// full pages forever becomes a logged truncation instead of a hang.
	maxPages = 50
)

// Syncer runs the three reconcilers. Per-record work is sequential by design:
// it bounds load on the provider and keeps error attribution simple.
type Syncer struct {
	api      API
	store    store.Store
	broker   EventBroker
	log      zerolog.Logger
	pageSize int
	now      func() time.Time
}

func New(api API, st store.Store, broker EventBroker, log zerolog.Logger) *Syncer {
	return &Syncer{
		api:      api,
		store:    st,
		broker:   broker,
		log:      log,
		pageSize: defaultPageSize,
		now:      time.Now,
	}
}

// SetPageSize overrides the listing page size (tests, constrained tenants).
func (s *Syncer) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

func (s *Syncer) publish(kind string, evt Event) {
	if s.broker == nil {
		return
	}
	evt.Kind = kind
	s.broker.Publish(kind, evt)
	s.broker.Publish("all", evt)
}

// finishRun persists the run summary and emits metrics plus a finished event.
// Persistence failures for the bookkeeping row are logged, not propagated:
// the sync itself already happened.
func (s *Syncer) finishRun(ctx context.Context, kind string, started time.Time, res Result, runErr error) {
	status := model.SyncRunSuccess
	switch {
	case runErr != nil:
		status = model.SyncRunFailed
	case res.Errors > 0:
		status = model.SyncRunPartial
	}
	finished := s.now()
	run := model.SyncRun{
		Kind:       kind,
		Status:     status,
		Created:    res.Created,
		Updated:    res.Updated,
		Linked:     res.Linked,
		Errors:     res.Errors,
		StartedAt:  started,
		FinishedAt: finished,
		DurationMs: finished.Sub(started).Milliseconds(),
	}
	if _, err := s.store.RecordSyncRun(ctx, run); err != nil {
		s.log.Error().Err(err).Str("kind", kind).Msg("record sync run")
	}
	metrics.SyncRuns.WithLabelValues(kind, status).Inc()
	s.publish(kind, Event{Type: "sync.finished", Data: map[string]any{
		"status":  status,
		"created": res.Created,
		"updated": res.Updated,
		"linked":  res.Linked,
		"errors":  res.Errors,
	}})
	logEvt := s.log.Info()
	if runErr != nil {
		logEvt = s.log.Error().Err(runErr)
	}
	logEvt.Str("kind", kind).Str("status", status).
		Int("created", res.Created).Int("updated", res.Updated).
		Int("linked", res.Linked).Int("errors", res.Errors).
		Dur("took", finished.Sub(started)).Msg("sync run finished")
}

func (s *Syncer) recordOutcome(kind string, res *Result, externalID int64, action string) {
	res.record(externalID, action)
	metrics.SyncRecords.WithLabelValues(kind, action).Inc()
	s.publish(kind, Event{Type: "sync.record", Data: map[string]any{
		"externalId": strconv.FormatInt(externalID, 10),
		"action":     action,
	}})
}

func (s *Syncer) recordFailure(kind string, res *Result, externalID int64, err error) {
	res.fail(externalID, err)
	metrics.SyncRecords.WithLabelValues(kind, ActionError).Inc()
	s.log.Warn().Err(err).Str("kind", kind).Int64("externalId", externalID).Msg("record failed")
	s.publish(kind, Event{Type: "sync.record", Data: map[string]any{
		"externalId": strconv.FormatInt(externalID, 10),
		"action":     ActionError,
		"error":      err.Error(),
	}})
}
