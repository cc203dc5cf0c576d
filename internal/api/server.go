package api

import (
	"context"

	"github.com/rs/zerolog"

	"freightsync/internal/forwarder"
	"freightsync/internal/store"
	"freightsync/internal/sync"
)

// Syncer is what the trigger endpoints need from the sync engine.
type Syncer interface {
	SyncShipments(ctx context.Context) (sync.Result, error)
	SyncDocuments(ctx context.Context) (sync.Result, error)
	SyncInvoices(ctx context.Context) (sync.Result, error)
}

// EventsFetcher proxies on-demand tracking-event lookups to the forwarder;
// events are never synced in bulk.
type EventsFetcher interface {
	ShipmentEvents(ctx context.Context, id int64) ([]forwarder.Event, error)
}

type Server struct {
	Store  store.Store
	Sync   Syncer
	Events EventsFetcher
	Broker sync.EventBroker
	Log    zerolog.Logger
}

func New(st store.Store, syncer Syncer, events EventsFetcher, broker sync.EventBroker, log zerolog.Logger) *Server {
	return &Server{Store: st, Sync: syncer, Events: events, Broker: broker, Log: log}
}
