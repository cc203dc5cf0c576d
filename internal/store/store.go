package store

import (
	"context"
	"errors"

	"freightsync/internal/model"
)

// Store is the persistence interface used by the sync engine and the API
// server. Every upsert key is an external ID from the forwarder.
type Store interface {
	// Shipments
	GetShipmentByExternalID(ctx context.Context, externalID int64) (model.Shipment, error)
	InsertShipment(ctx context.Context, s model.Shipment) (model.Shipment, error)
	UpdateShipment(ctx context.Context, s model.Shipment) error
	ListExternalShipments(ctx context.Context) ([]model.Shipment, error)
	ListShipments(ctx context.Context, status, cursor string, limit int) ([]model.Shipment, string, error)
	GetShipment(ctx context.Context, id string) (model.Shipment, error)
	// MaxShipmentSequence returns the highest HB-<year>-NNNN suffix already
	// assigned for the given year, 0 when none exists.
	MaxShipmentSequence(ctx context.Context, year int) (int, error)

	// Documents
	GetDocumentByExternalID(ctx context.Context, externalID int64) (model.Document, error)
	InsertDocument(ctx context.Context, d model.Document) (model.Document, error)
	UpdateDocument(ctx context.Context, d model.Document) error
	ListDocumentsForShipment(ctx context.Context, shipmentID string) ([]model.Document, error)

	// Invoices
	GetInvoiceByExternalID(ctx context.Context, externalID int64) (model.Invoice, error)
	InsertInvoice(ctx context.Context, inv model.Invoice) (model.Invoice, error)
	UpdateInvoice(ctx context.Context, inv model.Invoice) error
	ListInvoices(ctx context.Context, status, cursor string, limit int) ([]model.Invoice, string, error)

	// Invoice–shipment links
	InvoiceHasLink(ctx context.Context, invoiceID string) (bool, error)
	LinkInvoiceShipment(ctx context.Context, invoiceID, shipmentID string) error

	// Sync runs
	RecordSyncRun(ctx context.Context, run model.SyncRun) (string, error)
	ListSyncRuns(ctx context.Context, kind string, limit int) ([]model.SyncRun, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
