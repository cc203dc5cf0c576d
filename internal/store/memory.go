package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"freightsync/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set and in
// tests. It mirrors the Postgres semantics including the unique external-ID
// constraints.
type Memory struct {
	mu          sync.Mutex
	shipments   map[string]model.Shipment // id -> shipment
	shipByExt   map[int64]string          // external id -> shipment id
	shipOrder   []string                  // insertion order for listing
	documents   map[string]model.Document
	docByExt    map[int64]string
	docsByShip  map[string][]string // shipment id -> document ids
	invoices    map[string]model.Invoice
	invByExt    map[int64]string
	invOrder    []string
	links       map[string][]string // invoice id -> shipment ids
	runs        []model.SyncRun
}

func NewMemory() *Memory {
	return &Memory{
		shipments:  map[string]model.Shipment{},
		shipByExt:  map[int64]string{},
		documents:  map[string]model.Document{},
		docByExt:   map[int64]string{},
		docsByShip: map[string][]string{},
		invoices:   map[string]model.Invoice{},
		invByExt:   map[int64]string{},
		links:      map[string][]string{},
	}
}

func (m *Memory) GetShipmentByExternalID(ctx context.Context, externalID int64) (model.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.shipByExt[externalID]
	if !ok {
		return model.Shipment{}, ErrNotFound
	}
	return m.shipments[id], nil
}

func (m *Memory) InsertShipment(ctx context.Context, s model.Shipment) (model.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	m.shipments[s.ID] = s
	m.shipOrder = append(m.shipOrder, s.ID)
	if s.ExternalShipmentID != nil {
		m.shipByExt[*s.ExternalShipmentID] = s.ID
	}
	return s, nil
}

func (m *Memory) UpdateShipment(ctx context.Context, s model.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[s.ID]; !ok {
		return ErrNotFound
	}
	m.shipments[s.ID] = s
	if s.ExternalShipmentID != nil {
		m.shipByExt[*s.ExternalShipmentID] = s.ID
	}
	return nil
}

func (m *Memory) ListExternalShipments(ctx context.Context) ([]model.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Shipment{}
	for _, id := range m.shipOrder {
		s := m.shipments[id]
		if s.ExternalShipmentID != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) ListShipments(ctx context.Context, status, cursor string, limit int) ([]model.Shipment, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		for i, id := range m.shipOrder {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Shipment{}
	next := ""
	for i := start; i < len(m.shipOrder) && len(out) < limit; i++ {
		s := m.shipments[m.shipOrder[i]]
		if status != "" && string(s.Status) != status {
			continue
		}
		out = append(out, s)
		next = s.ID
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) GetShipment(ctx context.Context, id string) (model.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return model.Shipment{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) MaxShipmentSequence(ctx context.Context, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, s := range m.shipments {
		if seq, ok := parseShipmentNumber(s.Number, year); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (m *Memory) GetDocumentByExternalID(ctx context.Context, externalID int64) (model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.docByExt[externalID]
	if !ok {
		return model.Document{}, ErrNotFound
	}
	return m.documents[id], nil
}

func (m *Memory) InsertDocument(ctx context.Context, d model.Document) (model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	m.documents[d.ID] = d
	m.docByExt[d.ExternalDocumentID] = d.ID
	m.docsByShip[d.ShipmentID] = append(m.docsByShip[d.ShipmentID], d.ID)
	return d, nil
}

func (m *Memory) UpdateDocument(ctx context.Context, d model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[d.ID]; !ok {
		return ErrNotFound
	}
	m.documents[d.ID] = d
	return nil
}

func (m *Memory) ListDocumentsForShipment(ctx context.Context, shipmentID string) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Document{}
	for _, id := range m.docsByShip[shipmentID] {
		out = append(out, m.documents[id])
	}
	return out, nil
}

func (m *Memory) GetInvoiceByExternalID(ctx context.Context, externalID int64) (model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.invByExt[externalID]
	if !ok {
		return model.Invoice{}, ErrNotFound
	}
	return m.invoices[id], nil
}

func (m *Memory) InsertInvoice(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	m.invoices[inv.ID] = inv
	m.invByExt[inv.ExternalInvoiceID] = inv.ID
	m.invOrder = append(m.invOrder, inv.ID)
	return inv, nil
}

func (m *Memory) UpdateInvoice(ctx context.Context, inv model.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	m.invoices[inv.ID] = inv
	return nil
}

func (m *Memory) ListInvoices(ctx context.Context, status, cursor string, limit int) ([]model.Invoice, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		for i, id := range m.invOrder {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Invoice{}
	next := ""
	for i := start; i < len(m.invOrder) && len(out) < limit; i++ {
		inv := m.invoices[m.invOrder[i]]
		if status != "" && string(inv.Status) != status {
			continue
		}
		out = append(out, inv)
		next = inv.ID
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) InvoiceHasLink(ctx context.Context, invoiceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links[invoiceID]) > 0, nil
}

func (m *Memory) LinkInvoiceShipment(ctx context.Context, invoiceID, shipmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sid := range m.links[invoiceID] {
		if sid == shipmentID {
			return nil
		}
	}
	m.links[invoiceID] = append(m.links[invoiceID], shipmentID)
	return nil
}

func (m *Memory) RecordSyncRun(ctx context.Context, run model.SyncRun) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *Memory) ListSyncRuns(ctx context.Context, kind string, limit int) ([]model.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := []model.SyncRun{}
	for _, r := range m.runs {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	// newest first
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
