package sync

import (
	"context"
	"fmt"
	"time"

	"freightsync/internal/forwarder"
	"freightsync/internal/mapper"
	"freightsync/internal/model"
	"freightsync/internal/store"
)

// SyncInvoices pulls every external invoice, upserts it, and links it to the
// local shipments its references resolve to.
func (s *Syncer) SyncInvoices(ctx context.Context) (Result, error) {
	const kind = "invoices"
	started := s.now()
	s.publish(kind, Event{Type: "sync.started"})

	var res Result
	external, err := s.fetchAllInvoices(ctx)
	if err != nil {
		s.finishRun(ctx, kind, started, res, err)
		return Result{}, err
	}

	// One query up front; every invoice resolves its shipment references
	// against this map instead of hitting the store per reference.
	shipments, err := s.store.ListExternalShipments(ctx)
	if err != nil {
		err = fmt.Errorf("list synced shipments: %w", err)
		s.finishRun(ctx, kind, started, res, err)
		return Result{}, err
	}
	shipmentByExt := make(map[int64]string, len(shipments))
	for _, sh := range shipments {
		shipmentByExt[*sh.ExternalShipmentID] = sh.ID
	}

	for _, ext := range external {
		local, err := s.upsertInvoice(ctx, ext, &res)
		if err != nil {
			s.recordFailure(kind, &res, ext.ID, err)
			continue
		}
		for _, extShipID := range ext.ShipmentIDs {
			shipID, ok := shipmentByExt[extShipID]
			if !ok {
				continue
			}
			// Existence is checked per invoice, not per (invoice, shipment)
			// pair; once any link exists, further references are skipped.
			has, err := s.store.InvoiceHasLink(ctx, local.ID)
			if err != nil {
				s.recordFailure(kind, &res, ext.ID, fmt.Errorf("check invoice link: %w", err))
				break
			}
			if has {
				continue
			}
			if err := s.store.LinkInvoiceShipment(ctx, local.ID, shipID); err != nil {
				s.recordFailure(kind, &res, ext.ID, fmt.Errorf("link shipment: %w", err))
				continue
			}
			res.Linked++
		}
	}

	s.finishRun(ctx, kind, started, res, nil)
	return res, nil
}

func (s *Syncer) fetchAllInvoices(ctx context.Context) ([]forwarder.Invoice, error) {
	var all []forwarder.Invoice
	for page := 1; ; page++ {
		if page > maxPages {
			s.log.Warn().Int("maxPages", maxPages).Msg("invoice pagination truncated")
			break
		}
		batch, err := s.api.ListInvoices(ctx, page, s.pageSize, "")
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < s.pageSize {
			break
		}
	}
	return all, nil
}

func (s *Syncer) upsertInvoice(ctx context.Context, ext forwarder.Invoice, res *Result) (model.Invoice, error) {
	if ext.ID <= 0 {
		return model.Invoice{}, fmt.Errorf("missing invoice id")
	}
	issueDate, err := parseDate(ext.InvoiceDate)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("invalid invoice date %q: %w", ext.InvoiceDate, err)
	}
	var dueDate *time.Time
	if ext.DueDate != "" {
		if d, err := parseDate(ext.DueDate); err == nil {
			dueDate = &d
		}
	}

	status := mapper.InvoiceStatus(ext.Status)
	now := s.now()
	var paidAt *time.Time
	if status == model.InvoicePaid {
		paidAt = &now
	}

	existing, err := s.store.GetInvoiceByExternalID(ctx, ext.ID)
	switch {
	case err == nil:
		existing.Number = ext.Number
		existing.IssueDate = issueDate
		existing.DueDate = dueDate
		existing.Status = status
		existing.Currency = ext.Currency
		// Amounts are always recomputed from the latest snapshot.
		existing.TotalAmount = ext.TotalAmount
		existing.OpenAmount = ext.OpenAmount
		existing.PaidAmount = ext.TotalAmount - ext.OpenAmount
		if status == model.InvoicePaid {
			if existing.PaidAt == nil {
				existing.PaidAt = paidAt
			}
		} else {
			existing.PaidAt = nil
		}
		existing.LastSyncedAt = &now
		if err := s.store.UpdateInvoice(ctx, existing); err != nil {
			return model.Invoice{}, err
		}
		s.recordOutcome("invoices", res, ext.ID, ActionUpdated)
		return existing, nil
	case err == store.ErrNotFound:
		inv := model.Invoice{
			ExternalInvoiceID: ext.ID,
			Number:            ext.Number,
			IssueDate:         issueDate,
			DueDate:           dueDate,
			Status:            status,
			Currency:          ext.Currency,
			TotalAmount:       ext.TotalAmount,
			OpenAmount:        ext.OpenAmount,
			PaidAmount:        ext.TotalAmount - ext.OpenAmount,
			PaidAt:            paidAt,
			LastSyncedAt:      &now,
		}
		inv, err := s.store.InsertInvoice(ctx, inv)
		if err != nil {
			return model.Invoice{}, err
		}
		s.recordOutcome("invoices", res, ext.ID, ActionCreated)
		return inv, nil
	default:
		return model.Invoice{}, err
	}
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
