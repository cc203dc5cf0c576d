package store

import (
	"context"
	"testing"
	"time"

	"freightsync/internal/model"
)

func TestFormatShipmentNumber(t *testing.T) {
	if got := FormatShipmentNumber(2026, 7); got != "HB-2026-0007" {
		t.Fatalf("got %q", got)
	}
	if got := FormatShipmentNumber(2026, 12345); got != "HB-2026-12345" {
		t.Fatalf("sequence beyond four digits should not truncate: %q", got)
	}
}

func TestParseShipmentNumber(t *testing.T) {
	cases := []struct {
		number string
		year   int
		seq    int
		ok     bool
	}{
		{"HB-2026-0007", 2026, 7, true},
		{"HB-2026-12345", 2026, 12345, true},
		{"HB-2025-0007", 2026, 0, false},
		{"XX-2026-0007", 2026, 0, false},
		{"HB-2026-abc", 2026, 0, false},
		{"", 2026, 0, false},
	}
	for _, tc := range cases {
		seq, ok := parseShipmentNumber(tc.number, tc.year)
		if seq != tc.seq || ok != tc.ok {
			t.Fatalf("parse(%q, %d) = (%d, %v), want (%d, %v)", tc.number, tc.year, seq, ok, tc.seq, tc.ok)
		}
	}
}

func TestMemoryMaxShipmentSequence(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	max, err := m.MaxShipmentSequence(ctx, 2026)
	if err != nil || max != 0 {
		t.Fatalf("empty store: max=%d err=%v", max, err)
	}

	for _, number := range []string{"HB-2026-0003", "HB-2026-0010", "HB-2025-0099", "LEGACY-1"} {
		if _, err := m.InsertShipment(ctx, model.Shipment{Number: number}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	max, err = m.MaxShipmentSequence(ctx, 2026)
	if err != nil {
		t.Fatalf("MaxShipmentSequence: %v", err)
	}
	if max != 10 {
		t.Fatalf("max = %d, want 10", max)
	}
}

func TestMemoryShipmentUpsertRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	extID := int64(42)
	sh, err := m.InsertShipment(ctx, model.Shipment{Number: "HB-2026-0001", ExternalShipmentID: &extID, Status: model.ShipmentPlanned})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if sh.ID == "" {
		t.Fatal("insert did not assign an id")
	}

	got, err := m.GetShipmentByExternalID(ctx, 42)
	if err != nil {
		t.Fatalf("get by external id: %v", err)
	}
	if got.ID != sh.ID {
		t.Fatalf("ids differ: %q vs %q", got.ID, sh.ID)
	}

	got.Status = model.ShipmentArrived
	if err := m.UpdateShipment(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := m.GetShipment(ctx, sh.ID)
	if again.Status != model.ShipmentArrived {
		t.Fatalf("status = %q", again.Status)
	}

	if _, err := m.GetShipmentByExternalID(ctx, 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListShipmentsCursor(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if _, err := m.InsertShipment(ctx, model.Shipment{Number: FormatShipmentNumber(2026, i), Status: model.ShipmentPlanned}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	first, next, err := m.ListShipments(ctx, "", "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 2 || next == "" {
		t.Fatalf("first page: %d items, next=%q", len(first), next)
	}

	seen := map[string]bool{}
	for _, s := range first {
		seen[s.ID] = true
	}
	cursor := next
	total := len(first)
	for cursor != "" {
		page, n, err := m.ListShipments(ctx, "", cursor, 2)
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		for _, s := range page {
			if seen[s.ID] {
				t.Fatalf("shipment %s returned twice", s.ID)
			}
			seen[s.ID] = true
		}
		total += len(page)
		cursor = n
	}
	if total != 5 {
		t.Fatalf("paged through %d shipments, want 5", total)
	}
}

func TestMemoryInvoiceLinks(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	inv, err := m.InsertInvoice(ctx, model.Invoice{ExternalInvoiceID: 1, Number: "INV-1"})
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	has, err := m.InvoiceHasLink(ctx, inv.ID)
	if err != nil || has {
		t.Fatalf("fresh invoice: has=%v err=%v", has, err)
	}

	if err := m.LinkInvoiceShipment(ctx, inv.ID, "ship-1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	// linking the same pair again is a no-op
	if err := m.LinkInvoiceShipment(ctx, inv.ID, "ship-1"); err != nil {
		t.Fatalf("relink: %v", err)
	}
	has, err = m.InvoiceHasLink(ctx, inv.ID)
	if err != nil || !has {
		t.Fatalf("after link: has=%v err=%v", has, err)
	}
}

func TestMemoryListSyncRunsNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := m.RecordSyncRun(ctx, model.SyncRun{Kind: "shipments", Status: model.SyncRunSuccess, StartedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	_, err := m.RecordSyncRun(ctx, model.SyncRun{Kind: "invoices", Status: model.SyncRunSuccess, StartedAt: base})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := m.ListSyncRuns(ctx, "shipments", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Fatalf("runs not newest first: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
	for _, r := range runs {
		if r.Kind != "shipments" {
			t.Fatalf("kind filter leaked %q", r.Kind)
		}
	}
}
