package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"freightsync/internal/forwarder"
	"freightsync/internal/model"
	"freightsync/internal/store"
)

type fakeAPI struct {
	listShipments func(page, pageSize int, q forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error)
	shipmentDocs  func(id int64) ([]forwarder.Document, error)
	listInvoices  func(page, pageSize int, status string) ([]forwarder.Invoice, error)
}

func (f *fakeAPI) ListShipments(_ context.Context, page, pageSize int, q forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error) {
	if f.listShipments == nil {
		return nil, nil
	}
	return f.listShipments(page, pageSize, q)
}

func (f *fakeAPI) ShipmentDocuments(_ context.Context, id int64) ([]forwarder.Document, error) {
	if f.shipmentDocs == nil {
		return nil, nil
	}
	return f.shipmentDocs(id)
}

func (f *fakeAPI) ListInvoices(_ context.Context, page, pageSize int, status string) ([]forwarder.Invoice, error) {
	if f.listInvoices == nil {
		return nil, nil
	}
	return f.listInvoices(page, pageSize, status)
}

// singlePage serves the list on page 1 and nothing after, the shape a provider
// with fewer records than one page returns.
func singlePage(list []forwarder.Shipment) func(page, pageSize int, q forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error) {
	return func(page, _ int, _ forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error) {
		if page == 1 {
			return list, nil
		}
		return nil, nil
	}
}

func extShipment(id int64, status string) forwarder.Shipment {
	return forwarder.Shipment{ID: id, Status: status, MainModality: "sea"}
}

func newTestSyncer(api API, st store.Store) *Syncer {
	return New(api, st, nil, zerolog.Nop())
}

func TestSyncShipmentsCreatesWithSequentialNumbers(t *testing.T) {
	st := store.NewMemory()
	api := &fakeAPI{listShipments: singlePage([]forwarder.Shipment{
		extShipment(101, "planned"),
		extShipment(102, "in transit"),
		extShipment(103, "arrived"),
	})}
	s := newTestSyncer(api, st)

	res, err := s.SyncShipments(context.Background())
	if err != nil {
		t.Fatalf("SyncShipments: %v", err)
	}
	if res.Created != 3 || res.Updated != 0 || res.Errors != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	year := time.Now().Year()
	for i, extID := range []int64{101, 102, 103} {
		sh, err := st.GetShipmentByExternalID(context.Background(), extID)
		if err != nil {
			t.Fatalf("get shipment %d: %v", extID, err)
		}
		want := store.FormatShipmentNumber(year, i+1)
		if sh.Number != want {
			t.Fatalf("shipment %d number = %q, want %q", extID, sh.Number, want)
		}
		if sh.CarrierName != model.CarrierName {
			t.Fatalf("carrier = %q", sh.CarrierName)
		}
		if sh.LastSyncedAt == nil {
			t.Fatal("lastSyncedAt not set")
		}
	}
}

func TestSyncShipmentsIdempotent(t *testing.T) {
	st := store.NewMemory()
	api := &fakeAPI{listShipments: singlePage([]forwarder.Shipment{
		extShipment(101, "planned"),
		extShipment(102, "planned"),
	})}
	s := newTestSyncer(api, st)

	if _, err := s.SyncShipments(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := s.SyncShipments(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Created != 0 || res.Updated != 2 {
		t.Fatalf("second run result %+v, want 0 created / 2 updated", res)
	}
}

func TestSyncShipmentsNumberSequenceContinues(t *testing.T) {
	st := store.NewMemory()
	api := &fakeAPI{listShipments: singlePage([]forwarder.Shipment{extShipment(101, "planned")})}
	s := newTestSyncer(api, st)
	if _, err := s.SyncShipments(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	api.listShipments = singlePage([]forwarder.Shipment{
		extShipment(101, "planned"),
		extShipment(202, "planned"),
	})
	if _, err := s.SyncShipments(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	sh, err := st.GetShipmentByExternalID(context.Background(), 202)
	if err != nil {
		t.Fatalf("get shipment: %v", err)
	}
	want := store.FormatShipmentNumber(time.Now().Year(), 2)
	if sh.Number != want {
		t.Fatalf("number = %q, want %q", sh.Number, want)
	}
}

func TestSyncShipmentsPartialFailureIsolated(t *testing.T) {
	st := store.NewMemory()
	api := &fakeAPI{listShipments: singlePage([]forwarder.Shipment{
		extShipment(101, "planned"),
		{ID: 0, Status: "planned"}, // no external ID
		extShipment(103, "arrived"),
	})}
	s := newTestSyncer(api, st)

	res, err := s.SyncShipments(context.Background())
	if err != nil {
		t.Fatalf("SyncShipments: %v", err)
	}
	if res.Created != 2 || res.Errors != 1 {
		t.Fatalf("result %+v, want 2 created / 1 error", res)
	}
	var errRecords int
	for _, rec := range res.Records {
		if rec.Action == ActionError {
			errRecords++
			if rec.Error == "" {
				t.Fatal("error record has empty message")
			}
		}
	}
	if errRecords != 1 {
		t.Fatalf("got %d error records", errRecords)
	}
}

func TestSyncShipmentsBatchFailure(t *testing.T) {
	st := store.NewMemory()
	api := &fakeAPI{listShipments: func(int, int, forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error) {
		return nil, errors.New("boom")
	}}
	s := newTestSyncer(api, st)

	_, err := s.SyncShipments(context.Background())
	if err == nil {
		t.Fatal("expected error when listing fails")
	}

	runs, err := st.ListSyncRuns(context.Background(), "shipments", 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != model.SyncRunFailed {
		t.Fatalf("expected one failed run, got %+v", runs)
	}
}

func TestSyncShipmentsFallbackQueriesDeduped(t *testing.T) {
	st := store.NewMemory()
	var statuses []string
	api := &fakeAPI{listShipments: func(page, _ int, q forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error) {
		if page > 1 {
			return nil, nil
		}
		statuses = append(statuses, q.Status)
		switch q.Status {
		case "":
			return nil, nil
		case "planned":
			return []forwarder.Shipment{extShipment(101, "planned")}, nil
		case "in transit":
			// 101 shows up under two statuses; it must only be processed once
			return []forwarder.Shipment{extShipment(101, "in transit"), extShipment(102, "in transit")}, nil
		default:
			return nil, nil
		}
	}}
	s := newTestSyncer(api, st)

	res, err := s.SyncShipments(context.Background())
	if err != nil {
		t.Fatalf("SyncShipments: %v", err)
	}
	if res.Created != 2 {
		t.Fatalf("created = %d, want 2", res.Created)
	}
	want := []string{"", "planned", "in transit", "arrived", "delivered"}
	if fmt.Sprint(statuses) != fmt.Sprint(want) {
		t.Fatalf("status query order %v, want %v", statuses, want)
	}
}

func TestApplyExternalMapsFields(t *testing.T) {
	s := newTestSyncer(&fakeAPI{}, store.NewMemory())
	ext := forwarder.Shipment{
		ID:           7,
		Status:       "In Transit",
		MainModality: "FCL",
		OriginParty:  forwarder.Party{Name: "Acme Exports"},
		OriginLocation: forwarder.Location{
			City: "Shanghai", CountryCode: "CN", CountryName: "China",
		},
		DestinationLocation: forwarder.Location{
			City: "Rotterdam", CountryCode: "NL", CountryName: "Netherlands",
		},
		References: []forwarder.Reference{
			{Reference: "CUST-1", Role: "customer"},
			{Reference: "SVC-1", Role: "service customer"},
		},
		Equipment: forwarder.Equipment{Number: "MSKU1234567"},
		Emission:  forwarder.Emission{Value: 1.25, Unit: "tonnes"},
	}

	var local model.Shipment
	s.applyExternal(&local, ext)

	if local.Status != model.ShipmentInTransit {
		t.Fatalf("status = %q", local.Status)
	}
	if local.Modality != model.ModalitySeaFCL {
		t.Fatalf("modality = %q", local.Modality)
	}
	if local.CustomerReference != "SVC-1" {
		t.Fatalf("customer reference = %q, service customer role should win", local.CustomerReference)
	}
	if local.Notes != "Shipper: Acme Exports" {
		t.Fatalf("notes = %q", local.Notes)
	}
	if local.OriginCity != "Shanghai" || local.DestinationCountryCode != "NL" {
		t.Fatalf("locations not mapped: %+v", local)
	}
	if local.ContainerNumber != "MSKU1234567" || local.CO2EmissionValue != 1.25 {
		t.Fatalf("equipment/emission not mapped: %+v", local)
	}
}
