package sync

import (
	"context"
	"fmt"

	"freightsync/internal/forwarder"
	"freightsync/internal/mapper"
	"freightsync/internal/model"
	"freightsync/internal/store"
)

// fallbackStatuses is queried one by one when an unfiltered listing comes
// back empty. Some provider accounts silently scope unfiltered queries
// narrower than expected.
var fallbackStatuses = []string{"planned", "in transit", "arrived", "delivered"}

// SyncShipments pulls every external shipment and upserts local rows keyed by
// external shipment ID.
func (s *Syncer) SyncShipments(ctx context.Context) (Result, error) {
	const kind = "shipments"
	started := s.now()
	s.publish(kind, Event{Type: "sync.started"})

	var res Result
	external, err := s.fetchAllShipments(ctx)
	if err != nil {
		s.finishRun(ctx, kind, started, res, err)
		return Result{}, err
	}

	year := started.Year()
	maxSeq, err := s.store.MaxShipmentSequence(ctx, year)
	if err != nil {
		err = fmt.Errorf("shipment sequence for %d: %w", year, err)
		s.finishRun(ctx, kind, started, res, err)
		return Result{}, err
	}
	nextSeq := maxSeq + 1

	for _, ext := range external {
		if ext.ID <= 0 {
			s.recordFailure(kind, &res, ext.ID, fmt.Errorf("missing shipment id"))
			continue
		}
		existing, err := s.store.GetShipmentByExternalID(ctx, ext.ID)
		switch {
		case err == nil:
			s.applyExternal(&existing, ext)
			if err := s.store.UpdateShipment(ctx, existing); err != nil {
				s.recordFailure(kind, &res, ext.ID, err)
				continue
			}
			s.recordOutcome(kind, &res, ext.ID, ActionUpdated)
		case err == store.ErrNotFound:
			local := model.Shipment{Number: store.FormatShipmentNumber(year, nextSeq)}
			// The sequence advances even if the insert below fails so a
			// number is never reused within a run.
			nextSeq++
			extID := ext.ID
			local.ExternalShipmentID = &extID
			s.applyExternal(&local, ext)
			if _, err := s.store.InsertShipment(ctx, local); err != nil {
				s.recordFailure(kind, &res, ext.ID, err)
				continue
			}
			s.recordOutcome(kind, &res, ext.ID, ActionCreated)
		default:
			s.recordFailure(kind, &res, ext.ID, err)
		}
	}

	s.finishRun(ctx, kind, started, res, nil)
	return res, nil
}

// fetchAllShipments pages through the unfiltered listing and, when that
// yields nothing, retries per status and de-dupes by external ID.
func (s *Syncer) fetchAllShipments(ctx context.Context) ([]forwarder.Shipment, error) {
	all, err := s.fetchShipmentPages(ctx, forwarder.ListShipmentsQuery{})
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		return all, nil
	}

	s.log.Info().Msg("unfiltered shipment listing empty, falling back to per-status queries")
	seen := map[int64]bool{}
	var merged []forwarder.Shipment
	for _, status := range fallbackStatuses {
		batch, err := s.fetchShipmentPages(ctx, forwarder.ListShipmentsQuery{Status: status})
		if err != nil {
			return nil, err
		}
		for _, sh := range batch {
			if seen[sh.ID] {
				continue
			}
			seen[sh.ID] = true
			merged = append(merged, sh)
		}
	}
	return merged, nil
}

func (s *Syncer) fetchShipmentPages(ctx context.Context, q forwarder.ListShipmentsQuery) ([]forwarder.Shipment, error) {
	var all []forwarder.Shipment
	for page := 1; ; page++ {
		if page > maxPages {
			s.log.Warn().Int("maxPages", maxPages).Msg("shipment pagination truncated")
			break
		}
		batch, err := s.api.ListShipments(ctx, page, s.pageSize, q)
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

// applyExternal maps external fields onto the local shipment and refreshes
// lastSyncedAt. Locally owned fields outside this set are left alone.
func (s *Syncer) applyExternal(local *model.Shipment, ext forwarder.Shipment) {
	local.Status = mapper.ShipmentStatus(ext.Status)
	local.Modality = mapper.Modality(ext.MainModality)
	local.OriginCity = ext.OriginLocation.City
	local.OriginCountryCode = ext.OriginLocation.CountryCode
	local.OriginCountryName = ext.OriginLocation.CountryName
	local.DestinationCity = ext.DestinationLocation.City
	local.DestinationCountryCode = ext.DestinationLocation.CountryCode
	local.DestinationCountryName = ext.DestinationLocation.CountryName
	local.CustomerReference = preferredReference(ext.References)
	local.CarrierName = model.CarrierName
	local.ContainerNumber = ext.Equipment.Number
	local.CO2EmissionValue = ext.Emission.Value
	local.CO2EmissionUnit = ext.Emission.Unit
	if ext.OriginParty.Name != "" {
		local.Notes = fmt.Sprintf("Shipper: %s", ext.OriginParty.Name)
	}
	now := s.now()
	local.LastSyncedAt = &now
}

// preferredReference picks the customer-facing reference: role
// "service customer" wins, then "customer", then nothing.
func preferredReference(refs []forwarder.Reference) string {
	for _, role := range []string{"service customer", "customer"} {
		for _, r := range refs {
			if r.Role == role {
				return r.Reference
			}
		}
	}
	return ""
}
