package sync

import (
	"context"
	"fmt"

	"freightsync/internal/forwarder"
	"freightsync/internal/mapper"
	"freightsync/internal/model"
	"freightsync/internal/store"
)

// SyncDocuments walks every local shipment that came from the forwarder and
// upserts its documents. A fetch failure for one shipment is counted and the
// loop moves on; only the initial shipment listing can fail the run.
func (s *Syncer) SyncDocuments(ctx context.Context) (Result, error) {
	const kind = "documents"
	started := s.now()
	s.publish(kind, Event{Type: "sync.started"})

	var res Result
	shipments, err := s.store.ListExternalShipments(ctx)
	if err != nil {
		err = fmt.Errorf("list synced shipments: %w", err)
		s.finishRun(ctx, kind, started, res, err)
		return Result{}, err
	}

	for _, sh := range shipments {
		extShipID := *sh.ExternalShipmentID
		docs, err := s.api.ShipmentDocuments(ctx, extShipID)
		if err != nil {
			s.recordFailure(kind, &res, extShipID, fmt.Errorf("fetch documents: %w", err))
			continue
		}
		for _, doc := range docs {
			if err := s.upsertDocument(ctx, sh.ID, doc, &res); err != nil {
				s.recordFailure(kind, &res, doc.ID, err)
			}
		}
	}

	s.finishRun(ctx, kind, started, res, nil)
	return res, nil
}

func (s *Syncer) upsertDocument(ctx context.Context, shipmentID string, ext forwarder.Document, res *Result) error {
	if ext.ID <= 0 {
		return fmt.Errorf("missing document id")
	}
	now := s.now()
	fileName := ext.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("document-%d", ext.ID)
	}
	existing, err := s.store.GetDocumentByExternalID(ctx, ext.ID)
	switch {
	case err == nil:
		existing.Type = mapper.DocumentType(ext.Type)
		existing.Number = ext.Number
		existing.FileName = fileName
		existing.FileURL = ext.FileURL
		existing.DownloadURL = ext.DownloadURL
		existing.SizeBytes = ext.SizeBytes
		existing.ContentType = ext.ContentType
		existing.LastSyncedAt = &now
		if err := s.store.UpdateDocument(ctx, existing); err != nil {
			return err
		}
		s.recordOutcome("documents", res, ext.ID, ActionUpdated)
		return nil
	case err == store.ErrNotFound:
		doc := model.Document{
			ShipmentID:         shipmentID,
			ExternalDocumentID: ext.ID,
			Type:               mapper.DocumentType(ext.Type),
			Number:             ext.Number,
			FileName:           fileName,
			FileURL:            ext.FileURL,
			DownloadURL:        ext.DownloadURL,
			SizeBytes:          ext.SizeBytes,
			ContentType:        ext.ContentType,
			LastSyncedAt:       &now,
		}
		if _, err := s.store.InsertDocument(ctx, doc); err != nil {
			return err
		}
		s.recordOutcome("documents", res, ext.ID, ActionCreated)
		return nil
	default:
		return err
	}
}
