package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"freightsync/internal/buildinfo"
	"freightsync/internal/forwarder"
	"freightsync/internal/store"
	"freightsync/internal/sync"
)

// SyncShipmentsHandler handles POST /v1/sync/shipments
func (s *Server) SyncShipmentsHandler(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.Sync.SyncShipments)
}

// SyncDocumentsHandler handles POST /v1/sync/documents
func (s *Server) SyncDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.Sync.SyncDocuments)
}

// SyncInvoicesHandler handles POST /v1/sync/invoices
func (s *Server) SyncInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.Sync.SyncInvoices)
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request, fn func(context.Context) (sync.Result, error)) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := fn(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		title := "Sync failed"
		var apiErr *forwarder.APIError
		var authErr *forwarder.AuthError
		switch {
		case errors.Is(err, forwarder.ErrMissingCredentials):
			title = "Sync misconfigured"
		case errors.As(err, &apiErr), errors.As(err, &authErr):
			status = http.StatusBadGateway
			title = "Forwarder unavailable"
		}
		writeProblem(w, status, title, err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SyncRunsHandler handles GET /v1/sync/runs
func (s *Server) SyncRunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	runs, err := s.Store.ListSyncRuns(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List sync runs failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": runs})
}

// ShipmentsHandler handles GET /v1/shipments
func (s *Server) ShipmentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListShipments(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List shipments failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// ShipmentByIDHandler handles GET /v1/shipments/{id} and the /documents and
// /events subresources.
func (s *Server) ShipmentByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/shipments/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	sh, err := s.Store.GetShipment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Shipment not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Get shipment failed", err.Error(), r.URL.Path)
		return
	}
	if len(parts) == 1 {
		writeJSON(w, http.StatusOK, sh)
		return
	}
	switch parts[1] {
	case "documents":
		docs, err := s.Store.ListDocumentsForShipment(r.Context(), sh.ID)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List documents failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": docs})
	case "events":
		if sh.ExternalShipmentID == nil {
			writeProblem(w, http.StatusConflict, "No tracking available", "shipment was not imported from the forwarder", r.URL.Path)
			return
		}
		events, err := s.Events.ShipmentEvents(r.Context(), *sh.ExternalShipmentID)
		if err != nil {
			writeProblem(w, http.StatusBadGateway, "Fetch events failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": events})
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

// InvoicesHandler handles GET /v1/invoices
func (s *Server) InvoicesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListInvoices(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List invoices failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// HealthHandler handles GET /healthz
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler handles GET /readyz
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
