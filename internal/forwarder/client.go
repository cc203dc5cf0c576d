package forwarder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"freightsync/internal/metrics"
)

// APIError is any non-2xx answer from the logistics API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("forwarder: api returned %d: %s", e.Status, e.Body)
}

// Client is a thin authenticated wrapper over the logistics API. It does no
// retrying; callers own that decision. A rate limiter bounds how hard the
// reconcilers can hit the provider.
type Client struct {
	base    string
	tokens  TokenSource
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(baseURL string, tokens TokenSource, log zerolog.Logger) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		log:     log,
	}
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("forwarder: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListShipmentsQuery are the optional filters on the shipment listing.
type ListShipmentsQuery struct {
	Status        string
	Reference     string
	ModifiedSince string
}

// ListShipments fetches one page. The provider has shipped several envelope
// shapes over time, so the raw body is normalized by decodeShipmentList.
func (c *Client) ListShipments(ctx context.Context, page, pageSize int, q ListShipmentsQuery) ([]Shipment, error) {
	vals := url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	if q.Status != "" {
		vals.Set("status", q.Status)
	}
	if q.Reference != "" {
		vals.Set("reference", q.Reference)
	}
	if q.ModifiedSince != "" {
		vals.Set("modifiedSinceTimeStamp", q.ModifiedSince)
	}
	var raw json.RawMessage
	if err := c.get(ctx, "shipments", "/shipments", vals, &raw); err != nil {
		return nil, err
	}
	return decodeShipmentList(raw)
}

// decodeShipmentList accepts a bare array or an object wrapping the array
// under one of the keys the provider has used. An unrecognized shape is an
// error rather than a silent empty result.
func decodeShipmentList(raw []byte) ([]Shipment, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []Shipment
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("forwarder: decode shipment array: %w", err)
		}
		return list, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("forwarder: decode shipment envelope: %w", err)
	}
	for _, key := range []string{"shipments", "data", "items", "content"} {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		var list []Shipment
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, fmt.Errorf("forwarder: decode %q envelope: %w", key, err)
		}
		return list, nil
	}
	return nil, fmt.Errorf("forwarder: unrecognized shipment list envelope (keys: %s)", envelopeKeys(envelope))
}

func envelopeKeys(m map[string]json.RawMessage) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return strings.Join(keys, ",")
}

func (c *Client) ShipmentEvents(ctx context.Context, id int64) ([]Event, error) {
	var events []Event
	err := c.get(ctx, "shipment_events", fmt.Sprintf("/shipments/%d/events", id), nil, &events)
	return events, err
}

func (c *Client) ShipmentDocuments(ctx context.Context, id int64) ([]Document, error) {
	var docs []Document
	err := c.get(ctx, "shipment_documents", fmt.Sprintf("/shipments/%d/documents", id), nil, &docs)
	return docs, err
}

func (c *Client) ListInvoices(ctx context.Context, page, pageSize int, status string) ([]Invoice, error) {
	vals := url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	if status != "" {
		vals.Set("status", status)
	}
	var invoices []Invoice
	err := c.get(ctx, "invoices", "/invoices", vals, &invoices)
	return invoices, err
}
