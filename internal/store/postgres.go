package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"freightsync/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies every .sql file in dir in lexical order (dev helper).
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("migrate %s: %w", f, err)
		}
	}
	return nil
}

const shipmentCols = `id::text, number, external_shipment_id, status, modality,
    origin_city, origin_country_code, origin_country_name,
    destination_city, destination_country_code, destination_country_name,
    customer_reference, carrier_name, container_number,
    co2_emission_value, co2_emission_unit, notes, last_synced_at`

func scanShipment(row interface{ Scan(...any) error }) (model.Shipment, error) {
	var s model.Shipment
	var extID sql.NullInt64
	var origCity, origCC, origCN, destCity, destCC, destCN sql.NullString
	var custRef, carrier, container, unit, notes sql.NullString
	var emission sql.NullFloat64
	var synced sql.NullTime
	err := row.Scan(&s.ID, &s.Number, &extID, &s.Status, &s.Modality,
		&origCity, &origCC, &origCN, &destCity, &destCC, &destCN,
		&custRef, &carrier, &container, &emission, &unit, &notes, &synced)
	if err != nil {
		return s, err
	}
	if extID.Valid {
		v := extID.Int64
		s.ExternalShipmentID = &v
	}
	s.OriginCity, s.OriginCountryCode, s.OriginCountryName = origCity.String, origCC.String, origCN.String
	s.DestinationCity, s.DestinationCountryCode, s.DestinationCountryName = destCity.String, destCC.String, destCN.String
	s.CustomerReference = custRef.String
	s.CarrierName = carrier.String
	s.ContainerNumber = container.String
	s.CO2EmissionValue = emission.Float64
	s.CO2EmissionUnit = unit.String
	s.Notes = notes.String
	if synced.Valid {
		t := synced.Time
		s.LastSyncedAt = &t
	}
	return s, nil
}

func (p *Postgres) GetShipmentByExternalID(ctx context.Context, externalID int64) (model.Shipment, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+shipmentCols+` FROM shipments WHERE external_shipment_id=$1`, externalID)
	s, err := scanShipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (p *Postgres) GetShipment(ctx context.Context, id string) (model.Shipment, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+shipmentCols+` FROM shipments WHERE id=$1`, id)
	s, err := scanShipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

func (p *Postgres) InsertShipment(ctx context.Context, s model.Shipment) (model.Shipment, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO shipments
        (id, number, external_shipment_id, status, modality,
         origin_city, origin_country_code, origin_country_name,
         destination_city, destination_country_code, destination_country_name,
         customer_reference, carrier_name, container_number,
         co2_emission_value, co2_emission_unit, notes, last_synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		s.ID, s.Number, nullInt64Ptr(s.ExternalShipmentID), s.Status, s.Modality,
		nullIfEmpty(s.OriginCity), nullIfEmpty(s.OriginCountryCode), nullIfEmpty(s.OriginCountryName),
		nullIfEmpty(s.DestinationCity), nullIfEmpty(s.DestinationCountryCode), nullIfEmpty(s.DestinationCountryName),
		nullIfEmpty(s.CustomerReference), nullIfEmpty(s.CarrierName), nullIfEmpty(s.ContainerNumber),
		s.CO2EmissionValue, nullIfEmpty(s.CO2EmissionUnit), nullIfEmpty(s.Notes), s.LastSyncedAt)
	return s, err
}

func (p *Postgres) UpdateShipment(ctx context.Context, s model.Shipment) error {
	res, err := p.db.ExecContext(ctx, `UPDATE shipments SET
        number=$2, external_shipment_id=$3, status=$4, modality=$5,
        origin_city=$6, origin_country_code=$7, origin_country_name=$8,
        destination_city=$9, destination_country_code=$10, destination_country_name=$11,
        customer_reference=$12, carrier_name=$13, container_number=$14,
        co2_emission_value=$15, co2_emission_unit=$16, notes=$17, last_synced_at=$18
        WHERE id=$1`,
		s.ID, s.Number, nullInt64Ptr(s.ExternalShipmentID), s.Status, s.Modality,
		nullIfEmpty(s.OriginCity), nullIfEmpty(s.OriginCountryCode), nullIfEmpty(s.OriginCountryName),
		nullIfEmpty(s.DestinationCity), nullIfEmpty(s.DestinationCountryCode), nullIfEmpty(s.DestinationCountryName),
		nullIfEmpty(s.CustomerReference), nullIfEmpty(s.CarrierName), nullIfEmpty(s.ContainerNumber),
		s.CO2EmissionValue, nullIfEmpty(s.CO2EmissionUnit), nullIfEmpty(s.Notes), s.LastSyncedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListExternalShipments(ctx context.Context) ([]model.Shipment, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+shipmentCols+` FROM shipments WHERE external_shipment_id IS NOT NULL ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) ListShipments(ctx context.Context, status, cursor string, limit int) ([]model.Shipment, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	// Cursor is the last seen id, per the simple keyset scheme used across
	// the listing endpoints.
	q := `SELECT ` + shipmentCols + ` FROM shipments`
	args := []any{}
	conds := []string{}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if cursor != "" {
		args = append(args, cursor)
		conds = append(conds, fmt.Sprintf("id::text > $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY id::text LIMIT $%d", len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Shipment{}
	last := ""
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, s)
		last = s.ID
	}
	next := ""
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) MaxShipmentSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("%s-%d-", shipmentNumberPrefix, year)
	var max sql.NullInt64
	err := p.db.QueryRowContext(ctx,
		`SELECT MAX(substring(number from $1)::int) FROM shipments WHERE number LIKE $2`,
		"^"+prefix+`(\d+)$`, prefix+"%").Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

func (p *Postgres) GetDocumentByExternalID(ctx context.Context, externalID int64) (model.Document, error) {
	row := p.db.QueryRowContext(ctx, `SELECT id::text, shipment_id::text, external_document_id, type, number, file_name, file_url, download_url, size_bytes, content_type, last_synced_at
        FROM shipment_documents WHERE external_document_id=$1`, externalID)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	return d, err
}

func scanDocument(row interface{ Scan(...any) error }) (model.Document, error) {
	var d model.Document
	var number, fileURL, downloadURL, contentType sql.NullString
	var size sql.NullInt64
	var synced sql.NullTime
	err := row.Scan(&d.ID, &d.ShipmentID, &d.ExternalDocumentID, &d.Type, &number, &d.FileName, &fileURL, &downloadURL, &size, &contentType, &synced)
	if err != nil {
		return d, err
	}
	d.Number = number.String
	d.FileURL = fileURL.String
	d.DownloadURL = downloadURL.String
	d.SizeBytes = size.Int64
	d.ContentType = contentType.String
	if synced.Valid {
		t := synced.Time
		d.LastSyncedAt = &t
	}
	return d, nil
}

func (p *Postgres) InsertDocument(ctx context.Context, d model.Document) (model.Document, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO shipment_documents
        (id, shipment_id, external_document_id, type, number, file_name, file_url, download_url, size_bytes, content_type, last_synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		d.ID, d.ShipmentID, d.ExternalDocumentID, d.Type, nullIfEmpty(d.Number), d.FileName,
		nullIfEmpty(d.FileURL), nullIfEmpty(d.DownloadURL), d.SizeBytes, nullIfEmpty(d.ContentType), d.LastSyncedAt)
	return d, err
}

func (p *Postgres) UpdateDocument(ctx context.Context, d model.Document) error {
	res, err := p.db.ExecContext(ctx, `UPDATE shipment_documents SET
        shipment_id=$2, type=$3, number=$4, file_name=$5, file_url=$6, download_url=$7, size_bytes=$8, content_type=$9, last_synced_at=$10
        WHERE id=$1`,
		d.ID, d.ShipmentID, d.Type, nullIfEmpty(d.Number), d.FileName,
		nullIfEmpty(d.FileURL), nullIfEmpty(d.DownloadURL), d.SizeBytes, nullIfEmpty(d.ContentType), d.LastSyncedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListDocumentsForShipment(ctx context.Context, shipmentID string) ([]model.Document, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, shipment_id::text, external_document_id, type, number, file_name, file_url, download_url, size_bytes, content_type, last_synced_at
        FROM shipment_documents WHERE shipment_id=$1 ORDER BY external_document_id`, shipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const invoiceCols = `id::text, external_invoice_id, number, issue_date, due_date, status, currency, total_amount, open_amount, paid_amount, paid_at, last_synced_at`

func scanInvoice(row interface{ Scan(...any) error }) (model.Invoice, error) {
	var inv model.Invoice
	var currency sql.NullString
	var due, paidAt, synced sql.NullTime
	err := row.Scan(&inv.ID, &inv.ExternalInvoiceID, &inv.Number, &inv.IssueDate, &due, &inv.Status, &currency,
		&inv.TotalAmount, &inv.OpenAmount, &inv.PaidAmount, &paidAt, &synced)
	if err != nil {
		return inv, err
	}
	inv.Currency = currency.String
	if due.Valid {
		t := due.Time
		inv.DueDate = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	if synced.Valid {
		t := synced.Time
		inv.LastSyncedAt = &t
	}
	return inv, nil
}

func (p *Postgres) GetInvoiceByExternalID(ctx context.Context, externalID int64) (model.Invoice, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE external_invoice_id=$1`, externalID)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return inv, ErrNotFound
	}
	return inv, err
}

func (p *Postgres) InsertInvoice(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO invoices
        (id, external_invoice_id, number, issue_date, due_date, status, currency, total_amount, open_amount, paid_amount, paid_at, last_synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		inv.ID, inv.ExternalInvoiceID, inv.Number, inv.IssueDate, inv.DueDate, inv.Status,
		nullIfEmpty(inv.Currency), inv.TotalAmount, inv.OpenAmount, inv.PaidAmount, inv.PaidAt, inv.LastSyncedAt)
	return inv, err
}

func (p *Postgres) UpdateInvoice(ctx context.Context, inv model.Invoice) error {
	res, err := p.db.ExecContext(ctx, `UPDATE invoices SET
        number=$2, issue_date=$3, due_date=$4, status=$5, currency=$6, total_amount=$7, open_amount=$8, paid_amount=$9, paid_at=$10, last_synced_at=$11
        WHERE id=$1`,
		inv.ID, inv.Number, inv.IssueDate, inv.DueDate, inv.Status, nullIfEmpty(inv.Currency),
		inv.TotalAmount, inv.OpenAmount, inv.PaidAmount, inv.PaidAt, inv.LastSyncedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListInvoices(ctx context.Context, status, cursor string, limit int) ([]model.Invoice, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `SELECT ` + invoiceCols + ` FROM invoices`
	args := []any{}
	conds := []string{}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if cursor != "" {
		args = append(args, cursor)
		conds = append(conds, fmt.Sprintf("id::text > $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY id::text LIMIT $%d", len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Invoice{}
	last := ""
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, inv)
		last = inv.ID
	}
	next := ""
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) InvoiceHasLink(ctx context.Context, invoiceID string) (bool, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM invoice_shipments WHERE invoice_id=$1`, invoiceID).Scan(&n)
	return n > 0, err
}

func (p *Postgres) LinkInvoiceShipment(ctx context.Context, invoiceID, shipmentID string) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO invoice_shipments (invoice_id, shipment_id)
        VALUES ($1,$2) ON CONFLICT (invoice_id, shipment_id) DO NOTHING`, invoiceID, shipmentID)
	return err
}

func (p *Postgres) RecordSyncRun(ctx context.Context, run model.SyncRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO sync_runs
        (id, kind, status, created, updated, linked, errors, started_at, finished_at, duration_ms)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.Kind, run.Status, run.Created, run.Updated, run.Linked, run.Errors,
		run.StartedAt, run.FinishedAt, run.DurationMs)
	return run.ID, err
}

func (p *Postgres) ListSyncRuns(ctx context.Context, kind string, limit int) ([]model.SyncRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if kind != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, kind, status, created, updated, linked, errors, started_at, finished_at, duration_ms
            FROM sync_runs WHERE kind=$1 ORDER BY started_at DESC LIMIT $2`, kind, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT id::text, kind, status, created, updated, linked, errors, started_at, finished_at, duration_ms
            FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SyncRun{}
	for rows.Next() {
		var r model.SyncRun
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &r.Created, &r.Updated, &r.Linked, &r.Errors, &r.StartedAt, &r.FinishedAt, &r.DurationMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
