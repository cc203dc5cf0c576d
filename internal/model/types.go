package model

import "time"

// CarrierName is stamped on every shipment imported from the forwarder.
const CarrierName = "HB Freight"

type ShipmentStatus string

const (
	ShipmentPlanned   ShipmentStatus = "planned"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentArrived   ShipmentStatus = "arrived"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCancelled ShipmentStatus = "cancelled"
)

type Modality string

const (
	ModalityAir    Modality = "air"
	ModalitySeaFCL Modality = "sea_fcl"
	ModalityRoad   Modality = "road"
)

type DocumentType string

const (
	DocBillOfLading         DocumentType = "bill_of_lading"
	DocAirwayBill           DocumentType = "airway_bill"
	DocCommercialInvoice    DocumentType = "commercial_invoice"
	DocPackingList          DocumentType = "packing_list"
	DocCertificateOfOrigin  DocumentType = "certificate_of_origin"
	DocCustomsDeclaration   DocumentType = "customs_declaration"
	DocImportExportPermit   DocumentType = "import_export_permit"
	DocDeliveryNote         DocumentType = "delivery_note"
	DocHealthCertificate    DocumentType = "health_certificate"
	DocInsuranceCertificate DocumentType = "insurance_certificate"
	DocProofOfDelivery      DocumentType = "proof_of_delivery"
	DocOther                DocumentType = "other"
)

type InvoiceStatus string

const (
	InvoiceOpen    InvoiceStatus = "open"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Shipment is the locally owned shipment row. ExternalShipmentID is the
// idempotency key for imports; nil means the shipment originated locally and
// is never touched by the sync engine.
type Shipment struct {
	ID                     string         `json:"id"`
	Number                 string         `json:"number"`
	ExternalShipmentID     *int64         `json:"externalShipmentId,omitempty"`
	Status                 ShipmentStatus `json:"status"`
	Modality               Modality       `json:"modality"`
	OriginCity             string         `json:"originCity,omitempty"`
	OriginCountryCode      string         `json:"originCountryCode,omitempty"`
	OriginCountryName      string         `json:"originCountryName,omitempty"`
	DestinationCity        string         `json:"destinationCity,omitempty"`
	DestinationCountryCode string         `json:"destinationCountryCode,omitempty"`
	DestinationCountryName string         `json:"destinationCountryName,omitempty"`
	CustomerReference      string         `json:"customerReference,omitempty"`
	CarrierName            string         `json:"carrierName,omitempty"`
	ContainerNumber        string         `json:"containerNumber,omitempty"`
	CO2EmissionValue       float64        `json:"co2EmissionValue,omitempty"`
	CO2EmissionUnit        string         `json:"co2EmissionUnit,omitempty"`
	Notes                  string         `json:"notes,omitempty"`
	LastSyncedAt           *time.Time     `json:"lastSyncedAt,omitempty"`
}

// Document is a customs/transport document attached to one shipment.
type Document struct {
	ID                 string       `json:"id"`
	ShipmentID         string       `json:"shipmentId"`
	ExternalDocumentID int64        `json:"externalDocumentId"`
	Type               DocumentType `json:"type"`
	Number             string       `json:"number,omitempty"`
	FileName           string       `json:"fileName"`
	FileURL            string       `json:"fileUrl,omitempty"`
	DownloadURL        string       `json:"downloadUrl,omitempty"`
	SizeBytes          int64        `json:"sizeBytes,omitempty"`
	ContentType        string       `json:"contentType,omitempty"`
	LastSyncedAt       *time.Time   `json:"lastSyncedAt,omitempty"`
}

// Invoice amounts are recomputed from the latest external snapshot on every
// sync; PaidAmount is always TotalAmount - OpenAmount.
type Invoice struct {
	ID                string        `json:"id"`
	ExternalInvoiceID int64         `json:"externalInvoiceId"`
	Number            string        `json:"number"`
	IssueDate         time.Time     `json:"issueDate"`
	DueDate           *time.Time    `json:"dueDate,omitempty"`
	Status            InvoiceStatus `json:"status"`
	Currency          string        `json:"currency,omitempty"`
	TotalAmount       float64       `json:"totalAmount"`
	OpenAmount        float64       `json:"openAmount"`
	PaidAmount        float64       `json:"paidAmount"`
	PaidAt            *time.Time    `json:"paidAt,omitempty"`
	LastSyncedAt      *time.Time    `json:"lastSyncedAt,omitempty"`
}

// SyncRun is the persisted summary of one reconciler invocation.
type SyncRun struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Linked     int       `json:"linked,omitempty"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	DurationMs int64     `json:"durationMs"`
}

const (
	SyncRunSuccess = "success"
	SyncRunPartial = "partial"
	SyncRunFailed  = "failed"
)
