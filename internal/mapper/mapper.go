// Package mapper translates the forwarder's free-text vocabularies into the
// internal enumerations. Every function is total: unknown input falls back to
// a safe default instead of failing.
package mapper

import (
	"strings"

	"freightsync/internal/model"
)

var shipmentStatuses = map[string]model.ShipmentStatus{
	"planned":           model.ShipmentPlanned,
	"booked":            model.ShipmentPlanned,
	"confirmed":         model.ShipmentPlanned,
	"open":              model.ShipmentPlanned,
	"in transit":        model.ShipmentInTransit,
	"in-transit":        model.ShipmentInTransit,
	"intransit":         model.ShipmentInTransit,
	"departed":          model.ShipmentInTransit,
	"sailing":           model.ShipmentInTransit,
	"arrived":           model.ShipmentArrived,
	"arrived at port":   model.ShipmentArrived,
	"discharged":        model.ShipmentArrived,
	"customs clearance": model.ShipmentArrived,
	"delivered":         model.ShipmentDelivered,
	"completed":         model.ShipmentDelivered,
	"closed":            model.ShipmentDelivered,
	"cancelled":         model.ShipmentCancelled,
	"canceled":          model.ShipmentCancelled,
	"booking cancelled": model.ShipmentCancelled,
}

// ShipmentStatus defaults to in transit: the conservative assumption for an
// active import.
func ShipmentStatus(ext string) model.ShipmentStatus {
	if s, ok := shipmentStatuses[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return s
	}
	return model.ShipmentInTransit
}

var modalities = map[string]model.Modality{
	"air":        model.ModalityAir,
	"airfreight": model.ModalityAir,
	"aircargo":   model.ModalityAir,
	"sea":        model.ModalitySeaFCL,
	"ocean":      model.ModalitySeaFCL,
	"fcl":        model.ModalitySeaFCL,
	"sea fcl":    model.ModalitySeaFCL,
	"maritime":   model.ModalitySeaFCL,
	"road":       model.ModalityRoad,
	"truck":      model.ModalityRoad,
	"trucking":   model.ModalityRoad,
	"ftl":        model.ModalityRoad,
}

// Modality defaults to sea FCL, the forwarder's dominant mode.
func Modality(ext string) model.Modality {
	if m, ok := modalities[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return m
	}
	return model.ModalitySeaFCL
}

// documentTypes covers the common synonyms and abbreviations seen in the
// forwarder's documentType field, lowercased.
var documentTypes = map[string]model.DocumentType{
	"bill of lading":           model.DocBillOfLading,
	"bill-of-lading":           model.DocBillOfLading,
	"bol":                      model.DocBillOfLading,
	"b/l":                      model.DocBillOfLading,
	"hbl":                      model.DocBillOfLading,
	"mbl":                      model.DocBillOfLading,
	"seawaybill":               model.DocBillOfLading,
	"sea waybill":              model.DocBillOfLading,
	"airway bill":              model.DocAirwayBill,
	"air waybill":              model.DocAirwayBill,
	"awb":                      model.DocAirwayBill,
	"hawb":                     model.DocAirwayBill,
	"mawb":                     model.DocAirwayBill,
	"commercial invoice":       model.DocCommercialInvoice,
	"invoice":                  model.DocCommercialInvoice,
	"packing list":             model.DocPackingList,
	"packinglist":              model.DocPackingList,
	"certificate of origin":    model.DocCertificateOfOrigin,
	"coo":                      model.DocCertificateOfOrigin,
	"customs declaration":      model.DocCustomsDeclaration,
	"customs entry":            model.DocCustomsDeclaration,
	"sad":                      model.DocCustomsDeclaration,
	"import permit":            model.DocImportExportPermit,
	"export permit":            model.DocImportExportPermit,
	"import/export permit":     model.DocImportExportPermit,
	"delivery note":            model.DocDeliveryNote,
	"delivery order":           model.DocDeliveryNote,
	"health certificate":       model.DocHealthCertificate,
	"phytosanitary":            model.DocHealthCertificate,
	"insurance certificate":    model.DocInsuranceCertificate,
	"certificate of insurance": model.DocInsuranceCertificate,
	"proof of delivery":        model.DocProofOfDelivery,
	"pod":                      model.DocProofOfDelivery,
}

// DocumentType defaults to other.
func DocumentType(ext string) model.DocumentType {
	if d, ok := documentTypes[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return d
	}
	return model.DocOther
}

var invoiceStatuses = map[string]model.InvoiceStatus{
	"open":        model.InvoiceOpen,
	"outstanding": model.InvoiceOpen,
	"unpaid":      model.InvoiceOpen,
	"pending":     model.InvoiceOpen,
	"paid":        model.InvoicePaid,
	"settled":     model.InvoicePaid,
	"closed":      model.InvoicePaid,
	"overdue":     model.InvoiceOverdue,
	"past due":    model.InvoiceOverdue,
	"late":        model.InvoiceOverdue,
}

// InvoiceStatus defaults to open; nothing is ever silently marked paid.
func InvoiceStatus(ext string) model.InvoiceStatus {
	if s, ok := invoiceStatuses[strings.ToLower(strings.TrimSpace(ext))]; ok {
		return s
	}
	return model.InvoiceOpen
}
