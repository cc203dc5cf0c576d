package mapper

import (
	"testing"

	"freightsync/internal/model"
)

func TestShipmentStatus(t *testing.T) {
	cases := []struct {
		in   string
		want model.ShipmentStatus
	}{
		{"Planned", model.ShipmentPlanned},
		{"IN TRANSIT", model.ShipmentInTransit},
		{"  arrived  ", model.ShipmentArrived},
		{"Delivered", model.ShipmentDelivered},
		{"canceled", model.ShipmentCancelled},
		{"", model.ShipmentInTransit},
		{"???", model.ShipmentInTransit},
	}
	for _, c := range cases {
		if got := ShipmentStatus(c.in); got != c.want {
			t.Errorf("ShipmentStatus(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestModality(t *testing.T) {
	if got := Modality("Air"); got != model.ModalityAir {
		t.Fatalf("air -> %s", got)
	}
	if got := Modality("Truck"); got != model.ModalityRoad {
		t.Fatalf("truck -> %s", got)
	}
	if got := Modality(""); got != model.ModalitySeaFCL {
		t.Fatalf("empty -> %s, want sea_fcl", got)
	}
	if got := Modality("hovercraft"); got != model.ModalitySeaFCL {
		t.Fatalf("unknown -> %s, want sea_fcl", got)
	}
}

func TestDocumentType(t *testing.T) {
	cases := []struct {
		in   string
		want model.DocumentType
	}{
		{"Bill of Lading", model.DocBillOfLading},
		{"HBL", model.DocBillOfLading},
		{"AWB", model.DocAirwayBill},
		{"Commercial Invoice", model.DocCommercialInvoice},
		{"packing list", model.DocPackingList},
		{"COO", model.DocCertificateOfOrigin},
		{"Customs Declaration", model.DocCustomsDeclaration},
		{"import permit", model.DocImportExportPermit},
		{"Delivery Note", model.DocDeliveryNote},
		{"phytosanitary", model.DocHealthCertificate},
		{"Insurance Certificate", model.DocInsuranceCertificate},
		{"POD", model.DocProofOfDelivery},
		{"xyz", model.DocOther},
		{"", model.DocOther},
	}
	for _, c := range cases {
		if got := DocumentType(c.in); got != c.want {
			t.Errorf("DocumentType(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestInvoiceStatus(t *testing.T) {
	if got := InvoiceStatus("PAID"); got != model.InvoicePaid {
		t.Fatalf("paid -> %s", got)
	}
	if got := InvoiceStatus("Past Due"); got != model.InvoiceOverdue {
		t.Fatalf("past due -> %s", got)
	}
	if got := InvoiceStatus("weird"); got != model.InvoiceOpen {
		t.Fatalf("unknown -> %s, want open", got)
	}
}

// Totality: every mapper returns a defined enum member for arbitrary input.
func TestMappersNeverEmpty(t *testing.T) {
	inputs := []string{"", " ", "0", "null", "ÅÄÖ", "in_transit!!", "...."}
	for _, in := range inputs {
		if ShipmentStatus(in) == "" {
			t.Errorf("ShipmentStatus(%q) empty", in)
		}
		if Modality(in) == "" {
			t.Errorf("Modality(%q) empty", in)
		}
		if DocumentType(in) == "" {
			t.Errorf("DocumentType(%q) empty", in)
		}
		if InvoiceStatus(in) == "" {
			t.Errorf("InvoiceStatus(%q) empty", in)
		}
	}
}
