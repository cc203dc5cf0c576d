package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Shipment numbers follow HB-<year>-NNNN.
const shipmentNumberPrefix = "HB"

// FormatShipmentNumber renders a shipment number for the given year and
// sequence.
func FormatShipmentNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", shipmentNumberPrefix, year, seq)
}

// parseShipmentNumber extracts the sequence from a shipment number of the
// given year; ok is false for locally assigned numbers in other formats.
func parseShipmentNumber(number string, year int) (int, bool) {
	prefix := fmt.Sprintf("%s-%d-", shipmentNumberPrefix, year)
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
