package logistics

import "strings"

// ShipmentStatus is the canonical shipment state this service understands.
// Providers report many free-form strings; everything else maps to unknown
// with the raw value preserved.
type ShipmentStatus struct {
	Canonical string
	Raw       string
}

// Canonical shipment states
const (
	CanonicalPickupInitiated = "pickup_initiated"
	CanonicalPickedUp        = "picked_up"
	CanonicalInTransit       = "in_transit"
	CanonicalOutForDelivery  = "out_for_delivery"
	CanonicalDelivered       = "delivered"
	CanonicalUnknown         = "unknown"
)

// Known returns false for statuses that did not match any canonical state
func (s ShipmentStatus) Known() bool {
	return s.Canonical != CanonicalUnknown
}

// String returns the canonical name
func (s ShipmentStatus) String() string {
	return s.Canonical
}

// NormalizeStatus maps a raw provider status string onto the canonical set
// by case-insensitive substring match. Match order matters: "out for
// delivery" contains "delivery" and must win over the delivered check.
func NormalizeStatus(raw string) ShipmentStatus {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case lowered == "":
		return ShipmentStatus{Canonical: CanonicalUnknown, Raw: raw}
	case strings.Contains(lowered, "out for delivery"):
		return ShipmentStatus{Canonical: CanonicalOutForDelivery, Raw: raw}
	case strings.Contains(lowered, "delivered"):
		return ShipmentStatus{Canonical: CanonicalDelivered, Raw: raw}
	case strings.Contains(lowered, "picked up"), strings.Contains(lowered, "picked_up"),
		strings.Contains(lowered, "pickup completed"):
		return ShipmentStatus{Canonical: CanonicalPickedUp, Raw: raw}
	case strings.Contains(lowered, "in transit"), strings.Contains(lowered, "in_transit"),
		strings.Contains(lowered, "shipped"):
		return ShipmentStatus{Canonical: CanonicalInTransit, Raw: raw}
	case strings.Contains(lowered, "pickup"):
		// Scheduled, generated, queued and similar pre-pickup states.
		return ShipmentStatus{Canonical: CanonicalPickupInitiated, Raw: raw}
	}
	return ShipmentStatus{Canonical: CanonicalUnknown, Raw: raw}
}
