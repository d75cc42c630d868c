package logistics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Party is one side of a shipment, consignee or pickup contact.
type Party struct {
	Name    string
	Phone   string
	Email   string
	Address string
	City    string
	State   string
	Country string
	Pincode string
}

// ParcelItem is a single line inside a shipment
type ParcelItem struct {
	Name         string
	SKU          string
	Units        int
	SellingPrice decimal.Decimal
}

// Dimensions are the parcel dimensions in centimetres and kilograms
type Dimensions struct {
	Length  float64
	Breadth float64
	Height  float64
	Weight  float64
}

// ShipmentRequest describes a forward shipment to be created with the
// provider for an outbound order.
type ShipmentRequest struct {
	OrderID        string
	OrderDate      time.Time
	PickupLocation string
	Consignee      Party
	Items          []ParcelItem
	PaymentMethod  string
	SubTotal       decimal.Decimal
	Dimensions     Dimensions
}

// PickupRequest describes a reverse pickup from the customer back to the
// configured return address.
type PickupRequest struct {
	OrderID    string
	OrderDate  time.Time
	PickupFrom Party
	ReturnTo   Party
	Items      []ParcelItem
	Payment    string
	SubTotal   decimal.Decimal
	Dimensions Dimensions
}

// ShipmentResult identifies the created shipment with the provider
type ShipmentResult struct {
	ProviderOrderID string
	ShipmentID      string
	AWB             string
	Courier         string
	Status          string
}

// TrackingEvent is one scan in a shipment's tracking history
type TrackingEvent struct {
	Date     string
	Activity string
	Location string
}

// TrackingInfo is the provider's view of a shipment
type TrackingInfo struct {
	AWB           string
	CurrentStatus ShipmentStatus
	Courier       string
	ETA           string
	Events        []TrackingEvent
}

// Gateway is the logistics provider abstraction used by the application
// layer. Creation calls are not idempotent and are never retried by
// implementations; tracking and cancellation are.
type Gateway interface {
	CreateForwardShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResult, error)
	CreateReversePickup(ctx context.Context, req PickupRequest) (*ShipmentResult, error)
	TrackByAWB(ctx context.Context, awb string) (*TrackingInfo, error)
	CancelOrders(ctx context.Context, providerOrderIDs []string) error
}
