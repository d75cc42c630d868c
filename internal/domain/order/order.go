package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/returns/backend/internal/domain/shared"
)

// Metadata keys mirrored from the logistics provider.
const (
	MetaShiprocketOrderID = "shiprocket_order_id"
	MetaShiprocketAWB     = "shiprocket_awb"
	MetaShiprocketStatus  = "shiprocket_status"
	MetaFulfillmentStatus = "fulfillment_status"
	MetaDeliveredAt       = "delivered_at"
)

// Status represents the order lifecycle as far as this service cares
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Address is the shipping contact and address captured on the order
type Address struct {
	Name        string `gorm:"size:200"`
	Phone       string `gorm:"size:20"`
	Email       string `gorm:"size:200"`
	AddressLine string
	City        string `gorm:"size:100"`
	State       string `gorm:"size:100"`
	Country     string `gorm:"size:100"`
	Pincode     string `gorm:"size:10"`
}

// OrderItem is a single order line
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Order is the commerce-platform order this service reconciles shipment
// state into. Provider identifiers live in the metadata map.
type Order struct {
	shared.BaseAggregateRoot
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      Status    `gorm:"not null"`
	PaymentType string
	Total       decimal.Decimal `gorm:"type:decimal(12,2)"`
	Shipping    Address         `gorm:"embedded;embeddedPrefix:shipping_"`
	DeliveredAt *time.Time
	Items       []OrderItem    `gorm:"foreignKey:OrderID;references:ID"`
	Metadata    map[string]any `gorm:"serializer:json"`
}

// TableName overrides the GORM table name
func (Order) TableName() string {
	return "orders"
}

// TableName overrides the GORM table name
func (OrderItem) TableName() string {
	return "order_items"
}

// MetaString reads a metadata value as a string, empty when absent.
func (o *Order) MetaString(key string) string {
	if o.Metadata == nil {
		return ""
	}
	if v, ok := o.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// SetMeta writes a metadata value
func (o *Order) SetMeta(key string, value any) {
	if o.Metadata == nil {
		o.Metadata = make(map[string]any)
	}
	o.Metadata[key] = value
	o.Touch()
}

// ShipmentInFlight reports whether the provider already has the parcel.
// Orders in this state cannot be cancelled anymore.
func (o *Order) ShipmentInFlight() bool {
	switch o.MetaString(MetaShiprocketStatus) {
	case "picked_up", "in_transit", "out_for_delivery", "delivered":
		return true
	}
	switch o.MetaString(MetaFulfillmentStatus) {
	case "shipped", "delivered":
		return true
	}
	return o.Status == StatusShipped || o.Status == StatusDelivered
}

// MarkDelivered records the delivery timestamp
func (o *Order) MarkDelivered(at time.Time) {
	o.Status = StatusDelivered
	o.DeliveredAt = &at
	o.SetMeta(MetaFulfillmentStatus, "delivered")
	o.SetMeta(MetaDeliveredAt, at.UTC().Format(time.RFC3339))
}

// Cancel marks the order cancelled
func (o *Order) Cancel() error {
	if o.Status == StatusCancelled {
		return shared.NewDomainError("NOT_ALLOWED", "Order is already cancelled")
	}
	o.Status = StatusCancelled
	o.Touch()
	return nil
}

// FindItem returns the order line with the given ID, nil when absent.
func (o *Order) FindItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}
