package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/domain/order"
)

// OrderItemResponse is one order line in a response
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	Status      string              `json:"status"`
	PaymentType string              `json:"payment_type"`
	Total       decimal.Decimal     `json:"total"`
	DeliveredAt *time.Time          `json:"delivered_at,omitempty"`
	Items       []OrderItemResponse `json:"items"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		PaymentType: o.PaymentType,
		Total:       o.Total,
		DeliveredAt: o.DeliveredAt,
		Items:       items,
		Metadata:    o.Metadata,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ShipmentResponse identifies a newly created provider shipment
type ShipmentResponse struct {
	OrderID           uuid.UUID `json:"order_id"`
	ShiprocketOrderID string    `json:"shiprocket_order_id"`
	ShipmentID        string    `json:"shipment_id,omitempty"`
	AWB               string    `json:"awb,omitempty"`
	Courier           string    `json:"courier,omitempty"`
	Status            string    `json:"status"`
}

// TrackingEventResponse is one scan in the tracking history
type TrackingEventResponse struct {
	Date     string `json:"date"`
	Activity string `json:"activity"`
	Location string `json:"location"`
}

// TrackingResponse is the provider's tracking view of a shipment
type TrackingResponse struct {
	AWB           string                  `json:"awb"`
	CurrentStatus string                  `json:"current_status"`
	RawStatus     string                  `json:"raw_status,omitempty"`
	Courier       string                  `json:"courier,omitempty"`
	ETA           string                  `json:"eta,omitempty"`
	Events        []TrackingEventResponse `json:"events"`
}

// ToTrackingResponse converts provider tracking info to a response
func ToTrackingResponse(info *logistics.TrackingInfo) TrackingResponse {
	events := make([]TrackingEventResponse, 0, len(info.Events))
	for _, e := range info.Events {
		events = append(events, TrackingEventResponse{
			Date:     e.Date,
			Activity: e.Activity,
			Location: e.Location,
		})
	}
	return TrackingResponse{
		AWB:           info.AWB,
		CurrentStatus: info.CurrentStatus.Canonical,
		RawStatus:     info.CurrentStatus.Raw,
		Courier:       info.Courier,
		ETA:           info.ETA,
		Events:        events,
	}
}
