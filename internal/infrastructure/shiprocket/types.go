package shiprocket

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// loginRequest is the body for POST /v1/external/auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the provider's login reply. Token is a bearer token
// valid for several hours; we cache it well below that.
type loginResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

// orderItem is one line inside an order creation payload
type orderItem struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Units        int             `json:"units"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// createOrderRequest is the body for the adhoc forward order endpoint
type createOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderDate       string          `json:"order_date"`
	PickupLocation  string          `json:"pickup_location"`
	BillingName     string          `json:"billing_customer_name"`
	BillingLastName string          `json:"billing_last_name"`
	BillingAddress  string          `json:"billing_address"`
	BillingCity     string          `json:"billing_city"`
	BillingPincode  string          `json:"billing_pincode"`
	BillingState    string          `json:"billing_state"`
	BillingCountry  string          `json:"billing_country"`
	BillingEmail    string          `json:"billing_email"`
	BillingPhone    string          `json:"billing_phone"`
	ShippingIsBill  bool            `json:"shipping_is_billing"`
	OrderItems      []orderItem     `json:"order_items"`
	PaymentMethod   string          `json:"payment_method"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Length          float64         `json:"length"`
	Breadth         float64         `json:"breadth"`
	Height          float64         `json:"height"`
	Weight          float64         `json:"weight"`
}

// createReturnRequest is the body for the return order endpoint. Pickup
// fields describe the customer address, shipping fields the warehouse the
// parcel comes back to.
type createReturnRequest struct {
	OrderID         string          `json:"order_id"`
	OrderDate       string          `json:"order_date"`
	PickupName      string          `json:"pickup_customer_name"`
	PickupAddress   string          `json:"pickup_address"`
	PickupCity      string          `json:"pickup_city"`
	PickupState     string          `json:"pickup_state"`
	PickupCountry   string          `json:"pickup_country"`
	PickupPincode   string          `json:"pickup_pincode"`
	PickupEmail     string          `json:"pickup_email"`
	PickupPhone     string          `json:"pickup_phone"`
	ShippingName    string          `json:"shipping_customer_name"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingState   string          `json:"shipping_state"`
	ShippingCountry string          `json:"shipping_country"`
	ShippingPincode string          `json:"shipping_pincode"`
	ShippingPhone   string          `json:"shipping_phone"`
	OrderItems      []orderItem     `json:"order_items"`
	PaymentMethod   string          `json:"payment_method"`
	SubTotal        decimal.Decimal `json:"sub_total"`
	Length          float64         `json:"length"`
	Breadth         float64         `json:"breadth"`
	Height          float64         `json:"height"`
	Weight          float64         `json:"weight"`
}

// createOrderResponse covers both forward and return order creation.
// Identifier fields arrive as JSON numbers.
type createOrderResponse struct {
	OrderID     int64  `json:"order_id"`
	ShipmentID  int64  `json:"shipment_id"`
	Status      string `json:"status"`
	StatusCode  int    `json:"status_code"`
	AWBCode     string `json:"awb_code"`
	CourierName string `json:"courier_name"`
}

// trackResponse is the reply of GET /v1/external/courier/track/awb/{awb}
type trackResponse struct {
	TrackingData struct {
		TrackStatus   int    `json:"track_status"`
		ShipmentTrack []struct {
			AWBCode       string `json:"awb_code"`
			CurrentStatus string `json:"current_status"`
			Courier       string `json:"courier_name"`
			EDD           string `json:"edd"`
		} `json:"shipment_track"`
		ShipmentTrackActivities []struct {
			Date     string `json:"date"`
			Activity string `json:"activity"`
			Location string `json:"location"`
		} `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}

// cancelOrdersRequest is the body for POST /v1/external/orders/cancel
type cancelOrdersRequest struct {
	IDs []int64 `json:"ids"`
}

// APIError is a non-2xx reply from the provider. The body is kept for
// operator diagnosis; callers branch on the status code only.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("shiprocket: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsAuthFailure reports whether the provider rejected our token
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
