package handler

import (
	"github.com/gin-gonic/gin"

	ordersapp "github.com/returns/backend/internal/application/orders"
)

// OrderHandler handles order cancellation and fulfillment endpoints
type OrderHandler struct {
	BaseHandler
	cancellation *ordersapp.CancellationService
	fulfillment  *ordersapp.FulfillmentService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(cancellation *ordersapp.CancellationService, fulfillment *ordersapp.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		cancellation: cancellation,
		fulfillment:  fulfillment,
	}
}

// Cancel cancels the customer's order before it ships
// POST /store/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	customerID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.cancellation.Cancel(c.Request.Context(), customerID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Ship pushes an order into the logistics provider
// POST /admin/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.fulfillment.Ship(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Track returns the provider's tracking view for an AWB
// GET /admin/shipments/track/:awb
func (h *OrderHandler) Track(c *gin.Context) {
	awb := c.Param("awb")
	if awb == "" {
		h.BadRequest(c, "AWB is required")
		return
	}

	resp, err := h.fulfillment.Track(c.Request.Context(), awb)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
