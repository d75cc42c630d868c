package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	returnsapp "github.com/returns/backend/internal/application/returns"
)

// ReturnRequestHandler handles return request API endpoints for both the
// storefront and the admin panel
type ReturnRequestHandler struct {
	BaseHandler
	lifecycle *returnsapp.LifecycleService
}

// NewReturnRequestHandler creates a new ReturnRequestHandler
func NewReturnRequestHandler(lifecycle *returnsapp.LifecycleService) *ReturnRequestHandler {
	return &ReturnRequestHandler{lifecycle: lifecycle}
}

// Create opens a return request for the authenticated customer
// POST /store/return-requests
func (h *ReturnRequestHandler) Create(c *gin.Context) {
	customerID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}

	var req returnsapp.CreateReturnRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.lifecycle.Create(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListOwn lists the authenticated customer's return requests
// GET /store/return-requests
func (h *ReturnRequestHandler) ListOwn(c *gin.Context) {
	customerID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}

	var filter returnsapp.ReturnRequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.lifecycle.ListByCustomer(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, pageOrDefault(filter.Page), pageSizeOrDefault(filter.PageSize))
}

// GetOwn retrieves one of the customer's return requests
// GET /store/return-requests/:id
func (h *ReturnRequestHandler) GetOwn(c *gin.Context) {
	customerID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid return request ID format")
		return
	}

	resp, err := h.lifecycle.GetOwned(c.Request.Context(), customerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List lists return requests for admins
// GET /admin/return-requests
func (h *ReturnRequestHandler) List(c *gin.Context) {
	var filter returnsapp.ReturnRequestListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, pageOrDefault(filter.Page), pageSizeOrDefault(filter.PageSize))
}

// GetByID retrieves a return request for admins, bank details included
// GET /admin/return-requests/:id
func (h *ReturnRequestHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid return request ID format")
		return
	}

	resp, err := h.lifecycle.GetByID(c.Request.Context(), id, true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve approves a pending return request
// POST /admin/return-requests/:id/approve
func (h *ReturnRequestHandler) Approve(c *gin.Context) {
	h.adminTransition(c, func(id, actorID uuid.UUID) (*returnsapp.ReturnRequestResponse, error) {
		return h.lifecycle.Approve(c.Request.Context(), id, actorID)
	})
}

// Reject rejects a pending return request
// POST /admin/return-requests/:id/reject
func (h *ReturnRequestHandler) Reject(c *gin.Context) {
	var req returnsapp.RejectReturnRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Rejection reason is required")
		return
	}
	h.adminTransition(c, func(id, actorID uuid.UUID) (*returnsapp.ReturnRequestResponse, error) {
		return h.lifecycle.Reject(c.Request.Context(), id, actorID, req.Reason)
	})
}

// InitiatePickup books a reverse pickup for an approved return
// POST /admin/return-requests/:id/initiate-pickup
func (h *ReturnRequestHandler) InitiatePickup(c *gin.Context) {
	h.adminTransition(c, func(id, _ uuid.UUID) (*returnsapp.ReturnRequestResponse, error) {
		return h.lifecycle.InitiatePickup(c.Request.Context(), id)
	})
}

// MarkReceived records warehouse receipt of the returned goods
// POST /admin/return-requests/:id/mark-received
func (h *ReturnRequestHandler) MarkReceived(c *gin.Context) {
	h.adminTransition(c, func(id, _ uuid.UUID) (*returnsapp.ReturnRequestResponse, error) {
		return h.lifecycle.MarkReceived(c.Request.Context(), id)
	})
}

// MarkRefunded closes the return after the refund was paid out
// POST /admin/return-requests/:id/mark-refunded
func (h *ReturnRequestHandler) MarkRefunded(c *gin.Context) {
	h.adminTransition(c, func(id, actorID uuid.UUID) (*returnsapp.ReturnRequestResponse, error) {
		return h.lifecycle.MarkRefunded(c.Request.Context(), id, actorID)
	})
}

func (h *ReturnRequestHandler) adminTransition(c *gin.Context, apply func(id, actorID uuid.UUID) (*returnsapp.ReturnRequestResponse, error)) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Not authenticated")
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid return request ID format")
		return
	}

	resp, err := apply(id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func pageOrDefault(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func pageSizeOrDefault(pageSize int) int {
	if pageSize < 1 {
		return 20
	}
	return pageSize
}
