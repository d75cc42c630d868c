package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/returns/backend/internal/domain/returns"
)

// CreateReturnRequestRequest represents a customer opening a return or
// replacement for a delivered order
type CreateReturnRequestRequest struct {
	OrderID     uuid.UUID               `json:"order_id" binding:"required"`
	Type        string                  `json:"type" binding:"required,oneof=return replacement"`
	Reason      string                  `json:"reason" binding:"max=500"`
	Notes       string                  `json:"notes" binding:"max=1000"`
	Items       []CreateReturnItemInput `json:"items" binding:"required,min=1,dive"`
	BankDetails *BankDetailsInput       `json:"bank_details"`
}

// CreateReturnItemInput is one order line being returned
type CreateReturnItemInput struct {
	OrderItemID uuid.UUID `json:"order_item_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
	Condition   string    `json:"condition" binding:"max=100"`
	Reason      string    `json:"reason" binding:"max=500"`
}

// BankDetailsInput carries the refund bank account for COD returns.
// It is encrypted at rest; only the account's last four digits stay
// in cleartext.
type BankDetailsInput struct {
	AccountHolder string `json:"account_holder" binding:"required,min=1,max=200"`
	AccountNumber string `json:"account_number" binding:"required,min=4,max=34"`
	IFSC          string `json:"ifsc" binding:"required,min=4,max=20"`
	BankName      string `json:"bank_name" binding:"max=200"`
}

// RejectReturnRequestRequest carries the mandatory rejection reason
type RejectReturnRequestRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ReturnRequestListFilter represents filtering options for listing
type ReturnRequestListFilter struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
	Status     *string    `form:"status"`
	Type       *string    `form:"type"`
	OrderID    *uuid.UUID `form:"order_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
}

// ReturnItemResponse is one returned line in a response
type ReturnItemResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int       `json:"quantity"`
	Condition   string    `json:"condition,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// BankDetailsResponse is the decrypted refund account, exposed to admins only
type BankDetailsResponse struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bank_name,omitempty"`
}

// ReturnRequestResponse represents a return request in API responses
type ReturnRequestResponse struct {
	ID               uuid.UUID            `json:"id"`
	OrderID          uuid.UUID            `json:"order_id"`
	CustomerID       uuid.UUID            `json:"customer_id"`
	Type             string               `json:"type"`
	Status           string               `json:"status"`
	Reason           string               `json:"reason"`
	Notes            string               `json:"notes,omitempty"`
	PaymentType      string               `json:"payment_type"`
	RefundMethod     string               `json:"refund_method"`
	BankAccountLast4 string               `json:"bank_account_last4,omitempty"`
	BankDetails      *BankDetailsResponse `json:"bank_details,omitempty"`
	Items            []ReturnItemResponse `json:"items"`

	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	ApprovedBy        *uuid.UUID `json:"approved_by,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`
	RejectedBy        *uuid.UUID `json:"rejected_by,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	PickupInitiatedAt *time.Time `json:"pickup_initiated_at,omitempty"`
	PickedUpAt        *time.Time `json:"picked_up_at,omitempty"`
	ReceivedAt        *time.Time `json:"received_at,omitempty"`
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`

	ShiprocketOrderID string `json:"shiprocket_order_id,omitempty"`
	ShiprocketAWB     string `json:"shiprocket_awb,omitempty"`
	ShiprocketStatus  string `json:"shiprocket_status,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToReturnRequestResponse converts a domain return request to a response
func ToReturnRequestResponse(r *returns.ReturnRequest) ReturnRequestResponse {
	items := make([]ReturnItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReturnItemResponse{
			ID:          item.ID,
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Condition:   item.Condition,
			Reason:      item.Reason,
		})
	}

	return ReturnRequestResponse{
		ID:                r.ID,
		OrderID:           r.OrderID,
		CustomerID:        r.CustomerID,
		Type:              string(r.Type),
		Status:            string(r.Status),
		Reason:            r.Reason,
		Notes:             r.Notes,
		PaymentType:       string(r.PaymentType),
		RefundMethod:      string(r.RefundMethod),
		BankAccountLast4:  r.BankAccountLast4,
		Items:             items,
		ApprovedAt:        r.ApprovedAt,
		ApprovedBy:        r.ApprovedBy,
		RejectedAt:        r.RejectedAt,
		RejectedBy:        r.RejectedBy,
		RejectionReason:   r.RejectionReason,
		PickupInitiatedAt: r.PickupInitiatedAt,
		PickedUpAt:        r.PickedUpAt,
		ReceivedAt:        r.ReceivedAt,
		RefundedAt:        r.RefundedAt,
		ShiprocketOrderID: r.ShiprocketOrderID,
		ShiprocketAWB:     r.ShiprocketAWB,
		ShiprocketStatus:  r.ShiprocketStatus,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// ToReturnRequestResponses converts a slice of return requests
func ToReturnRequestResponses(requests []returns.ReturnRequest) []ReturnRequestResponse {
	responses := make([]ReturnRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, ToReturnRequestResponse(&requests[i]))
	}
	return responses
}
