package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/returns/backend/internal/domain/shared"
)

// ReturnWindowDays is the default number of days after delivery during
// which a return request may still be opened.
const ReturnWindowDays = 7

// RequestStatus represents the lifecycle status of a return request
type RequestStatus string

const (
	StatusPendingApproval RequestStatus = "pending_approval"
	StatusApproved        RequestStatus = "approved"
	StatusRejected        RequestStatus = "rejected"
	StatusPickupInitiated RequestStatus = "pickup_initiated"
	StatusPickedUp        RequestStatus = "picked_up"
	StatusReceived        RequestStatus = "received"
	StatusRefunded        RequestStatus = "refunded"
	StatusReplaced        RequestStatus = "replaced"
	StatusClosed          RequestStatus = "closed"
)

// IsValid checks if the status is a valid RequestStatus
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusApproved, StatusRejected,
		StatusPickupInitiated, StatusPickedUp, StatusReceived, StatusRefunded,
		StatusReplaced, StatusClosed:
		return true
	}
	return false
}

// String returns the string representation of RequestStatus
func (s RequestStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	switch s {
	case StatusPendingApproval:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusPickupInitiated
	case StatusPickupInitiated:
		return target == StatusPickedUp
	case StatusPickedUp:
		return target == StatusReceived || target == StatusRefunded
	case StatusReceived:
		return target == StatusRefunded
	case StatusRejected, StatusRefunded, StatusReplaced, StatusClosed:
		return false // Terminal states
	}
	return false
}

// RequestType distinguishes a refund return from a replacement
type RequestType string

const (
	TypeReturn      RequestType = "return"
	TypeReplacement RequestType = "replacement"
)

// IsValid checks if the type is a valid RequestType
func (t RequestType) IsValid() bool {
	return t == TypeReturn || t == TypeReplacement
}

// PaymentType is how the original order was paid
type PaymentType string

const (
	PaymentOnline PaymentType = "online"
	PaymentCOD    PaymentType = "cod"
)

// RefundMethod is how the customer gets their money back
type RefundMethod string

const (
	RefundOriginal RefundMethod = "original"
	RefundBank     RefundMethod = "bank"
)

// ReturnRequestItem is a line item in a return request
type ReturnRequestItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderItemID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity    int       `gorm:"not null"`
	Condition   string
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReturnRequestItem creates a return line item, validating the returned
// quantity against the quantity on the original order line.
func NewReturnRequestItem(requestID, orderItemID uuid.UUID, quantity, orderedQuantity int, condition, reason string) (*ReturnRequestItem, error) {
	if orderItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DATA", "Order item ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_DATA", "Return quantity must be positive")
	}
	if quantity > orderedQuantity {
		return nil, shared.NewDomainError("INVALID_DATA", "Return quantity cannot exceed ordered quantity")
	}

	now := time.Now()
	return &ReturnRequestItem{
		ID:          uuid.New(),
		RequestID:   requestID,
		OrderItemID: orderItemID,
		Quantity:    quantity,
		Condition:   condition,
		Reason:      reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ReturnRequest is the aggregate root for a customer return or replacement.
// Rows are never deleted; rejection and refund are terminal statuses.
type ReturnRequest struct {
	shared.BaseAggregateRoot
	OrderID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Type       RequestType   `gorm:"not null"`
	Status     RequestStatus `gorm:"not null;index"`
	Reason     string
	Notes      string

	PaymentType  PaymentType
	RefundMethod RefundMethod

	// COD refunds carry customer bank details, stored encrypted. Only the
	// last four digits of the account number are kept in cleartext.
	BankDetailsEncrypted string `gorm:"type:text"`
	BankAccountLast4     string `gorm:"size:4"`

	Items []ReturnRequestItem `gorm:"foreignKey:RequestID;references:ID"`

	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectedAt        *time.Time
	RejectedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectionReason   string
	PickupInitiatedAt *time.Time
	PickedUpAt        *time.Time
	ReceivedAt        *time.Time
	RefundedAt        *time.Time
	RefundedBy        *uuid.UUID `gorm:"type:uuid"`

	// Mirror of the logistics provider state for this return shipment.
	ShiprocketOrderID string
	ShiprocketAWB     string `gorm:"index"`
	ShiprocketStatus  string

	Metadata map[string]any `gorm:"serializer:json"`
}

// TableName overrides the GORM table name
func (ReturnRequest) TableName() string {
	return "return_requests"
}

// TableName overrides the GORM table name
func (ReturnRequestItem) TableName() string {
	return "return_request_items"
}

// NewReturnRequest opens a return request for a delivered order. The order
// must have been delivered no more than windowDays ago.
func NewReturnRequest(
	orderID, customerID uuid.UUID,
	reqType RequestType,
	paymentType PaymentType,
	reason, notes string,
	deliveredAt *time.Time,
	windowDays int,
) (*ReturnRequest, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DATA", "Order ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DATA", "Customer ID cannot be empty")
	}
	if !reqType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DATA", "Request type must be return or replacement")
	}
	if deliveredAt == nil {
		return nil, shared.NewDomainError("INVALID_DATA", "Order has not been delivered yet")
	}
	if windowDays <= 0 {
		windowDays = ReturnWindowDays
	}
	if time.Since(*deliveredAt) > time.Duration(windowDays)*24*time.Hour {
		return nil, shared.NewDomainError("INVALID_DATA", "Return window has expired.")
	}

	return &ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		CustomerID:        customerID,
		Type:              reqType,
		Status:            StatusPendingApproval,
		Reason:            reason,
		Notes:             notes,
		PaymentType:       paymentType,
		RefundMethod:      RefundOriginal,
		Items:             make([]ReturnRequestItem, 0),
		Metadata:          make(map[string]any),
	}, nil
}

// AddItem adds a line item to the request. Only allowed before approval.
func (r *ReturnRequest) AddItem(orderItemID uuid.UUID, quantity, orderedQuantity int, condition, reason string) (*ReturnRequestItem, error) {
	if r.Status != StatusPendingApproval {
		return nil, shared.NewDomainError("NOT_ALLOWED", "Cannot add items after the request has been reviewed")
	}
	for _, item := range r.Items {
		if item.OrderItemID == orderItemID {
			return nil, shared.NewDomainError("INVALID_DATA", "Order item already present in request")
		}
	}

	item, err := NewReturnRequestItem(r.ID, orderItemID, quantity, orderedQuantity, condition, reason)
	if err != nil {
		return nil, err
	}

	r.Items = append(r.Items, *item)
	r.Touch()
	return item, nil
}

// SetBankDetails attaches encrypted bank details for COD refunds.
func (r *ReturnRequest) SetBankDetails(encrypted, last4 string) error {
	if encrypted == "" {
		return shared.NewDomainError("INVALID_DATA", "Encrypted bank details cannot be empty")
	}
	r.BankDetailsEncrypted = encrypted
	r.BankAccountLast4 = last4
	r.RefundMethod = RefundBank
	r.Touch()
	return nil
}

// RequiresBankDetails reports whether the request cannot proceed without
// bank details. COD orders have no original payment channel to refund to,
// so replacements that fall back to a refund need the account as well.
func (r *ReturnRequest) RequiresBankDetails() bool {
	return r.PaymentType == PaymentCOD
}

// Approve transitions pending_approval -> approved
func (r *ReturnRequest) Approve(approverID uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusApproved) {
		return shared.NewDomainError("NOT_ALLOWED", fmt.Sprintf("Cannot approve request in %s status", r.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_DATA", "Approver ID cannot be empty")
	}

	now := time.Now()
	r.Status = StatusApproved
	r.ApprovedAt = &now
	r.ApprovedBy = &approverID
	r.UpdatedAt = now
	return nil
}

// Reject transitions pending_approval -> rejected
func (r *ReturnRequest) Reject(rejecterID uuid.UUID, reason string) error {
	if !r.Status.CanTransitionTo(StatusRejected) {
		return shared.NewDomainError("NOT_ALLOWED", fmt.Sprintf("Cannot reject request in %s status", r.Status))
	}
	if rejecterID == uuid.Nil {
		return shared.NewDomainError("INVALID_DATA", "Rejecter ID cannot be empty")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_DATA", "Rejection reason is required")
	}

	now := time.Now()
	r.Status = StatusRejected
	r.RejectedAt = &now
	r.RejectedBy = &rejecterID
	r.RejectionReason = reason
	r.UpdatedAt = now
	return nil
}

// MarkPickupInitiated transitions approved -> pickup_initiated and records
// the reverse-pickup identifiers returned by the logistics provider.
func (r *ReturnRequest) MarkPickupInitiated(providerOrderID, awb string) error {
	if !r.Status.CanTransitionTo(StatusPickupInitiated) {
		return shared.NewDomainError("NOT_ALLOWED", fmt.Sprintf("Cannot initiate pickup for request in %s status", r.Status))
	}

	now := time.Now()
	r.Status = StatusPickupInitiated
	r.PickupInitiatedAt = &now
	r.ShiprocketOrderID = providerOrderID
	r.ShiprocketAWB = awb
	r.ShiprocketStatus = StatusPickupInitiated.String()
	r.UpdatedAt = now
	return nil
}

// MarkPickedUp transitions pickup_initiated -> picked_up
func (r *ReturnRequest) MarkPickedUp() error {
	if !r.Status.CanTransitionTo(StatusPickedUp) {
		return shared.NewDomainError("NOT_ALLOWED", fmt.Sprintf("Cannot mark picked up in %s status", r.Status))
	}

	now := time.Now()
	r.Status = StatusPickedUp
	r.PickedUpAt = &now
	r.UpdatedAt = now
	return nil
}

// MarkReceived transitions picked_up -> received
func (r *ReturnRequest) MarkReceived() error {
	if !r.Status.CanTransitionTo(StatusReceived) {
		return shared.NewDomainError("NOT_ALLOWED", fmt.Sprintf("Cannot mark received in %s status", r.Status))
	}

	now := time.Now()
	r.Status = StatusReceived
	r.ReceivedAt = &now
	r.UpdatedAt = now
	return nil
}

// MarkRefunded transitions picked_up or received -> refunded
func (r *ReturnRequest) MarkRefunded(actorID uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusRefunded) {
		return shared.NewDomainError("NOT_ALLOWED", "Refund can be marked only after pickup")
	}

	now := time.Now()
	r.Status = StatusRefunded
	r.RefundedAt = &now
	if actorID != uuid.Nil {
		r.RefundedBy = &actorID
	}
	r.UpdatedAt = now
	return nil
}

// SetShipmentStatus updates the raw provider status mirror without touching
// the lifecycle status.
func (r *ReturnRequest) SetShipmentStatus(raw string) {
	r.ShiprocketStatus = raw
	r.Touch()
}

// IsTerminal returns true if the request is in a terminal state
func (r *ReturnRequest) IsTerminal() bool {
	return r.Status == StatusRejected || r.Status == StatusRefunded
}

// ItemCount returns the number of line items in the request
func (r *ReturnRequest) ItemCount() int {
	return len(r.Items)
}
