package returns

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/config"
	"github.com/returns/backend/internal/infrastructure/crypto"
)

// LifecycleService drives a return request from creation through refund
type LifecycleService struct {
	returnRepo returns.Repository
	orderRepo  order.Repository
	gateway    logistics.Gateway
	cipher     *crypto.BankCipher
	shiprocket *config.ShiprocketConfig
	windowDays int
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	returnRepo returns.Repository,
	orderRepo order.Repository,
	gateway logistics.Gateway,
	cipher *crypto.BankCipher,
	shiprocket *config.ShiprocketConfig,
	windowDays int,
) *LifecycleService {
	return &LifecycleService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		gateway:    gateway,
		cipher:     cipher,
		shiprocket: shiprocket,
		windowDays: windowDays,
	}
}

// Create opens a return request for a delivered order owned by the customer
func (s *LifecycleService) Create(ctx context.Context, customerID uuid.UUID, req CreateReturnRequestRequest) (*ReturnRequestResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, shared.ErrUnauthorized
	}

	deliveredAt := o.DeliveredAt
	if deliveredAt == nil {
		if raw := o.MetaString(order.MetaDeliveredAt); raw != "" {
			if parsed, parseErr := time.Parse(time.RFC3339, raw); parseErr == nil {
				deliveredAt = &parsed
			}
		}
	}

	rr, err := returns.NewReturnRequest(
		o.ID, customerID,
		returns.RequestType(req.Type),
		returns.PaymentType(o.PaymentType),
		req.Reason,
		req.Notes,
		deliveredAt,
		s.windowDays,
	)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		orderItem := o.FindItem(item.OrderItemID)
		if orderItem == nil {
			return nil, shared.NewDomainError("INVALID_DATA", "Order item not found: "+item.OrderItemID.String())
		}
		if _, err := rr.AddItem(orderItem.ID, item.Quantity, orderItem.Quantity, item.Condition, item.Reason); err != nil {
			return nil, err
		}
	}

	if rr.RequiresBankDetails() {
		if req.BankDetails == nil {
			return nil, shared.NewDomainError("INVALID_DATA", "Bank details are required for COD refunds")
		}
		encrypted, err := s.cipher.Encrypt(map[string]string{
			"account_holder": req.BankDetails.AccountHolder,
			"account_number": req.BankDetails.AccountNumber,
			"ifsc":           req.BankDetails.IFSC,
			"bank_name":      req.BankDetails.BankName,
		})
		if err != nil {
			return nil, err
		}
		if err := rr.SetBankDetails(encrypted, crypto.AccountLast4(req.BankDetails.AccountNumber)); err != nil {
			return nil, err
		}
	}

	if err := s.returnRepo.Save(ctx, rr); err != nil {
		return nil, err
	}

	response := ToReturnRequestResponse(rr)
	return &response, nil
}

// GetByID retrieves a return request. When includeBankDetails is set the
// encrypted refund account is decrypted into the response; only admin
// callers should ask for it.
func (s *LifecycleService) GetByID(ctx context.Context, id uuid.UUID, includeBankDetails bool) (*ReturnRequestResponse, error) {
	rr, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToReturnRequestResponse(rr)
	if includeBankDetails && rr.BankDetailsEncrypted != "" {
		details, err := s.cipher.Decrypt(rr.BankDetailsEncrypted)
		if err != nil {
			return nil, err
		}
		response.BankDetails = &BankDetailsResponse{
			AccountHolder: details["account_holder"],
			AccountNumber: details["account_number"],
			IFSC:          details["ifsc"],
			BankName:      details["bank_name"],
		}
	}
	return &response, nil
}

// GetOwned retrieves a return request and verifies the customer owns it
func (s *LifecycleService) GetOwned(ctx context.Context, customerID, id uuid.UUID) (*ReturnRequestResponse, error) {
	rr, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.CustomerID != customerID {
		return nil, shared.ErrNotFound
	}
	response := ToReturnRequestResponse(rr)
	return &response, nil
}

// List retrieves return requests with filtering and pagination
func (s *LifecycleService) List(ctx context.Context, filter ReturnRequestListFilter) ([]ReturnRequestResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)

	requests, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.returnRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToReturnRequestResponses(requests), total, nil
}

// ListByCustomer retrieves the customer's own return requests
func (s *LifecycleService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter ReturnRequestListFilter) ([]ReturnRequestResponse, int64, error) {
	domainFilter := s.toDomainFilter(filter)

	requests, err := s.returnRepo.FindByCustomer(ctx, customerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	countFilter := domainFilter
	countFilter.Filters["customer_id"] = customerID
	total, err := s.returnRepo.Count(ctx, countFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToReturnRequestResponses(requests), total, nil
}

// Approve moves a pending return request to approved
func (s *LifecycleService) Approve(ctx context.Context, id, approverID uuid.UUID) (*ReturnRequestResponse, error) {
	return s.transition(ctx, id, func(rr *returns.ReturnRequest) error {
		return rr.Approve(approverID)
	})
}

// Reject moves a pending return request to rejected
func (s *LifecycleService) Reject(ctx context.Context, id, rejecterID uuid.UUID, reason string) (*ReturnRequestResponse, error) {
	return s.transition(ctx, id, func(rr *returns.ReturnRequest) error {
		return rr.Reject(rejecterID, reason)
	})
}

// InitiatePickup books a reverse pickup with the logistics provider for an
// approved return and records the provider identifiers. The provider call
// happens before the save; a failed save leaves the booking orphaned with
// the provider, which reconciles through the webhook later.
func (s *LifecycleService) InitiatePickup(ctx context.Context, id uuid.UUID) (*ReturnRequestResponse, error) {
	rr, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.Status != returns.StatusApproved {
		return nil, shared.NewDomainError("NOT_ALLOWED", "Pickup can only be initiated for an approved return")
	}

	o, err := s.orderRepo.FindByID(ctx, rr.OrderID)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.CreateReversePickup(ctx, s.buildPickupRequest(rr, o))
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, shared.NewDomainError("GATEWAY_FAILURE", "Failed to create reverse pickup: "+err.Error())
	}

	if err := rr.MarkPickupInitiated(result.ProviderOrderID, result.AWB); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, rr); err != nil {
		return nil, err
	}

	response := ToReturnRequestResponse(rr)
	return &response, nil
}

// MarkPickedUp records that the courier collected the parcel
func (s *LifecycleService) MarkPickedUp(ctx context.Context, id uuid.UUID) (*ReturnRequestResponse, error) {
	return s.transition(ctx, id, func(rr *returns.ReturnRequest) error {
		return rr.MarkPickedUp()
	})
}

// MarkReceived records that the warehouse received the returned goods
func (s *LifecycleService) MarkReceived(ctx context.Context, id uuid.UUID) (*ReturnRequestResponse, error) {
	return s.transition(ctx, id, func(rr *returns.ReturnRequest) error {
		return rr.MarkReceived()
	})
}

// MarkRefunded closes the return after the refund has been paid out
func (s *LifecycleService) MarkRefunded(ctx context.Context, id, actorID uuid.UUID) (*ReturnRequestResponse, error) {
	return s.transition(ctx, id, func(rr *returns.ReturnRequest) error {
		return rr.MarkRefunded(actorID)
	})
}

func (s *LifecycleService) transition(ctx context.Context, id uuid.UUID, apply func(*returns.ReturnRequest) error) (*ReturnRequestResponse, error) {
	rr, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(rr); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, rr); err != nil {
		return nil, err
	}
	response := ToReturnRequestResponse(rr)
	return &response, nil
}

func (s *LifecycleService) toDomainFilter(filter ReturnRequestListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Filters = make(map[string]any)
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}
	if filter.Type != nil {
		domainFilter.Filters["type"] = *filter.Type
	}
	if filter.OrderID != nil {
		domainFilter.Filters["order_id"] = *filter.OrderID
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	return domainFilter
}

// buildPickupRequest assembles the reverse pickup from the returned order
// lines, the customer's shipping address and the configured return address.
func (s *LifecycleService) buildPickupRequest(rr *returns.ReturnRequest, o *order.Order) logistics.PickupRequest {
	items := make([]logistics.ParcelItem, 0, len(rr.Items))
	subTotal := decimal.Zero
	for _, returnItem := range rr.Items {
		orderItem := o.FindItem(returnItem.OrderItemID)
		if orderItem == nil {
			continue
		}
		lineTotal := orderItem.UnitPrice.Mul(decimal.NewFromInt(int64(returnItem.Quantity)))
		subTotal = subTotal.Add(lineTotal)
		items = append(items, logistics.ParcelItem{
			Name:         orderItem.ProductName,
			SKU:          orderItem.ID.String(),
			Units:        returnItem.Quantity,
			SellingPrice: orderItem.UnitPrice,
		})
	}

	return logistics.PickupRequest{
		OrderID:   rr.ID.String(),
		OrderDate: rr.CreatedAt,
		PickupFrom: logistics.Party{
			Name:    o.Shipping.Name,
			Phone:   o.Shipping.Phone,
			Email:   o.Shipping.Email,
			Address: o.Shipping.AddressLine,
			City:    o.Shipping.City,
			State:   o.Shipping.State,
			Country: o.Shipping.Country,
			Pincode: o.Shipping.Pincode,
		},
		ReturnTo: logistics.Party{
			Name:    s.shiprocket.ReturnName,
			Phone:   s.shiprocket.ReturnPhone,
			Address: s.shiprocket.ReturnAddress,
			City:    s.shiprocket.ReturnCity,
			State:   s.shiprocket.ReturnState,
			Country: s.shiprocket.ReturnCountry,
			Pincode: s.shiprocket.ReturnPincode,
		},
		Items:    items,
		Payment:  "Prepaid",
		SubTotal: subTotal,
		Dimensions: logistics.Dimensions{
			Length:  s.shiprocket.DefaultLength,
			Breadth: s.shiprocket.DefaultBreadth,
			Height:  s.shiprocket.DefaultHeight,
			Weight:  s.shiprocket.DefaultWeight,
		},
	}
}

func isDomainError(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr)
}
