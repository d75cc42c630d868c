package orders

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/logger"
)

// CancellationService cancels orders before the parcel leaves the courier
// network. Once the shipment is in flight the customer is pointed at the
// return flow instead.
type CancellationService struct {
	orderRepo order.Repository
	gateway   logistics.Gateway
}

// NewCancellationService creates a new CancellationService
func NewCancellationService(orderRepo order.Repository, gateway logistics.Gateway) *CancellationService {
	return &CancellationService{
		orderRepo: orderRepo,
		gateway:   gateway,
	}
}

// Cancel cancels the customer's order. When a provider shipment was already
// created the provider must confirm its cancellation first: a provider
// failure surfaces to the caller and the order stays uncancelled, so the
// local state never claims a shipment is dead while the provider still
// moves it.
func (s *CancellationService) Cancel(ctx context.Context, customerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, shared.ErrUnauthorized
	}

	if o.ShipmentInFlight() {
		return nil, shared.NewDomainError("NOT_ALLOWED", "Order already shipped. Please use return after delivery.")
	}

	if providerOrderID := o.MetaString(order.MetaShiprocketOrderID); providerOrderID != "" {
		if err := s.gateway.CancelOrders(ctx, []string{providerOrderID}); err != nil {
			logger.FromContext(ctx).Error("provider-side cancel failed",
				zap.String("order_id", o.ID.String()),
				zap.String("provider_order_id", providerOrderID),
				zap.Error(err))
			return nil, shared.NewDomainError("GATEWAY_FAILURE", "Failed to cancel shipment: "+err.Error())
		}
		o.SetMeta(order.MetaShiprocketStatus, "cancelled")
	}

	if err := o.Cancel(); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// GetOwned retrieves an order and verifies the customer owns it
func (s *CancellationService) GetOwned(ctx context.Context, customerID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, shared.ErrUnauthorized
	}
	response := ToOrderResponse(o)
	return &response, nil
}
