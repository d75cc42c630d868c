package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/config"
)

// FulfillmentService pushes orders into the logistics provider and exposes
// tracking for admins
type FulfillmentService struct {
	orderRepo order.Repository
	gateway   logistics.Gateway
	cfg       *config.ShiprocketConfig
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(orderRepo order.Repository, gateway logistics.Gateway, cfg *config.ShiprocketConfig) *FulfillmentService {
	return &FulfillmentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		cfg:       cfg,
	}
}

// Ship creates a forward shipment with the provider for a confirmed order
// and records the provider identifiers on the order metadata. Creation is
// not retried: a timeout may still have created the shipment provider-side.
func (s *FulfillmentService) Ship(ctx context.Context, orderID uuid.UUID) (*ShipmentResponse, error) {
	if !s.cfg.AutoForward {
		return nil, shared.NewDomainError("NOT_ALLOWED", "Forward shipment creation is disabled")
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status == order.StatusCancelled {
		return nil, shared.NewDomainError("NOT_ALLOWED", "Cancelled orders cannot be shipped")
	}
	if o.MetaString(order.MetaShiprocketOrderID) != "" {
		return nil, shared.NewDomainError("NOT_ALLOWED", "Order already has a shipment")
	}

	result, err := s.gateway.CreateForwardShipment(ctx, s.buildShipmentRequest(o))
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("GATEWAY_FAILURE", "Failed to create shipment: "+err.Error())
	}

	o.SetMeta(order.MetaShiprocketOrderID, result.ProviderOrderID)
	if result.AWB != "" {
		o.SetMeta(order.MetaShiprocketAWB, result.AWB)
	}
	o.SetMeta(order.MetaShiprocketStatus, "pickup_initiated")
	o.Status = order.StatusConfirmed
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	return &ShipmentResponse{
		OrderID:           o.ID,
		ShiprocketOrderID: result.ProviderOrderID,
		ShipmentID:        result.ShipmentID,
		AWB:               result.AWB,
		Courier:           result.Courier,
		Status:            result.Status,
	}, nil
}

// Track returns the provider's tracking view for an AWB
func (s *FulfillmentService) Track(ctx context.Context, awb string) (*TrackingResponse, error) {
	info, err := s.gateway.TrackByAWB(ctx, awb)
	if err != nil {
		return nil, err
	}
	response := ToTrackingResponse(info)
	return &response, nil
}

func (s *FulfillmentService) buildShipmentRequest(o *order.Order) logistics.ShipmentRequest {
	items := make([]logistics.ParcelItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, logistics.ParcelItem{
			Name:         item.ProductName,
			SKU:          item.ID.String(),
			Units:        item.Quantity,
			SellingPrice: item.UnitPrice,
		})
	}

	payment := "Prepaid"
	if o.PaymentType == "cod" {
		payment = "COD"
	}

	return logistics.ShipmentRequest{
		OrderID:        o.ID.String(),
		OrderDate:      o.CreatedAt,
		PickupLocation: s.cfg.PickupLocation,
		Consignee: logistics.Party{
			Name:    o.Shipping.Name,
			Phone:   o.Shipping.Phone,
			Email:   o.Shipping.Email,
			Address: o.Shipping.AddressLine,
			City:    o.Shipping.City,
			State:   o.Shipping.State,
			Country: o.Shipping.Country,
			Pincode: o.Shipping.Pincode,
		},
		Items:         items,
		PaymentMethod: payment,
		SubTotal:      o.Total,
		Dimensions: logistics.Dimensions{
			Length:  s.cfg.DefaultLength,
			Breadth: s.cfg.DefaultBreadth,
			Height:  s.cfg.DefaultHeight,
			Weight:  s.cfg.DefaultWeight,
		},
	}
}
