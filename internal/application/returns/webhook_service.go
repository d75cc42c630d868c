package returns

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/logger"
)

// WebhookService reconciles provider shipment updates into return requests
// and orders. Once a webhook is authenticated it never fails: malformed or
// out-of-order payloads are logged and dropped so the provider does not
// retry them forever.
type WebhookService struct {
	returnRepo returns.Repository
	orderRepo  order.Repository
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(returnRepo returns.Repository, orderRepo order.Repository) *WebhookService {
	return &WebhookService{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
	}
}

// Process applies a provider webhook payload. Payload shapes vary between
// provider event types, so fields are extracted defensively from both the
// top level and the nested data object.
func (s *WebhookService) Process(ctx context.Context, payload map[string]any) {
	log := logger.FromContext(ctx)

	rawStatus := extractString(payload, "current_status", "shipment_status", "status")
	if rawStatus == "" {
		log.Debug("webhook payload carries no status, ignoring")
		return
	}
	status := logistics.NormalizeStatus(rawStatus)

	awb := extractString(payload, "awb", "awb_code")
	if awb != "" {
		if s.applyToReturn(ctx, awb, status) {
			return
		}
	}

	providerOrderID := extractString(payload, "order_id", "channel_order_id", "sr_order_id")
	if providerOrderID != "" || awb != "" {
		s.applyToOrder(ctx, providerOrderID, awb, status)
		return
	}

	log.Info("webhook matched neither a return nor an order",
		zap.String("awb", awb),
		zap.String("status", rawStatus))
}

// applyToReturn updates the return request tracking the AWB. Reports true
// when a matching return was found, whether or not anything changed.
func (s *WebhookService) applyToReturn(ctx context.Context, awb string, status logistics.ShipmentStatus) bool {
	log := logger.FromContext(ctx).With(zap.String("awb", awb), zap.String("status", status.Canonical))

	// One retry absorbs a concurrent admin transition.
	for attempt := 0; attempt < 2; attempt++ {
		rr, err := s.returnRepo.FindByAWB(ctx, awb)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return false
			}
			log.Error("failed to load return for webhook", zap.Error(err))
			return true
		}

		changed := s.advanceReturn(rr, status)
		if rr.ShiprocketStatus != status.Raw {
			rr.SetShipmentStatus(status.Raw)
			changed = true
		}
		if !changed {
			log.Debug("webhook is a duplicate, nothing to apply")
			return true
		}

		err = s.returnRepo.SaveWithLock(ctx, rr)
		if err == nil {
			log.Info("applied webhook to return", zap.String("return_id", rr.ID.String()))
			return true
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			log.Error("failed to save return for webhook", zap.Error(err))
			return true
		}
	}

	log.Warn("gave up applying webhook after concurrent modification")
	return true
}

// advanceReturn moves the lifecycle forward only for picked_up and
// delivered; every other status is just a field-level mirror refresh.
// Stale or out-of-order statuses leave the lifecycle alone.
func (s *WebhookService) advanceReturn(rr *returns.ReturnRequest, status logistics.ShipmentStatus) bool {
	switch status.Canonical {
	case logistics.CanonicalPickedUp:
		if rr.Status.CanTransitionTo(returns.StatusPickedUp) {
			return rr.MarkPickedUp() == nil
		}
	case logistics.CanonicalDelivered:
		// A reverse shipment delivering means the warehouse got it back.
		if rr.Status.CanTransitionTo(returns.StatusPickedUp) {
			if rr.MarkPickedUp() != nil {
				return false
			}
		}
		if rr.Status.CanTransitionTo(returns.StatusReceived) {
			return rr.MarkReceived() == nil
		}
	}
	return false
}

// applyToOrder mirrors a forward-shipment status onto the order metadata,
// matching by provider order ID first and by AWB second
func (s *WebhookService) applyToOrder(ctx context.Context, providerOrderID, awb string, status logistics.ShipmentStatus) {
	log := logger.FromContext(ctx).With(
		zap.String("provider_order_id", providerOrderID),
		zap.String("awb", awb),
		zap.String("status", status.Canonical))

	o, err := s.orderRepo.FindByProviderRef(ctx, providerOrderID, awb)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Info("webhook references an unknown provider order")
		} else {
			log.Error("failed to load order for webhook", zap.Error(err))
		}
		return
	}

	if o.MetaString(order.MetaShiprocketStatus) == status.Canonical {
		log.Debug("webhook is a duplicate, nothing to apply")
		return
	}

	o.SetMeta(order.MetaShiprocketStatus, status.Canonical)
	switch status.Canonical {
	case logistics.CanonicalInTransit, logistics.CanonicalOutForDelivery:
		if o.Status != order.StatusDelivered {
			o.Status = order.StatusShipped
			o.SetMeta(order.MetaFulfillmentStatus, "shipped")
		}
	case logistics.CanonicalDelivered:
		o.MarkDelivered(time.Now())
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		log.Error("failed to save order for webhook", zap.Error(err))
		return
	}
	log.Info("applied webhook to order", zap.String("order_id", o.ID.String()))
}

// extractString returns the first non-empty string among the given keys,
// checking the top level first and the nested data object second.
func extractString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
		// Numeric identifiers arrive as JSON numbers.
		if v, ok := payload[key].(float64); ok {
			return formatWebhookNumber(v)
		}
	}
	if data, ok := payload["data"].(map[string]any); ok {
		return extractString(data, keys...)
	}
	return ""
}

func formatWebhookNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
