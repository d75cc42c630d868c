package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/logistics"
)

// maxResponseSize is the maximum allowed response size from the provider (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	loginPath        = "/v1/external/auth/login"
	createOrderPath  = "/v1/external/orders/create/adhoc"
	createReturnPath = "/v1/external/orders/create/return"
	trackAWBPath     = "/v1/external/courier/track/awb/"
	cancelOrdersPath = "/v1/external/orders/cancel"
)

// ErrNotConfigured indicates missing provider credentials
var ErrNotConfigured = errors.New("shiprocket: credentials not configured")

// Config holds the provider connection settings
type Config struct {
	BaseURL        string
	Email          string
	Password       string
	TimeoutSeconds int
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("shiprocket: base URL is required")
	}
	if c.Email == "" || c.Password == "" {
		return ErrNotConfigured
	}
	return nil
}

// Client talks to the Shiprocket external API. It implements
// logistics.Gateway. The token cache is injected so multi-instance
// deployments can share one token through Redis.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     TokenCache
	logger     *zap.Logger
}

var _ logistics.Gateway = (*Client)(nil)

// NewClient creates a provider client with the given token cache
func NewClient(config *Config, tokens TokenCache, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	if tokens == nil {
		tokens = NewMemoryTokenCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		tokens: tokens,
		logger: logger.Named("shiprocket"),
	}, nil
}

// getToken returns a usable bearer token, logging in when the cached one
// is missing or about to expire.
func (c *Client) getToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(ctx); ok {
		return token.Token, nil
	}

	body, err := json.Marshal(loginRequest{Email: c.config.Email, Password: c.config.Password})
	if err != nil {
		return "", err
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, loginPath, body, "")
	if err != nil {
		return "", fmt.Errorf("shiprocket: login failed: %w", err)
	}

	var login loginResponse
	if err := json.Unmarshal(respBody, &login); err != nil {
		return "", fmt.Errorf("shiprocket: malformed login response: %w", err)
	}
	if login.Token == "" {
		return "", errors.New("shiprocket: login response missing token")
	}

	token := cachedToken{Token: login.Token, ExpiresAt: time.Now().Add(tokenTTL)}
	c.tokens.Set(ctx, token)
	c.logger.Debug("acquired provider token", zap.Time("expires_at", token.ExpiresAt))

	return login.Token, nil
}

// doRequest performs one HTTP call. Non-2xx replies become *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, token string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("shiprocket: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shiprocket: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shiprocket: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// authedRequest performs an authenticated call. A 401/403 clears the token
// cache and retries once with a fresh login, which covers server-side token
// revocation between our refresh cycles.
func (c *Client) authedRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	respBody, err := c.doRequest(ctx, method, path, body, token)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsAuthFailure() {
		c.logger.Info("provider token rejected, re-authenticating")
		c.tokens.Clear(ctx)
		token, err = c.getToken(ctx)
		if err != nil {
			return nil, err
		}
		return c.doRequest(ctx, method, path, body, token)
	}
	return respBody, err
}

// CreateForwardShipment registers an outbound order with the provider.
// Creation is not idempotent on the provider side, so there is no retry:
// a network error after the request left may still have created the order.
func (c *Client) CreateForwardShipment(ctx context.Context, req logistics.ShipmentRequest) (*logistics.ShipmentResult, error) {
	payload := createOrderRequest{
		OrderID:        req.OrderID,
		OrderDate:      req.OrderDate.Format("2006-01-02 15:04"),
		PickupLocation: req.PickupLocation,
		BillingName:    req.Consignee.Name,
		BillingAddress: req.Consignee.Address,
		BillingCity:    req.Consignee.City,
		BillingPincode: req.Consignee.Pincode,
		BillingState:   req.Consignee.State,
		BillingCountry: req.Consignee.Country,
		BillingEmail:   req.Consignee.Email,
		BillingPhone:   req.Consignee.Phone,
		ShippingIsBill: true,
		OrderItems:     toOrderItems(req.Items),
		PaymentMethod:  req.PaymentMethod,
		SubTotal:       req.SubTotal,
		Length:         req.Dimensions.Length,
		Breadth:        req.Dimensions.Breadth,
		Height:         req.Dimensions.Height,
		Weight:         req.Dimensions.Weight,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	respBody, err := c.authedRequest(ctx, http.MethodPost, createOrderPath, body)
	if err != nil {
		return nil, err
	}

	var created createOrderResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("shiprocket: malformed order response: %w", err)
	}

	c.logger.Info("forward shipment created",
		zap.String("order_id", req.OrderID),
		zap.Int64("provider_order_id", created.OrderID),
		zap.String("awb", created.AWBCode))

	return toShipmentResult(&created), nil
}

// CreateReversePickup registers a return order picking the parcel up from
// the customer. Not retried for the same reason as forward creation.
func (c *Client) CreateReversePickup(ctx context.Context, req logistics.PickupRequest) (*logistics.ShipmentResult, error) {
	payload := createReturnRequest{
		OrderID:         req.OrderID,
		OrderDate:       req.OrderDate.Format("2006-01-02 15:04"),
		PickupName:      req.PickupFrom.Name,
		PickupAddress:   req.PickupFrom.Address,
		PickupCity:      req.PickupFrom.City,
		PickupState:     req.PickupFrom.State,
		PickupCountry:   req.PickupFrom.Country,
		PickupPincode:   req.PickupFrom.Pincode,
		PickupEmail:     req.PickupFrom.Email,
		PickupPhone:     req.PickupFrom.Phone,
		ShippingName:    req.ReturnTo.Name,
		ShippingAddress: req.ReturnTo.Address,
		ShippingCity:    req.ReturnTo.City,
		ShippingState:   req.ReturnTo.State,
		ShippingCountry: req.ReturnTo.Country,
		ShippingPincode: req.ReturnTo.Pincode,
		ShippingPhone:   req.ReturnTo.Phone,
		OrderItems:      toOrderItems(req.Items),
		PaymentMethod:   req.Payment,
		SubTotal:        req.SubTotal,
		Length:          req.Dimensions.Length,
		Breadth:         req.Dimensions.Breadth,
		Height:          req.Dimensions.Height,
		Weight:          req.Dimensions.Weight,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	respBody, err := c.authedRequest(ctx, http.MethodPost, createReturnPath, body)
	if err != nil {
		return nil, err
	}

	var created createOrderResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("shiprocket: malformed return response: %w", err)
	}

	c.logger.Info("reverse pickup created",
		zap.String("order_id", req.OrderID),
		zap.Int64("provider_order_id", created.OrderID),
		zap.Int64("shipment_id", created.ShipmentID))

	return toShipmentResult(&created), nil
}

// TrackByAWB fetches tracking state for a shipment. Read-only, so
// transient failures are retried with exponential backoff.
func (c *Client) TrackByAWB(ctx context.Context, awb string) (*logistics.TrackingInfo, error) {
	if awb == "" {
		return nil, errors.New("shiprocket: awb is required")
	}

	respBody, err := c.retryIdempotent(ctx, func() ([]byte, error) {
		return c.authedRequest(ctx, http.MethodGet, trackAWBPath+awb, nil)
	})
	if err != nil {
		return nil, err
	}

	var tracked trackResponse
	if err := json.Unmarshal(respBody, &tracked); err != nil {
		return nil, fmt.Errorf("shiprocket: malformed tracking response: %w", err)
	}

	info := &logistics.TrackingInfo{AWB: awb}
	if len(tracked.TrackingData.ShipmentTrack) > 0 {
		first := tracked.TrackingData.ShipmentTrack[0]
		info.CurrentStatus = logistics.NormalizeStatus(first.CurrentStatus)
		info.Courier = first.Courier
		info.ETA = first.EDD
	} else {
		info.CurrentStatus = logistics.NormalizeStatus("")
	}
	for _, activity := range tracked.TrackingData.ShipmentTrackActivities {
		info.Events = append(info.Events, logistics.TrackingEvent{
			Date:     activity.Date,
			Activity: activity.Activity,
			Location: activity.Location,
		})
	}

	return info, nil
}

// CancelOrders cancels provider orders. Cancelling an already-cancelled
// order is a no-op upstream, so the call is retried like a read.
func (c *Client) CancelOrders(ctx context.Context, providerOrderIDs []string) error {
	if len(providerOrderIDs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(providerOrderIDs))
	for _, raw := range providerOrderIDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("shiprocket: invalid provider order id %q", raw)
		}
		ids = append(ids, id)
	}

	body, err := json.Marshal(cancelOrdersRequest{IDs: ids})
	if err != nil {
		return err
	}

	_, err = c.retryIdempotent(ctx, func() ([]byte, error) {
		return c.authedRequest(ctx, http.MethodPost, cancelOrdersPath, body)
	})
	if err != nil {
		return err
	}

	c.logger.Info("provider orders cancelled", zap.Strings("provider_order_ids", providerOrderIDs))
	return nil
}

// retryIdempotent runs an idempotent call with bounded exponential backoff.
// Client errors other than auth failures are permanent; auth failures are
// already handled one level down.
func (c *Client) retryIdempotent(ctx context.Context, call func() ([]byte, error)) ([]byte, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)

	return backoff.RetryWithData(func() ([]byte, error) {
		respBody, err := call()
		if err == nil {
			return respBody, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		c.logger.Warn("provider call failed, retrying", zap.Error(err))
		return nil, err
	}, policy)
}

func toOrderItems(items []logistics.ParcelItem) []orderItem {
	out := make([]orderItem, len(items))
	for i, item := range items {
		out[i] = orderItem{
			Name:         item.Name,
			SKU:          item.SKU,
			Units:        item.Units,
			SellingPrice: item.SellingPrice,
		}
	}
	return out
}

func toShipmentResult(resp *createOrderResponse) *logistics.ShipmentResult {
	return &logistics.ShipmentResult{
		ProviderOrderID: strconv.FormatInt(resp.OrderID, 10),
		ShipmentID:      strconv.FormatInt(resp.ShipmentID, 10),
		AWB:             resp.AWBCode,
		Courier:         resp.CourierName,
		Status:          resp.Status,
	}
}
