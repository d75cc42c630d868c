package returns

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/returns/backend/internal/domain/logistics"
	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/crypto"
)

// MockReturnRequestRepository is a mock implementation of returns.Repository
type MockReturnRequestRepository struct {
	mock.Mock
}

func (m *MockReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) FindByAWB(ctx context.Context, awb string) (*returns.ReturnRequest, error) {
	args := m.Called(ctx, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]returns.ReturnRequest, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnRequest), args.Error(1)
}

func (m *MockReturnRequestRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReturnRequestRepository) Save(ctx context.Context, req *returns.ReturnRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockReturnRequestRepository) SaveWithLock(ctx context.Context, req *returns.ReturnRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByProviderRef(ctx context.Context, providerOrderID, awb string) (*order.Order, error) {
	args := m.Called(ctx, providerOrderID, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// MockGateway is a mock implementation of logistics.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateForwardShipment(ctx context.Context, req logistics.ShipmentRequest) (*logistics.ShipmentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*logistics.ShipmentResult), args.Error(1)
}

func (m *MockGateway) CreateReversePickup(ctx context.Context, req logistics.PickupRequest) (*logistics.ShipmentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*logistics.ShipmentResult), args.Error(1)
}

func (m *MockGateway) TrackByAWB(ctx context.Context, awb string) (*logistics.TrackingInfo, error) {
	args := m.Called(ctx, awb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*logistics.TrackingInfo), args.Error(1)
}

func (m *MockGateway) CancelOrders(ctx context.Context, providerOrderIDs []string) error {
	args := m.Called(ctx, providerOrderIDs)
	return args.Error(0)
}

func newTestCipher() *crypto.BankCipher {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	cipher, err := crypto.NewBankCipher(key)
	if err != nil {
		panic(err)
	}
	return cipher
}
