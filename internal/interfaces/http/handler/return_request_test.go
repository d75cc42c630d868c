package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	returnsapp "github.com/returns/backend/internal/application/returns"
	"github.com/returns/backend/internal/domain/order"
	"github.com/returns/backend/internal/domain/returns"
	"github.com/returns/backend/internal/domain/shared"
	"github.com/returns/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type returnHandlerFixture struct {
	returnRepo *MockReturnRequestRepository
	orderRepo  *MockOrderRepository
	gateway    *MockGateway
	handler    *ReturnRequestHandler
}

func newReturnHandlerFixture() *returnHandlerFixture {
	returnRepo := new(MockReturnRequestRepository)
	orderRepo := new(MockOrderRepository)
	gateway := new(MockGateway)
	lifecycle := returnsapp.NewLifecycleService(
		returnRepo, orderRepo, gateway, newTestCipher(),
		&config.ShiprocketConfig{ReturnCity: "Bengaluru", DefaultWeight: 0.5}, 7,
	)
	return &returnHandlerFixture{
		returnRepo: returnRepo,
		orderRepo:  orderRepo,
		gateway:    gateway,
		handler:    NewReturnRequestHandler(lifecycle),
	}
}

func storeReturnRouter(f *returnHandlerFixture, customerID uuid.UUID) *gin.Engine {
	r := gin.New()
	g := r.Group("/store", asActor(customerID, "customer"))
	g.POST("/return-requests", f.handler.Create)
	g.GET("/return-requests", f.handler.ListOwn)
	g.GET("/return-requests/:id", f.handler.GetOwn)
	return r
}

func adminReturnRouter(f *returnHandlerFixture, adminID uuid.UUID) *gin.Engine {
	r := gin.New()
	g := r.Group("/admin", asActor(adminID, "admin"))
	g.GET("/return-requests", f.handler.List)
	g.GET("/return-requests/:id", f.handler.GetByID)
	g.POST("/return-requests/:id/approve", f.handler.Approve)
	g.POST("/return-requests/:id/reject", f.handler.Reject)
	g.POST("/return-requests/:id/mark-refunded", f.handler.MarkRefunded)
	return r
}

func deliveredTestOrder(customerID uuid.UUID) *order.Order {
	delivered := time.Now().Add(-24 * time.Hour)
	return &order.Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Status:            order.StatusDelivered,
		PaymentType:       "online",
		Total:             decimal.NewFromInt(300),
		DeliveredAt:       &delivered,
		Items: []order.OrderItem{
			{ID: uuid.New(), ProductName: "Mug", Quantity: 1, UnitPrice: decimal.NewFromInt(300)},
		},
	}
}

func pendingTestRequest(t *testing.T, customerID uuid.UUID) *returns.ReturnRequest {
	t.Helper()
	delivered := time.Now().Add(-24 * time.Hour)
	rr, err := returns.NewReturnRequest(uuid.New(), customerID, returns.TypeReturn, returns.PaymentOnline, "damaged", "", &delivered, 7)
	require.NoError(t, err)
	_, err = rr.AddItem(uuid.New(), 1, 1, "damaged", "")
	require.NoError(t, err)
	return rr
}

func TestReturnRequestHandler_Create(t *testing.T) {
	customerID := uuid.New()

	t.Run("creates a return request", func(t *testing.T) {
		f := newReturnHandlerFixture()
		o := deliveredTestOrder(customerID)
		f.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.returnRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		body, _ := json.Marshal(gin.H{
			"order_id": o.ID,
			"type":     "return",
			"reason":   "damaged on arrival",
			"items":    []gin.H{{"order_item_id": o.Items[0].ID, "quantity": 1}},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/store/return-requests", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		storeReturnRouter(f, customerID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				Status string `json:"status"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "pending_approval", resp.Data.Status)
	})

	t.Run("accepts notes and an omitted reason", func(t *testing.T) {
		f := newReturnHandlerFixture()
		o := deliveredTestOrder(customerID)
		f.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		f.returnRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		body, _ := json.Marshal(gin.H{
			"order_id": o.ID,
			"type":     "return",
			"notes":    "leave with the neighbour",
			"items":    []gin.H{{"order_item_id": o.Items[0].ID, "quantity": 1}},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/store/return-requests", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		storeReturnRouter(f, customerID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "leave with the neighbour")
	})

	t.Run("rejects a body without items", func(t *testing.T) {
		f := newReturnHandlerFixture()

		body, _ := json.Marshal(gin.H{"order_id": uuid.New(), "type": "return", "reason": "x"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/store/return-requests", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		storeReturnRouter(f, customerID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps an expired window to 400", func(t *testing.T) {
		f := newReturnHandlerFixture()
		o := deliveredTestOrder(customerID)
		old := time.Now().Add(-30 * 24 * time.Hour)
		o.DeliveredAt = &old
		f.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		body, _ := json.Marshal(gin.H{
			"order_id": o.ID,
			"type":     "return",
			"reason":   "too late",
			"items":    []gin.H{{"order_item_id": o.Items[0].ID, "quantity": 1}},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/store/return-requests", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		storeReturnRouter(f, customerID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_DATA")
		assert.Contains(t, w.Body.String(), "Return window has expired.")
	})
}

func TestReturnRequestHandler_AdminTransitions(t *testing.T) {
	adminID := uuid.New()

	t.Run("approves a pending request", func(t *testing.T) {
		f := newReturnHandlerFixture()
		rr := pendingTestRequest(t, uuid.New())
		f.returnRepo.On("FindByID", mock.Anything, rr.ID).Return(rr, nil)
		f.returnRepo.On("SaveWithLock", mock.Anything, rr).Return(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/return-requests/%s/approve", rr.ID), nil)
		adminReturnRouter(f, adminID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "approved")
	})

	t.Run("requires a rejection reason", func(t *testing.T) {
		f := newReturnHandlerFixture()
		rr := pendingTestRequest(t, uuid.New())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/return-requests/%s/reject", rr.ID), bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		adminReturnRouter(f, adminID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("maps a double approve to 400", func(t *testing.T) {
		f := newReturnHandlerFixture()
		rr := pendingTestRequest(t, uuid.New())
		require.NoError(t, rr.Approve(adminID))
		f.returnRepo.On("FindByID", mock.Anything, rr.ID).Return(rr, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/return-requests/%s/approve", rr.ID), nil)
		adminReturnRouter(f, adminID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_ALLOWED")
	})

	t.Run("maps missing requests to 404", func(t *testing.T) {
		f := newReturnHandlerFixture()
		id := uuid.New()
		f.returnRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/return-requests/%s/approve", id), nil)
		adminReturnRouter(f, adminID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("maps a concurrency conflict to 409", func(t *testing.T) {
		f := newReturnHandlerFixture()
		rr := pendingTestRequest(t, uuid.New())
		f.returnRepo.On("FindByID", mock.Anything, rr.ID).Return(rr, nil)
		f.returnRepo.On("SaveWithLock", mock.Anything, rr).Return(shared.ErrConcurrencyConflict)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/admin/return-requests/%s/approve", rr.ID), nil)
		adminReturnRouter(f, adminID).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestReturnRequestHandler_GetByID_DecryptsBankDetails(t *testing.T) {
	adminID := uuid.New()
	f := newReturnHandlerFixture()

	rr := pendingTestRequest(t, uuid.New())
	rr.PaymentType = returns.PaymentCOD
	encrypted, err := newTestCipher().Encrypt(map[string]string{
		"account_holder": "Asha Rao",
		"account_number": "12345678901234",
		"ifsc":           "HDFC0001234",
	})
	require.NoError(t, err)
	require.NoError(t, rr.SetBankDetails(encrypted, "1234"))
	f.returnRepo.On("FindByID", mock.Anything, rr.ID).Return(rr, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/admin/return-requests/%s", rr.ID), nil)
	adminReturnRouter(f, adminID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "12345678901234")
}

func TestReturnRequestHandler_GetOwn_HidesBankDetails(t *testing.T) {
	customerID := uuid.New()
	f := newReturnHandlerFixture()

	rr := pendingTestRequest(t, customerID)
	require.NoError(t, rr.SetBankDetails("blob", "1234"))
	f.returnRepo.On("FindByID", mock.Anything, rr.ID).Return(rr, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/store/return-requests/%s", rr.ID), nil)
	storeReturnRouter(f, customerID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "blob")
	assert.Contains(t, w.Body.String(), "1234")
}

func TestReturnRequestHandler_List(t *testing.T) {
	adminID := uuid.New()
	f := newReturnHandlerFixture()

	rr := pendingTestRequest(t, uuid.New())
	f.returnRepo.On("FindAll", mock.Anything, mock.Anything).Return([]returns.ReturnRequest{*rr}, nil)
	f.returnRepo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/return-requests?status=pending_approval", nil)
	adminReturnRouter(f, adminID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Meta.Total)
}
