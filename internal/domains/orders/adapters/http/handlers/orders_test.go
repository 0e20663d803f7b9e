package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-saga/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/order-saga/internal/domains/orders/adapters/memory"
	"github.com/Apurer/order-saga/internal/domains/orders/application"
	"github.com/Apurer/order-saga/internal/domains/orders/domain"
	"github.com/Apurer/order-saga/internal/domains/orders/ports"
	apierrors "github.com/Apurer/order-saga/internal/shared/errors"
)

type stubCatalog map[string]ports.Product

func (s stubCatalog) GetProduct(_ context.Context, id string) (ports.Product, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return ports.Product{}, ports.ErrProductNotFound
}

type stubPublisher struct{ err error }

func (s stubPublisher) PublishOrderCreated(context.Context, *domain.Order) error { return s.err }

func newRouter(publishErr error) (*gin.Engine, *memory.Repository) {
	gin.SetMode(gin.TestMode)
	repo := memory.NewRepository()
	svc := application.NewService(repo, stubCatalog{
		"product-a": {ID: "product-a", Name: "Product A", Price: decimal.NewFromInt(100)},
		"product-b": {ID: "product-b", Name: "Product B", Price: decimal.NewFromInt(200)},
	}, stubPublisher{err: publishErr})
	router := gin.New()
	NewOrderAPI(svc).Register(router)
	return router, repo
}

func do(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder_Created(t *testing.T) {
	router, _ := newRouter(nil)

	rec := do(router, http.MethodPost, "/orders", mapper.CreateOrderRequest{Items: []mapper.CreateOrderItem{
		{ProductID: "product-a", Quantity: 2},
		{ProductID: "product-b", Quantity: 1},
	}})
	require.Equal(t, http.StatusCreated, rec.Code)

	var order mapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(400)))
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "/orders/"+order.ID, rec.Header().Get("Location"))

	rec = do(router, http.MethodGet, "/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []mapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestCreateOrder_ValidationProblems(t *testing.T) {
	router, repo := newRouter(nil)

	rec := do(router, http.MethodPost, "/orders", mapper.CreateOrderRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/orders", mapper.CreateOrderRequest{Items: []mapper.CreateOrderItem{{ProductID: "ghost", Quantity: 1}}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.Equal(t, "ghost", problem.Extensions["productId"])

	rec = do(router, http.MethodPost, "/orders", mapper.CreateOrderRequest{Items: []mapper.CreateOrderItem{{ProductID: "product-a", Quantity: 0}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/orders", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	orders, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_PublishFailureIsBadGateway(t *testing.T) {
	router, _ := newRouter(errors.New("broker unreachable"))

	rec := do(router, http.MethodPost, "/orders", mapper.CreateOrderRequest{Items: []mapper.CreateOrderItem{{ProductID: "product-a", Quantity: 1}}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	router, _ := newRouter(nil)

	rec := do(router, http.MethodGet, "/orders/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}
