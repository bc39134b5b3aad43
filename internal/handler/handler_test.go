package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/untyped-clothing/orders/internal/domain/auth"
	"github.com/untyped-clothing/orders/internal/domain/order"
	"github.com/untyped-clothing/orders/internal/domain/product"
)

const (
	testPepper = "test-pepper"
	testToken  = "admin-secret"
)

type memProducts struct {
	products map[string]product.Product
}

func (m *memProducts) List(context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memOrders struct {
	orders map[string]*order.Order
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) List(context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, current, next order.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != current {
		return &order.StaleStatusError{OrderID: id, Expected: current}
	}
	o.Status = next
	return nil
}

type memTokens struct {
	tokens map[string]*auth.TokenInfo
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*auth.TokenInfo, error) {
	info, ok := m.tokens[hash]
	if !ok {
		return nil, errors.New("token not found")
	}
	return info, nil
}

func hashToken(token string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

type fixture struct {
	router *gin.Engine
	orders *memOrders
}

func newFixture(t *testing.T, seed ...order.Order) *fixture {
	t.Helper()

	products := &memProducts{products: map[string]product.Product{
		"tee-black": {
			ID:    "tee-black",
			Name:  "Heavyweight Tee",
			Price: decimal.RequireFromString("35.00"),
		},
	}}
	orders := &memOrders{orders: make(map[string]*order.Order, len(seed))}
	for _, o := range seed {
		cp := o
		orders.orders[o.ID] = &cp
	}
	tokens := &memTokens{tokens: map[string]*auth.TokenInfo{
		hashToken(testToken): {ID: "tok-1", KeyHash: hashToken(testToken), Name: "ops", Role: auth.RoleAdmin},
		hashToken("viewer"):  {ID: "tok-2", KeyHash: hashToken("viewer"), Name: "viewer", Role: "support"},
	}}

	h := New(Config{}, order.NewService(products, orders), products, zap.NewNop())
	return &fixture{
		router: NewRouter(h, tokens, []byte(testPepper)),
		orders: orders,
	}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reqBody = bytes.NewReader(buf)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestPlaceOrderEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/orders", "", map[string]any{
		"items": []map[string]any{
			{"product_id": "tee-black", "size": "L", "color": "black", "quantity": 2},
		},
		"shipping":       map[string]any{"name": "Dana Reyes", "city": "Portland"},
		"payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp["status"])
	assert.Equal(t, "Order Placed", resp["status_label"])
	assert.Equal(t, "70.00", resp["total"])
}

func TestPlaceOrderEndpointValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/orders", "", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/orders", "", map[string]any{
		"items": []map[string]any{{"product_id": "no-such-sku", "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetOrderTrackingEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.Order{ID: "ord-1", Status: order.StatusShipped})

	w := f.do(http.MethodGet, "/api/orders/ord-1/tracking", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tr order.Tracking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.Equal(t, order.StatusShipped, tr.Status)
	assert.False(t, tr.Cancelled)
	require.Len(t, tr.Steps, 4)
	assert.True(t, tr.Steps[2].Reached)
	assert.False(t, tr.Steps[3].Reached)
}

func TestGetOrderTrackingCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.Order{ID: "ord-1", Status: order.StatusCancelled})

	w := f.do(http.MethodGet, "/api/orders/ord-1/tracking", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tr order.Tracking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.True(t, tr.Cancelled)
	assert.Empty(t, tr.Steps)
}

func TestGetOrderNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/orders/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.Order{ID: "ord-1", Status: order.StatusPending})

	w := f.do(http.MethodPatch, "/api/admin/orders/ord-1/status", testToken,
		map[string]any{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "processing", resp["status"])

	stored, err := f.orders.GetByID(t.Context(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, stored.Status)
}

func TestUpdateOrderStatusRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seed     order.Status
		body     map[string]any
		wantCode int
	}{
		{"backward move", order.StatusShipped, map[string]any{"status": "processing"}, http.StatusConflict},
		{"no-op", order.StatusShipped, map[string]any{"status": "shipped"}, http.StatusConflict},
		{"out of terminal", order.StatusDelivered, map[string]any{"status": "shipped"}, http.StatusConflict},
		{"unknown status", order.StatusPending, map[string]any{"status": "refunded"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, order.Order{ID: "ord-1", Status: tt.seed})

			w := f.do(http.MethodPatch, "/api/admin/orders/ord-1/status", testToken, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)

			// The rejected update left the order alone.
			stored, err := f.orders.GetByID(t.Context(), "ord-1")
			require.NoError(t, err)
			assert.Equal(t, tt.seed, stored.Status)
		})
	}
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, order.Order{ID: "ord-1", Status: order.StatusPending})

	// No token.
	w := f.do(http.MethodGet, "/api/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong token.
	w = f.do(http.MethodGet, "/api/admin/orders", "wrong-secret", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token without the admin role.
	w = f.do(http.MethodGet, "/api/admin/orders", "viewer", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Valid admin token.
	w = f.do(http.MethodGet, "/api/admin/orders", testToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListProductsEndpoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Heavyweight Tee", list[0]["name"])
}
