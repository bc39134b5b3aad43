package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/untyped-clothing/orders/internal/domain/order"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Token: "test-token"})
	require.NoError(t, err)
	return c
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/admin/orders/ord-1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "ord-1",
			"status": "shipped",
			"total":  "124.00",
			"items": []map[string]any{
				{"product_id": "tee-black", "name": "Heavyweight Tee", "quantity": 2, "unit_price": "35.00"},
			},
		})
	}))

	o, err := c.GetOrder(t.Context(), "ord-1")
	require.NoError(t, err)

	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, order.StatusShipped, o.Status)
	assert.Equal(t, "124.00", o.Total.StringFixed(2))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Heavyweight Tee", o.Items[0].Name)
}

func TestGetOrderUnknownStatusRejected(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ord-1", "status": "refunded"})
	}))

	_, err := c.GetOrder(t.Context(), "ord-1")
	require.True(t, errors.Is(err, order.ErrUnknownStatus))
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/orders", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "ord-2", "status": "pending", "total": "35.00"},
			{"id": "ord-1", "status": "delivered", "total": "89.50"},
		})
	}))

	list, err := c.ListOrders(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, order.StatusPending, list[0].Status)
	assert.Equal(t, order.StatusDelivered, list[1].Status)
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/admin/orders/ord-1/status", r.URL.Path)

		var body struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shipped", body.Status)

		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ord-1", "status": "shipped"})
	}))

	require.NoError(t, c.UpdateStatus(t.Context(), "ord-1", order.StatusShipped))
}

func TestUpdateStatusConflict(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    http.StatusConflict,
			"message": "transition shipped -> processing is not allowed",
		})
	}))

	err := c.UpdateStatus(t.Context(), "ord-1", order.StatusProcessing)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "not allowed")
}

func TestUnauthorized(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.ListOrders(t.Context())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestErrorBodyFallback(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway) // no JSON body
	}))

	_, err := c.GetOrder(t.Context(), "ord-1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}
