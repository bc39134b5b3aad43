package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/untyped-clothing/orders/internal/domain/order"
)

type placeOrderRequest struct {
	Items         []placeOrderItem   `json:"items"`
	Shipping      order.ShippingInfo `json:"shipping"`
	PaymentMethod string             `json:"payment_method"`
}

type placeOrderItem struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrder handles POST /api/orders: checkout of a cart into a pending
// order.
func (h *Handler) PlaceOrder(ctx *gin.Context) {
	var req placeOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{
			ProductID: it.ProductID,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
		}
	}

	o, err := h.orders.PlaceOrder(ctx.Request.Context(), order.PlaceOrderRequest{
		Items:         items,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toOrderResponse(o))
}

// GetOrder handles GET /api/orders/:id.
func (h *Handler) GetOrder(ctx *gin.Context) {
	o, err := h.orders.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toOrderResponse(o))
}

// GetOrderTracking handles GET /api/orders/:id/tracking: the read-only
// fulfillment progress view shown on the customer's order page.
func (h *Handler) GetOrderTracking(ctx *gin.Context) {
	o, err := h.orders.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, order.TrackOrder(o))
}
