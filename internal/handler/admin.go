package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/untyped-clothing/orders/internal/domain/order"
)

// ListOrders handles GET /api/admin/orders: the back-office order list.
func (h *Handler) ListOrders(ctx *gin.Context) {
	list, err := h.orders.ListOrders(ctx.Request.Context())
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	out := make([]orderResponse, len(list))
	for i := range list {
		out[i] = toOrderResponse(&list[i])
	}
	ctx.JSON(http.StatusOK, out)
}

// GetAdminOrder handles GET /api/admin/orders/:id.
func (h *Handler) GetAdminOrder(ctx *gin.Context) {
	o, err := h.orders.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toOrderResponse(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus handles PATCH /api/admin/orders/:id/status. The lifecycle
// rules are enforced here as well as in the console so the two surfaces can
// never diverge: a disallowed transition is rejected with 409 regardless of
// what the caller's UI believed.
func (h *Handler) UpdateOrderStatus(ctx *gin.Context) {
	var req updateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	next, err := order.ParseStatus(req.Status)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	o, err := h.orders.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), next)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toOrderResponse(o))
}
