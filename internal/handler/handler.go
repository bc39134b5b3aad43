// Package handler exposes the orders API over HTTP using gin. It converts
// wire requests into domain calls and maps domain errors back to statuses;
// business rules live in the domain packages.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/untyped-clothing/orders/internal/domain/order"
	"github.com/untyped-clothing/orders/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler implements the API endpoints, delegating business logic to the
// order service and product repository.
type Handler struct {
	orders       *order.Service
	products     product.Repository
	lg           *zap.Logger
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, orders *order.Service, products product.Repository, lg *zap.Logger) *Handler {
	return &Handler{
		orders:       orders,
		products:     products,
		lg:           lg,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// errorBody is the JSON error payload shared by all endpoints.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondError(ctx *gin.Context, status int, msg string) {
	ctx.AbortWithStatusJSON(status, errorBody{Code: status, Message: msg})
}

// handleError maps domain errors to HTTP responses. Anything unrecognized is
// logged and reported as a 500 without leaking internals.
func (h *Handler) handleError(ctx *gin.Context, err error) {
	var (
		invalidTransition *order.InvalidTransitionError
		staleStatus       *order.StaleStatusError
		notFoundProduct   *order.ProductNotFoundError
		invalidQty        *order.InvalidQuantityError
	)

	switch {
	case errors.Is(err, order.ErrNotFound):
		respondError(ctx, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyItems):
		respondError(ctx, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidQty):
		respondError(ctx, http.StatusUnprocessableEntity, invalidQty.Error())
	case errors.As(err, &notFoundProduct):
		respondError(ctx, http.StatusUnprocessableEntity, notFoundProduct.Error())
	case errors.Is(err, order.ErrUnknownStatus):
		respondError(ctx, http.StatusBadRequest, "unknown order status")
	case errors.As(err, &invalidTransition):
		respondError(ctx, http.StatusConflict, invalidTransition.Error())
	case errors.As(err, &staleStatus):
		respondError(ctx, http.StatusConflict, staleStatus.Error())
	default:
		h.lg.Error("request failed", zap.Error(err))
		respondError(ctx, http.StatusInternalServerError, "internal error")
	}
}

// orderResponse is the wire form of an order. Monetary values are rendered as
// fixed two-decimal strings so clients never see float rounding noise.
type orderResponse struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	StatusLabel   string             `json:"status_label"`
	Items         []order.Item       `json:"items"`
	Total         string             `json:"total"`
	Shipping      order.ShippingInfo `json:"shipping"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		Status:        o.Status.String(),
		StatusLabel:   o.Status.Label(),
		Items:         o.Items,
		Total:         o.Total.StringFixed(2),
		Shipping:      o.Shipping,
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
