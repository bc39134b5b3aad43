package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/untyped-clothing/orders/internal/domain/auth"
)

// NewRouter builds the gin engine with all API routes registered. Recovery,
// CORS, rate limiting, and logging are applied outside as net/http
// middleware, so the engine itself stays bare.
func NewRouter(h *Handler, tokens auth.Repository, pepper []byte) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	api := router.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)

		api.POST("/orders", h.PlaceOrder)
		api.GET("/orders/:id", h.GetOrder)
		api.GET("/orders/:id/tracking", h.GetOrderTracking)

		admin := api.Group("/admin", AdminAuth(tokens, pepper))
		{
			admin.GET("/orders", h.ListOrders)
			admin.GET("/orders/:id", h.GetAdminOrder)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
