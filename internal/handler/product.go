package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"

	"github.com/untyped-clothing/orders/internal/domain/product"
)

type productResponse struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Price    string        `json:"price"`
	Category string        `json:"category"`
	Sizes    []string      `json:"sizes"`
	Colors   []string      `json:"colors"`
	Image    imageResponse `json:"image"`
}

type imageResponse struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Desktop   string `json:"desktop"`
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(ctx *gin.Context) {
	list, err := h.products.List(ctx.Request.Context())
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	out := make([]productResponse, len(list))
	for i, p := range list {
		out[i] = h.toProductResponse(p)
	}
	ctx.JSON(http.StatusOK, out)
}

// GetProduct handles GET /api/products/:id.
func (h *Handler) GetProduct(ctx *gin.Context) {
	p, err := h.products.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(ctx, http.StatusNotFound, "product not found")
			return
		}
		h.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, h.toProductResponse(*p))
}

func (h *Handler) toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price.StringFixed(2),
		Category: p.Category,
		Sizes:    p.Sizes,
		Colors:   p.Colors,
		Image: imageResponse{
			Thumbnail: h.imageURL(p.Image.Thumbnail),
			Mobile:    h.imageURL(p.Image.Mobile),
			Desktop:   h.imageURL(p.Image.Desktop),
		},
	}
}

// imageURL prepends the configured base URL to relative image paths.
// Absolute URLs pass through unchanged.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" {
		return path
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(h.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
