// Package client is a thin REST client for the orders API, used by the admin
// console and other out-of-process tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/untyped-clothing/orders/internal/domain/order"
)

// ErrUnauthorized is returned when the API rejects the bearer credential.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response carrying the API's error payload.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Message)
}

// Config holds the connection settings for a Client.
type Config struct {
	// BaseURL is the API root, e.g. https://api.untypedclothing.com.
	BaseURL string
	// Token is the admin bearer credential sent with every request.
	Token string
	// Timeout bounds each request. The zero value means 10 seconds; the
	// original behaviour of waiting forever is deliberately not available.
	Timeout time.Duration
}

// Client talks to the orders API over HTTP.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base:  base,
		token: cfg.Token,
		http:  &http.Client{Timeout: timeout},
	}, nil
}

type orderPayload struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	Items         []order.Item       `json:"items"`
	Total         string             `json:"total"`
	Shipping      order.ShippingInfo `json:"shipping"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GetOrder fetches a single order by ID.
func (c *Client) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	var p orderPayload
	if err := c.do(ctx, http.MethodGet, "/api/admin/orders/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return decodeOrder(p)
}

// ListOrders fetches all orders, most recent first.
func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	var ps []orderPayload
	if err := c.do(ctx, http.MethodGet, "/api/admin/orders", nil, &ps); err != nil {
		return nil, err
	}

	out := make([]order.Order, 0, len(ps))
	for _, p := range ps {
		o, err := decodeOrder(p)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

// UpdateStatus asks the API to move an order to next. A non-2xx response is
// returned as an *APIError; the caller decides what to do with its cache.
func (c *Client) UpdateStatus(ctx context.Context, id string, next order.Status) error {
	body := struct {
		Status string `json:"status"`
	}{Status: next.String()}

	return c.do(ctx, http.MethodPatch, "/api/admin/orders/"+url.PathEscape(id)+"/status", body, nil)
}

// do performs one API request, encoding body as JSON when non-nil and
// decoding a 2xx response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u := c.base.JoinPath(path)

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ep errorPayload
		if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil || ep.Message == "" {
			ep.Message = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: ep.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}

// decodeOrder validates wire-level fields into a domain Order. A status
// outside the closed set is rejected here rather than rendered downstream.
func decodeOrder(p orderPayload) (*order.Order, error) {
	status, err := order.ParseStatus(p.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s", p.ID)
	}

	total, err := parseDecimal(p.Total)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s total", p.ID)
	}

	return &order.Order{
		ID:            p.ID,
		Status:        status,
		Items:         p.Items,
		Total:         total,
		Shipping:      p.Shipping,
		PaymentMethod: p.PaymentMethod,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
