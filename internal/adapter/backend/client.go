package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// IdempotencyHeader carries the per-submission key on order creation.
const IdempotencyHeader = "Idempotency-Key"

// ErrMalformedResponse indicates the backend answered 2xx with a body that could not be decoded.
var ErrMalformedResponse = errors.New("malformed backend response")

// CreateOrderRequest describes a single order submission.
type CreateOrderRequest struct {
	Address        model.ShippingAddress
	Method         model.PaymentMethod
	IdempotencyKey string
}

// Client exposes storefront backend operations. Every call carries the caller's bearer token.
type Client interface {
	GetCart(ctx context.Context, token string) (*model.Cart, error)
	AddToCart(ctx context.Context, token, productRef string, quantity int) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, token, productRef string, quantity int) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, token, productRef string) (*model.Cart, error)
	ApplyCoupon(ctx context.Context, token, code string) (*model.Cart, error)
	RemoveCoupon(ctx context.Context, token string) (*model.Cart, error)
	ClearCart(ctx context.Context, token string) (*model.Cart, error)

	CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (*model.PlacedOrder, error)
	VerifyPayment(ctx context.Context, token, orderID string, proof model.PaymentProof) (*model.Order, error)
	GetOrder(ctx context.Context, token, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, token string) ([]model.Order, error)

	Profile(ctx context.Context, token string) (*model.Profile, error)
}

// HTTPClient implements Client via the backend REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates backend client. A zero timeout falls back to 10 seconds.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *HTTPClient) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	return c.cartCall(ctx, "get cart", http.MethodGet, token, nil, "cart")
}

func (c *HTTPClient) AddToCart(ctx context.Context, token, productRef string, quantity int) (*model.Cart, error) {
	body := cartItemRequest{ProductID: productRef, Quantity: quantity}
	return c.cartCall(ctx, "add to cart", http.MethodPost, token, body, "cart", "add")
}

func (c *HTTPClient) UpdateCartItem(ctx context.Context, token, productRef string, quantity int) (*model.Cart, error) {
	body := cartItemRequest{ProductID: productRef, Quantity: quantity}
	return c.cartCall(ctx, "update cart", http.MethodPut, token, body, "cart", "update")
}

func (c *HTTPClient) RemoveFromCart(ctx context.Context, token, productRef string) (*model.Cart, error) {
	return c.cartCall(ctx, "remove from cart", http.MethodDelete, token, nil, "cart", "remove", productRef)
}

func (c *HTTPClient) ApplyCoupon(ctx context.Context, token, code string) (*model.Cart, error) {
	return c.cartCall(ctx, "apply coupon", http.MethodPost, token, couponRequest{Code: code}, "cart", "coupon", "apply")
}

func (c *HTTPClient) RemoveCoupon(ctx context.Context, token string) (*model.Cart, error) {
	return c.cartCall(ctx, "remove coupon", http.MethodDelete, token, nil, "cart", "coupon", "remove")
}

func (c *HTTPClient) ClearCart(ctx context.Context, token string) (*model.Cart, error) {
	return c.cartCall(ctx, "clear cart", http.MethodDelete, token, nil, "cart", "clear")
}

func (c *HTTPClient) cartCall(ctx context.Context, op, method, token string, body any, segments ...string) (*model.Cart, error) {
	var data cartData
	if err := c.do(ctx, op, method, token, nil, body, &data, segments...); err != nil {
		return nil, err
	}
	return data.Cart.toModel(), nil
}

func (c *HTTPClient) CreateOrder(ctx context.Context, token string, req CreateOrderRequest) (*model.PlacedOrder, error) {
	body := createOrderRequest{
		ShippingAddress: fromAddress(req.Address),
		PaymentMethod:   toWireMethod(req.Method),
	}
	header := http.Header{}
	if req.IdempotencyKey != "" {
		header.Set(IdempotencyHeader, req.IdempotencyKey)
	}
	var data createOrderData
	if err := c.do(ctx, "create order", http.MethodPost, token, header, body, &data, "orders", "create"); err != nil {
		return nil, err
	}
	if data.Order == nil || data.Order.ID == "" {
		return nil, fmt.Errorf("create order: %w", ErrMalformedResponse)
	}
	return &model.PlacedOrder{
		Order:          data.Order.toModel(),
		GatewayOrderID: data.RazorpayOrderID,
		GatewayKey:     data.Key,
		TrialMode:      data.TrialMode,
	}, nil
}

func (c *HTTPClient) VerifyPayment(ctx context.Context, token, orderID string, proof model.PaymentProof) (*model.Order, error) {
	body := verifyPaymentRequest{
		RazorpayOrderID:   proof.GatewayOrderID,
		RazorpayPaymentID: proof.GatewayPaymentID,
		RazorpaySignature: proof.GatewaySignature,
		OrderID:           orderID,
	}
	var data orderData
	if err := c.do(ctx, "verify payment", http.MethodPost, token, nil, body, &data, "orders", "verify-payment"); err != nil {
		return nil, err
	}
	if data.Order == nil {
		return nil, fmt.Errorf("verify payment: %w", ErrMalformedResponse)
	}
	return data.Order.toModel(), nil
}

func (c *HTTPClient) GetOrder(ctx context.Context, token, orderID string) (*model.Order, error) {
	var data orderData
	if err := c.do(ctx, "get order", http.MethodGet, token, nil, nil, &data, "orders", orderID); err != nil {
		return nil, err
	}
	if data.Order == nil {
		return nil, fmt.Errorf("get order: %w", domainErrors.ErrNotFound)
	}
	return data.Order.toModel(), nil
}

func (c *HTTPClient) ListOrders(ctx context.Context, token string) ([]model.Order, error) {
	var data ordersData
	if err := c.do(ctx, "list orders", http.MethodGet, token, nil, nil, &data, "orders", "my-orders"); err != nil {
		return nil, err
	}
	orders := make([]model.Order, 0, len(data.Orders))
	for i := range data.Orders {
		orders = append(orders, *data.Orders[i].toModel())
	}
	return orders, nil
}

func (c *HTTPClient) Profile(ctx context.Context, token string) (*model.Profile, error) {
	var data profileData
	if err := c.do(ctx, "get profile", http.MethodGet, token, nil, nil, &data, "auth", "profile"); err != nil {
		return nil, err
	}
	return data.User.toModel(), nil
}

func (c *HTTPClient) do(ctx context.Context, op, method, token string, header http.Header, body, out any, segments ...string) error {
	endpoint, err := c.endpoint(segments...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domainErrors.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domainErrors.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.rejection(op, resp, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	if !env.Success {
		// some endpoints answer 200 with success=false
		return &domainErrors.BackendRejection{Status: http.StatusUnprocessableEntity, Message: messageOr(env.Message, op+" failed")}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

// endpoint appends segments to the base URL, escaping each one so that a
// caller-supplied identifier always stays a single path element.
func (c *HTTPClient) endpoint(segments ...string) (*url.URL, error) {
	endpoint := *c.baseURL
	rawPath := strings.TrimRight(endpoint.EscapedPath(), "/")
	plainPath := strings.TrimRight(endpoint.Path, "/")
	for _, segment := range segments {
		switch strings.TrimSpace(segment) {
		case "", ".", "..":
			return nil, domainErrors.NewValidationError(fmt.Sprintf("invalid path segment %q", segment), "path")
		}
		rawPath += "/" + url.PathEscape(segment)
		plainPath += "/" + segment
	}
	endpoint.Path = plainPath
	endpoint.RawPath = rawPath
	return &endpoint, nil
}

func (c *HTTPClient) rejection(op string, resp *http.Response, raw []byte) error {
	var env envelope
	_ = json.Unmarshal(raw, &env)
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("backend request failed",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)),
		)
	}
	return &domainErrors.BackendRejection{
		Status:  resp.StatusCode,
		Message: messageOr(env.Message, fmt.Sprintf("%s failed: %s", op, resp.Status)),
	}
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
