// Package razorpay talks to the Razorpay orders API and checks payment signatures.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tailorshop/internal/domain"
	"tailorshop/internal/payment"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.razorpay.com"

// ErrSignatureMismatch is returned when a callback signature does not match.
var ErrSignatureMismatch = errors.New("razorpay signature mismatch")

// APIError is a non-2xx response from Razorpay.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay error: status %d: %s", e.Status, e.Body)
}

// Config carries the key pair and transport settings.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
	HTTP      *http.Client
}

// Client implements payment.Gateway, payment.OrderLookup and payment.Verifier.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	currency  string
	http      *http.Client
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := cfg.HTTP
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   base,
		currency:  currency,
		http:      hc,
		logger:    logger,
	}
}

// KeyID is the public key handed to the checkout widget.
func (c *Client) KeyID() string { return c.keyID }

func (c *Client) Currency() string { return c.currency }

// Notes keys that carry the payment target on a Razorpay order.
const (
	noteKind   = "target_kind"
	noteEntity = "target_id"
	noteGroup  = "target_group"
)

type createOrderReq struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResp struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
	Status   string          `json:"status"`
	Notes    json.RawMessage `json:"notes,omitempty"`
}

func targetNotes(t *domain.PaymentTarget) map[string]string {
	if t == nil {
		return nil
	}
	return map[string]string{
		noteKind:   string(t.Kind),
		noteEntity: t.EntityID,
		noteGroup:  string(t.Group),
	}
}

// gatewayOrder converts a Razorpay order. Razorpay sends notes as an empty
// array when none were set.
func (o orderResp) gatewayOrder() payment.GatewayOrder {
	out := payment.GatewayOrder{ID: o.ID, Amount: o.Amount, Currency: o.Currency, Receipt: o.Receipt}
	var notes map[string]string
	if err := json.Unmarshal(o.Notes, &notes); err == nil && notes[noteEntity] != "" {
		out.Target = &domain.PaymentTarget{
			Kind:     domain.TargetKind(notes[noteKind]),
			EntityID: notes[noteEntity],
			Group:    domain.Group(notes[noteGroup]),
		}
	}
	return out
}

// CreateOrder registers req.Amount, given in rupees, as a Razorpay order in
// paise. The target travels in the order notes.
func (c *Client) CreateOrder(ctx context.Context, req payment.OrderRequest) (payment.GatewayOrder, error) {
	paise := domain.MinorUnits(req.Amount)
	if paise <= 0 {
		return payment.GatewayOrder{}, domain.NewValidationError("amount", "amount must be positive")
	}
	raw, err := json.Marshal(createOrderReq{
		Amount:   paise,
		Currency: c.currency,
		Receipt:  req.Receipt,
		Notes:    targetNotes(req.Target),
	})
	if err != nil {
		return payment.GatewayOrder{}, err
	}
	out, err := c.do(ctx, http.MethodPost, "/v1/orders", raw)
	if err != nil {
		c.logger.Warn("razorpay create order failed", zap.Error(err))
		return payment.GatewayOrder{}, &payment.NetworkError{Op: "create order", Err: err}
	}
	c.logger.Info("razorpay order created", zap.String("order_id", out.ID), zap.Int64("amount", out.Amount))
	return out.gatewayOrder(), nil
}

// FetchOrder reads an order back. Transport failures and 5xx responses are
// NetworkErrors; an unknown order is an *APIError.
func (c *Client) FetchOrder(ctx context.Context, id string) (payment.GatewayOrder, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return payment.GatewayOrder{}, domain.NewValidationError("razorpay_order_id", "invalid order id")
	}
	out, err := c.do(ctx, http.MethodGet, "/v1/orders/"+id, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			return payment.GatewayOrder{}, err
		}
		return payment.GatewayOrder{}, &payment.NetworkError{Op: "fetch order", Err: err}
	}
	return out.gatewayOrder(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (orderResp, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return orderResp{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return orderResp{}, fmt.Errorf("razorpay %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return orderResp{}, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var out orderResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return orderResp{}, fmt.Errorf("decode razorpay order: %w", err)
	}
	if out.ID == "" {
		return orderResp{}, errors.New("razorpay order missing id")
	}
	return out, nil
}

// Verify checks the callback signature, an HMAC-SHA256 of "order_id|payment_id" keyed with the secret.
func (c *Client) Verify(_ context.Context, proof payment.Proof) error {
	if proof.GatewayOrderID == "" || proof.PaymentID == "" || proof.Signature == "" {
		return domain.NewValidationError("razorpay_signature", "order id, payment id and signature are required")
	}
	expected := Signature(c.keySecret, proof.GatewayOrderID, proof.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(proof.Signature))) {
		return ErrSignatureMismatch
	}
	return nil
}

// Signature computes the hex signature Razorpay sends for a payment.
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
