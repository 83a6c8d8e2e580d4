package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tailorshop/internal/domain"
	"tailorshop/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var laundryTarget = domain.PaymentTarget{Kind: domain.TargetOrder, EntityID: "8f14e45f-ceea-467a-9575-6a8b0c1d2e3f", Group: domain.GroupLaundry}

func TestCreateOrder_SendsPaiseWithBasicAuth(t *testing.T) {
	var got createOrderReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		notes, _ := json.Marshal(got.Notes)
		_ = json.NewEncoder(w).Encode(orderResp{ID: "order_123", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Notes: notes})
	}))
	defer srv.Close()

	c := New(Config{KeyID: "rzp_key", KeySecret: "secret", BaseURL: srv.URL}, nil)
	target := laundryTarget
	order, err := c.CreateOrder(context.Background(), payment.OrderRequest{
		Amount:  decimal.RequireFromString("1000.50"),
		Receipt: "rcpt-1",
		Target:  &target,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100050), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "rcpt-1", got.Receipt)
	assert.Equal(t, "laundry", got.Notes["target_group"])
	assert.Equal(t, payment.GatewayOrder{ID: "order_123", Amount: 100050, Currency: "INR", Receipt: "rcpt-1", Target: &target}, order)
}

func TestCreateOrder_Non2xxIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":"BAD_REQUEST_ERROR"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL}, nil)
	_, err := c.CreateOrder(context.Background(), payment.OrderRequest{Amount: decimal.NewFromInt(10), Receipt: "r"})
	var nerr *payment.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "create order", nerr.Op)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestCreateOrder_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL}, nil)
	_, err := c.CreateOrder(context.Background(), payment.OrderRequest{Amount: decimal.NewFromInt(10)})
	var nerr *payment.NetworkError
	assert.ErrorAs(t, err, &nerr)
}

func TestCreateOrder_RejectsNonPositiveAmount(t *testing.T) {
	c := New(Config{KeyID: "k", KeySecret: "s", BaseURL: "http://127.0.0.1:0"}, nil)
	_, err := c.CreateOrder(context.Background(), payment.OrderRequest{Amount: decimal.Zero, Receipt: "r"})
	assert.True(t, domain.IsValidation(err))
}

func TestFetchOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/v1/orders/order_bound":
			_, _ = w.Write([]byte(`{"id":"order_bound","amount":80000,"currency":"INR","receipt":"01ATTEMPT",` +
				`"notes":{"target_kind":"order","target_id":"8f14e45f-ceea-467a-9575-6a8b0c1d2e3f","target_group":"laundry"}}`))
		case "/v1/orders/order_bare":
			_, _ = w.Write([]byte(`{"id":"order_bare","amount":100,"currency":"INR","notes":[]}`))
		case "/v1/orders/order_flaky":
			http.Error(w, "upstream", http.StatusServiceUnavailable)
		default:
			http.Error(w, `{"error":{"code":"BAD_REQUEST_ERROR"}}`, http.StatusBadRequest)
		}
	}))
	defer srv.Close()
	c := New(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL}, nil)
	ctx := context.Background()

	bound, err := c.FetchOrder(ctx, "order_bound")
	require.NoError(t, err)
	assert.Equal(t, int64(80000), bound.Amount)
	require.NotNil(t, bound.Target)
	assert.Equal(t, laundryTarget, *bound.Target)

	bare, err := c.FetchOrder(ctx, "order_bare")
	require.NoError(t, err)
	assert.Nil(t, bare.Target)

	_, err = c.FetchOrder(ctx, "order_unknown")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	var nerr *payment.NetworkError
	assert.False(t, errors.As(err, &nerr), "an unknown order is not a gateway outage")

	_, err = c.FetchOrder(ctx, "order_flaky")
	assert.ErrorAs(t, err, &nerr)

	_, err = c.FetchOrder(ctx, "../payments")
	assert.True(t, domain.IsValidation(err))
}

func TestVerify(t *testing.T) {
	c := New(Config{KeyID: "k", KeySecret: "topsecret"}, nil)
	good := payment.Proof{
		GatewayOrderID: "order_1",
		PaymentID:      "pay_1",
		Signature:      Signature("topsecret", "order_1", "pay_1"),
	}
	require.NoError(t, c.Verify(context.Background(), good))

	bad := good
	bad.PaymentID = "pay_2"
	assert.ErrorIs(t, c.Verify(context.Background(), bad), ErrSignatureMismatch)

	assert.Error(t, c.Verify(context.Background(), payment.Proof{GatewayOrderID: "order_1"}))
}
