package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/gateway"
	"github.com/shoplane/storefront-core/httpapi"
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/stock"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestAvailabilityAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(stock.Availability{ProductID: "sku-1", Available: 4, Sellable: true})
	}))
	defer srv.Close()

	client, err := httpapi.NewClient(srv.URL, staticTokens("abc123xyz789"))
	require.NoError(t, err)

	availability, err := client.Availability(context.Background(), "sku-1")
	require.NoError(t, err)
	require.Equal(t, 4, availability.Available)
	require.Equal(t, "Bearer abc123xyz789", gotAuth)
}

func TestCreateOrderPostsPayload(t *testing.T) {
	var got orders.CreateOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(orders.Order{ID: "order-1", Status: "created", TotalPrice: got.TotalPrice})
	}))
	defer srv.Close()

	client, err := httpapi.NewClient(srv.URL, staticTokens("abc123xyz789"))
	require.NoError(t, err)

	order, err := client.Create(context.Background(), &orders.CreateOrderRequest{
		OrderItems: []orders.OrderItem{{Product: "sku-1", Name: "Canvas Tote", Quantity: 1, Price: 499}},
		TotalPrice: 548,
		Evidence:   orders.Evidence{Gateway: "B", OrderRef: "ext-1", Verification: orders.VerificationServerVerified},
	})
	require.NoError(t, err)
	require.Equal(t, "order-1", order.ID)
	require.Equal(t, "ext-1", got.Evidence.OrderRef)
}

func TestNon2xxBecomesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient stock"}`, http.StatusConflict)
	}))
	defer srv.Close()

	client, err := httpapi.NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Create(context.Background(), &orders.CreateOrderRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")
}

func TestCreateGatewaySessionRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/session", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "B", body["gateway"])
		json.NewEncoder(w).Encode(map[string]any{
			"gateway_id":         "B",
			"external_order_ref": "ext-9",
			"redirect_url":       "https://pay.example.com/hosted/ext-9",
		})
	}))
	defer srv.Close()

	client, err := httpapi.NewClient(srv.URL, nil)
	require.NoError(t, err)

	sess, err := client.CreateGatewaySession(context.Background(), checkout.GatewayB, 548.0)
	require.NoError(t, err)
	require.Equal(t, "ext-9", sess.ExternalOrderRef)
	require.NotEmpty(t, sess.RedirectURL)
}

func TestVerifyPaymentFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "signature mismatch", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := httpapi.NewClient(srv.URL, nil)
	require.NoError(t, err)

	err = client.VerifyPayment(context.Background(), gateway.Confirmation{
		OrderRef:   "ext-1",
		PaymentRef: "pay-1",
		Signature:  "bad-sig",
	})
	require.Error(t, err)
}
