package gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/gateway"
	"github.com/shoplane/storefront-core/gateway/gatewayfakes"
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/orders/orderfakes"
	"github.com/shoplane/storefront-core/session"
	"github.com/shoplane/storefront-core/stock"
	"github.com/shoplane/storefront-core/stock/stockfakes"
	"github.com/shoplane/storefront-core/storage"
	"github.com/shoplane/storefront-core/storage/storefakes"
	"github.com/stretchr/testify/require"
)

type routerFixture struct {
	store        *storefakes.FakeStore
	guard        *session.Guard
	availability *stockfakes.FakeAvailabilityClient
	backend      *gatewayfakes.FakeBackendClient
	inPage       *gatewayfakes.FakeInPageUI
	creator      *orderfakes.FakeCreator
	router       *gateway.Router
}

func setupRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	store := storefakes.NewFakeStore()
	guard, err := session.NewGuard(store,
		session.WithVerifyPolicy(3, time.Millisecond),
		session.WithReadyInterval(time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, guard.Login(context.Background(), &session.User{ID: "user-1"}, "abc123xyz789"))

	availability := stockfakes.NewFakeAvailabilityClient()
	availability.SetStock("sku-1", 10, true)

	validator, err := stock.NewValidator(availability)
	require.NoError(t, err)

	backend := gatewayfakes.NewFakeBackendClient()
	inPage := gatewayfakes.NewFakeInPageUI()
	creator := orderfakes.NewFakeCreator()

	router, err := gateway.NewRouter(gateway.Deps{
		Validator: validator,
		Guard:     guard,
		Backend:   backend,
		Creator:   creator,
		Durable:   store,
		InPage:    inPage,
	})
	require.NoError(t, err)

	return &routerFixture{
		store:        store,
		guard:        guard,
		availability: availability,
		backend:      backend,
		inPage:       inPage,
		creator:      creator,
		router:       router,
	}
}

func routerDraft(gatewayID checkout.GatewayID) *checkout.Draft {
	return &checkout.Draft{
		Items:    []checkout.DraftItem{{ProductID: "sku-1", Name: "Canvas Tote", Quantity: 2, Price: 499.0}},
		Subtotal: 998.0,
		Shipping: 49.0,
		Total:    1047.0,
		DeliveryAddress: orders.ShippingAddress{
			Name: "Jo Shopper", Phone: "9876543210", Address: "12 Hill Road",
			City: "Pune", State: "MH", Pincode: "411001",
		},
		SelectedGateway: gatewayID,
	}
}

func TestPayGatewayACreatesVerifiedOrder(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)

	outcome, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.NoError(t, err)
	require.NotNil(t, outcome.Order)
	require.Equal(t, 1, f.creator.Calls())
	require.Equal(t, 1, f.backend.VerifyCalls)

	req := f.creator.LastRequest()
	require.Equal(t, orders.VerificationServerVerified, req.Evidence.Verification)
	require.Equal(t, "A", req.Evidence.Gateway)
	require.Equal(t, 1047.0, req.TotalPrice)

	// Confirmation snapshot written for reload resilience.
	require.True(t, f.store.Has(storage.KeyReceiptSnapshot))
	require.False(t, f.router.Processing())
}

func TestPayBlockedByInsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)

	// Requested 2, only 1 left between summary and payment.
	f.availability.SetStock("sku-1", 1, true)

	outcome, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.ErrorIs(t, err, gateway.StockBlockedErr)
	require.NotNil(t, outcome)
	require.Len(t, outcome.Stock.Blocking(), 1)
	require.Equal(t, 0, f.creator.Calls())
	require.Equal(t, 0, f.backend.VerifyCalls)
}

func TestPayRevalidatesStockEveryAttempt(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)

	_, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.NoError(t, err)
	before := f.availability.Calls

	_, err = f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.NoError(t, err)
	require.Greater(t, f.availability.Calls, before)
}

func TestPayGatewayADismissalResetsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)
	f.inPage.Dismiss = true

	outcome, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.NoError(t, err)
	require.True(t, outcome.Dismissed)
	require.Equal(t, 0, f.creator.Calls())
	require.False(t, f.router.Processing())

	// The router is immediately reusable.
	f.inPage.Dismiss = false
	outcome, err = f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.NoError(t, err)
	require.NotNil(t, outcome.Order)
}

func TestPayGatewayASDKFailure(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)
	f.inPage.PresentErr = errors.New("sdk script failed to load")

	_, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.ErrorIs(t, err, gateway.GatewayUnavailableErr)
	require.Equal(t, 0, f.creator.Calls())
	require.False(t, f.router.Processing())
}

func TestPayGatewayAVerificationFailureCreatesNoOrder(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)
	f.backend.VerifyErr = errors.New("signature mismatch")

	_, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.ErrorIs(t, err, gateway.PaymentVerificationFailedErr)
	require.Equal(t, 0, f.creator.Calls())
}

func TestPayGatewayBPersistsDraftBeforeRedirect(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)

	outcome, err := f.router.Pay(ctx, routerDraft(checkout.GatewayB))
	require.NoError(t, err)
	require.NotEmpty(t, outcome.RedirectURL)
	require.Nil(t, outcome.Order)

	var persisted checkout.Draft
	require.NoError(t, storage.GetJSON(ctx, f.store, storage.KeyCheckoutDraft, &persisted))
	require.Equal(t, 1047.0, persisted.Total)

	var sess gateway.Session
	require.NoError(t, storage.GetJSON(ctx, f.store, storage.KeyGatewaySession, &sess))
	require.Equal(t, checkout.GatewayB, sess.GatewayID)
	require.Equal(t, f.backend.LastSession().ExternalOrderRef, sess.ExternalOrderRef)
}

func TestPayGatewayBSessionCreationFailure(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)
	f.backend.CreateErr = errors.New("gateway 503")

	_, err := f.router.Pay(ctx, routerDraft(checkout.GatewayB))
	require.ErrorIs(t, err, gateway.GatewayUnavailableErr)
	require.False(t, f.store.Has(storage.KeyCheckoutDraft))
}

func TestPayRequiresSession(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)
	require.NoError(t, f.guard.Logout(ctx))

	_, err := f.router.Pay(ctx, routerDraft(checkout.GatewayA))
	require.ErrorIs(t, err, gateway.NotAuthenticatedErr)
}

func TestPayRejectsUnknownGateway(t *testing.T) {
	ctx := context.Background()
	f := setupRouterFixture(t)

	_, err := f.router.Pay(ctx, routerDraft(checkout.GatewayID("C")))
	require.ErrorIs(t, err, gateway.UnknownGatewayErr)
}
