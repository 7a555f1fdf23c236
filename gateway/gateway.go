// Package gateway routes a checkout draft to one of two payment gateways
// behind a single Pay contract. Gateway A confirms synchronously in-page and
// is verified server-side before the order is created; gateway B hands control
// to a hosted page and comes back via a redirect handled by the reconciler.
package gateway

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/checkout"
)

var (
	GatewayUnavailableErr        = errors.New("payment gateway unavailable")
	PaymentVerificationFailedErr = errors.New("payment verification failed")
	StockBlockedErr              = errors.New("stock check blocked checkout")
	NotAuthenticatedErr          = errors.New("not authenticated")
	PaymentInProgressErr         = errors.New("a payment attempt is already in progress")
	UnknownGatewayErr            = errors.New("unknown gateway")
)

// Session is one gateway-side payment session. For gateway B it is persisted
// to durable storage before the redirect, because confirmation arrives as a
// fresh page load.
type Session struct {
	GatewayID        checkout.GatewayID `json:"gateway_id"`
	ExternalOrderRef string             `json:"external_order_ref"`
	ClientSecret     string             `json:"client_secret,omitempty"`
	RedirectURL      string             `json:"redirect_url,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Confirmation is gateway A's in-page success callback payload, passed to the
// backend for signature verification.
type Confirmation struct {
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

// PaymentStatus is the backend's answer to a status lookup keyed by the
// external order reference.
type PaymentStatus struct {
	PaymentRef string `json:"payment_ref"`
	Paid       bool   `json:"paid"`
}

// BackendClient is the storefront backend's gateway surface: it creates
// gateway sessions server-side, verifies gateway A confirmations, and resolves
// payment status for gateway B reconciliation.
type BackendClient interface {
	CreateGatewaySession(ctx context.Context, id checkout.GatewayID, amount float64) (*Session, error)
	VerifyPayment(ctx context.Context, confirmation Confirmation) error
	LookupPaymentStatus(ctx context.Context, externalOrderRef string) (*PaymentStatus, error)
}

// InPageResult is what gateway A's payment UI reports back within the same
// page lifetime.
type InPageResult struct {
	Dismissed  bool
	PaymentRef string
	Signature  string
}

// InPageUI drives gateway A's in-page payment surface. The production
// implementation wraps the gateway SDK; a load failure surfaces as an error
// from Present.
type InPageUI interface {
	Present(ctx context.Context, sess *Session) (*InPageResult, error)
}
