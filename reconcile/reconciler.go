// Package reconcile converts a gateway-B redirect return into at most one
// order-creation call. The browser may re-deliver the same return URL (back/
// forward navigation, component remount), the gateway may hand back an
// unexpanded placeholder instead of a payment id, and the checkout draft only
// exists in durable storage — this package absorbs all three.
package reconcile

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/gateway"
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/storage"
)

// Return URL query parameters, fixed by the gateway-B contract.
const (
	paramGateway   = "gateway"
	paramOrderID   = "order_id"
	paramPaymentID = "payment_id"
)

var (
	OrderDataMissingErr = errors.New("checkout draft missing from durable storage")
	OrderCreationErr    = errors.New("order creation failed")
)

// Deps holds the Reconciler's collaborators.
type Deps struct {
	Backend gateway.BackendClient
	Creator orders.Creator
	Durable storage.DurableStore
}

// Outcome reports what a HandleReturn call did. NotGatewayB and Duplicate are
// both no-ops; a populated Receipt means an order was created.
type Outcome struct {
	NotGatewayB bool
	Duplicate   bool
	Order       *orders.Order
	Receipt     *checkout.Receipt
}

// ReconcilerOption modifies a Reconciler at construction time.
type ReconcilerOption func(*Reconciler)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.nowFunc = now
	}
}

// Reconciler is scoped to one redirect return: it is constructed on mount and
// its guard never resets. A remount constructs a fresh one, but by then the
// durable draft keys are gone and the flow fails closed.
type Reconciler struct {
	deps    Deps
	nowFunc func() time.Time
	guard   singleShot
}

func NewReconciler(deps Deps, options ...ReconcilerOption) (*Reconciler, error) {
	if deps.Backend == nil {
		return nil, errors.New("[NewReconciler] backend client is required")
	}
	if deps.Creator == nil {
		return nil, errors.New("[NewReconciler] order creator is required")
	}
	if deps.Durable == nil {
		return nil, errors.New("[NewReconciler] durable store is required")
	}

	r := &Reconciler{
		deps:    deps,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// HandleReturn processes a gateway-B return URL. Whatever happens past the
// guard, the durable draft keys are cleared — a stale draft must never survive
// to be double-submitted by a later attempt.
func (r *Reconciler) HandleReturn(ctx context.Context, returnURL string) (*Outcome, error) {
	parsed, err := url.Parse(returnURL)
	if err != nil {
		return nil, errors.Wrap(err, "[Reconciler.HandleReturn] parse return URL")
	}
	query := parsed.Query()

	if checkout.GatewayID(query.Get(paramGateway)) != checkout.GatewayB {
		return &Outcome{NotGatewayB: true}, nil
	}
	orderRef := query.Get(paramOrderID)
	paymentRef := query.Get(paramPaymentID)

	// Claim the guard before the first suspension point.
	if !r.guard.begin() {
		duplicateCallbacks.Inc()
		log.Info().Str("order_ref", orderRef).Msg("duplicate redirect callback suppressed")
		return &Outcome{Duplicate: true}, nil
	}
	defer r.guard.finish()

	var draft checkout.Draft
	if err := storage.GetJSON(ctx, r.deps.Durable, storage.KeyCheckoutDraft, &draft); err != nil {
		r.clearDraftKeys(ctx)
		return nil, errors.Wrap(OrderDataMissingErr, "[Reconciler.HandleReturn] draft: "+err.Error())
	}
	var gwSession gateway.Session
	if err := storage.GetJSON(ctx, r.deps.Durable, storage.KeyGatewaySession, &gwSession); err != nil {
		r.clearDraftKeys(ctx)
		return nil, errors.Wrap(OrderDataMissingErr, "[Reconciler.HandleReturn] gateway session: "+err.Error())
	}
	if orderRef == "" || isPlaceholder(orderRef) {
		orderRef = gwSession.ExternalOrderRef
	}

	evidence := r.resolveEvidence(ctx, orderRef, paymentRef)

	req, err := checkout.Assemble(&draft, evidence)
	if err != nil {
		r.clearDraftKeys(ctx)
		return nil, errors.Wrap(err, "[Reconciler.HandleReturn] assemble")
	}

	order, err := r.deps.Creator.Create(ctx, req)
	if err != nil {
		// Clear regardless; the user restarts checkout, we never re-submit.
		r.clearDraftKeys(ctx)
		return nil, errors.Wrap(OrderCreationErr, "[Reconciler.HandleReturn] "+err.Error())
	}

	r.clearDraftKeys(ctx)
	ordersCreated.WithLabelValues(string(evidence.Verification)).Inc()

	receipt := &checkout.Receipt{
		ReceiptID:    uuid.New().String(),
		OrderID:      order.ID,
		Gateway:      checkout.GatewayB,
		TotalPrice:   order.TotalPrice,
		Verification: evidence.Verification,
		CompletedAt:  r.nowFunc(),
	}
	if err := checkout.SaveReceipt(ctx, r.deps.Durable, receipt); err != nil {
		log.Warn().Err(err).Msg("receipt snapshot write failed")
	}

	log.Info().
		Str("order_id", order.ID).
		Str("order_ref", orderRef).
		Str("verification", string(evidence.Verification)).
		Msg("gateway B order reconciled")
	return &Outcome{Order: order, Receipt: receipt}, nil
}

// resolveEvidence turns the return parameters into the strongest evidence
// obtainable. A real payment id is verified server-side; a placeholder goes
// through a status lookup keyed by the order reference. When both fail the
// order still goes through — reaching the return URL is itself
// gateway-asserted proof of an attempted payment — but it is tagged
// unverified-but-redirected for manual reconciliation.
func (r *Reconciler) resolveEvidence(ctx context.Context, orderRef, paymentRef string) orders.Evidence {
	evidence := orders.Evidence{
		Gateway:  string(checkout.GatewayB),
		OrderRef: orderRef,
	}

	if paymentRef != "" && !isPlaceholder(paymentRef) {
		err := r.deps.Backend.VerifyPayment(ctx, gateway.Confirmation{OrderRef: orderRef, PaymentRef: paymentRef})
		if err == nil {
			evidence.PaymentRef = paymentRef
			evidence.Verification = orders.VerificationServerVerified
			return evidence
		}
		log.Warn().Err(err).Str("order_ref", orderRef).Msg("payment verification failed on redirect return")
	} else {
		status, err := r.deps.Backend.LookupPaymentStatus(ctx, orderRef)
		if err == nil && status != nil && status.Paid && status.PaymentRef != "" {
			evidence.PaymentRef = status.PaymentRef
			evidence.Verification = orders.VerificationServerVerified
			return evidence
		}
		log.Warn().Err(err).Str("order_ref", orderRef).Msg("payment status lookup failed for placeholder payment id")
	}

	evidence.Verification = orders.VerificationUnverifiedRedirect
	unverifiedRedirects.Inc()
	log.Warn().Str("order_ref", orderRef).Msg("proceeding unverified-but-redirected")
	return evidence
}

// clearDraftKeys removes the gateway-B draft and session keys. Deleting on
// failure as well as success is deliberate: a stale draft is a
// double-submission hazard.
func (r *Reconciler) clearDraftKeys(ctx context.Context) {
	if err := r.deps.Durable.Delete(ctx, storage.KeyCheckoutDraft); err != nil {
		log.Warn().Err(err).Msg("failed clearing draft key")
	}
	if err := r.deps.Durable.Delete(ctx, storage.KeyGatewaySession); err != nil {
		log.Warn().Err(err).Msg("failed clearing gateway session key")
	}
}

// Receipt loads the short-lived completed-order snapshot for a reloaded
// confirmation view.
func (r *Reconciler) Receipt(ctx context.Context) (*checkout.Receipt, error) {
	receipt, err := checkout.LoadReceipt(ctx, r.deps.Durable, r.nowFunc())
	if err != nil {
		return nil, errors.Wrap(err, "[Reconciler.Receipt]")
	}
	return receipt, nil
}

// isPlaceholder reports whether value is an unexpanded template token such as
// "{payment_id}" — gateway B substitutes return-URL parameters server-side and
// occasionally delivers the template literal instead.
func isPlaceholder(value string) bool {
	return strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}")
}
