package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shoplane/storefront-core/checkout"
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/session"
	"github.com/shoplane/storefront-core/stock"
	"github.com/shoplane/storefront-core/storage"
)

const sessionReadyWait = 2 * time.Second

// Deps holds the Router's collaborators.
type Deps struct {
	Validator *stock.Validator
	Guard     *session.Guard
	Backend   BackendClient
	Creator   orders.Creator
	Durable   storage.DurableStore
	InPage    InPageUI
}

// PayOutcome is the result of one Pay call. Exactly one of the three shapes is
// populated: Order (gateway A completed in-page), RedirectURL (gateway B, the
// caller must navigate), or Dismissed (the user closed gateway A's UI; no
// error, no side effects).
type PayOutcome struct {
	Order       *orders.Order
	Receipt     *checkout.Receipt
	RedirectURL string
	Dismissed   bool
	Stock       *stock.Result
}

// RouterOption modifies a Router at construction time.
type RouterOption func(*Router)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) RouterOption {
	return func(r *Router) {
		r.nowFunc = now
	}
}

// Router owns the single "processing" flag for payment attempts and drives
// whichever gateway the draft selected.
type Router struct {
	deps    Deps
	nowFunc func() time.Time

	lock       sync.Mutex
	processing bool
}

func NewRouter(deps Deps, options ...RouterOption) (*Router, error) {
	if deps.Validator == nil {
		return nil, errors.New("[NewRouter] stock validator is required")
	}
	if deps.Guard == nil {
		return nil, errors.New("[NewRouter] session guard is required")
	}
	if deps.Backend == nil {
		return nil, errors.New("[NewRouter] backend client is required")
	}
	if deps.Creator == nil {
		return nil, errors.New("[NewRouter] order creator is required")
	}
	if deps.Durable == nil {
		return nil, errors.New("[NewRouter] durable store is required")
	}

	r := &Router{
		deps:    deps,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Pay validates stock, then drives the draft's selected gateway. Stock is
// always revalidated here, never trusted from an earlier screen.
func (r *Router) Pay(ctx context.Context, draft *checkout.Draft) (*PayOutcome, error) {
	r.lock.Lock()
	if r.processing {
		r.lock.Unlock()
		return nil, errors.Wrap(PaymentInProgressErr, "[Router.Pay]")
	}
	r.processing = true
	r.lock.Unlock()
	defer r.reset()

	if readiness := r.deps.Guard.AwaitReady(ctx, sessionReadyWait); readiness == session.Unauthenticated {
		return nil, errors.Wrap(NotAuthenticatedErr, "[Router.Pay]")
	}

	stockResult, err := r.deps.Validator.Validate(ctx, draft.StockItems())
	if err != nil {
		return nil, errors.Wrap(err, "[Router.Pay] stock validation")
	}
	if !stockResult.AllOk {
		return &PayOutcome{Stock: stockResult}, errors.Wrap(StockBlockedErr, "[Router.Pay]")
	}

	switch draft.SelectedGateway {
	case checkout.GatewayA:
		return r.payInPage(ctx, draft, stockResult)
	case checkout.GatewayB:
		return r.payRedirect(ctx, draft, stockResult)
	default:
		return nil, errors.Wrapf(UnknownGatewayErr, "[Router.Pay] %q", draft.SelectedGateway)
	}
}

// payInPage runs the gateway A flow: session, in-page UI, server-side
// verification, then order creation — all within one page lifetime.
func (r *Router) payInPage(ctx context.Context, draft *checkout.Draft, stockResult *stock.Result) (*PayOutcome, error) {
	sess, err := r.deps.Backend.CreateGatewaySession(ctx, checkout.GatewayA, draft.Total)
	if err != nil {
		return nil, errors.Wrap(GatewayUnavailableErr, "[Router.payInPage] create session: "+err.Error())
	}

	if r.deps.InPage == nil {
		return nil, errors.Wrap(GatewayUnavailableErr, "[Router.payInPage] no in-page UI")
	}
	result, err := r.deps.InPage.Present(ctx, sess)
	if err != nil {
		return nil, errors.Wrap(GatewayUnavailableErr, "[Router.payInPage] present: "+err.Error())
	}
	if result.Dismissed {
		log.Info().Str("order_ref", sess.ExternalOrderRef).Msg("payment UI dismissed")
		return &PayOutcome{Dismissed: true, Stock: stockResult}, nil
	}

	confirmation := Confirmation{
		OrderRef:   sess.ExternalOrderRef,
		PaymentRef: result.PaymentRef,
		Signature:  result.Signature,
	}
	if err := r.deps.Backend.VerifyPayment(ctx, confirmation); err != nil {
		// Draft untouched; the user can retry or switch gateways.
		return nil, errors.Wrap(PaymentVerificationFailedErr, "[Router.payInPage] "+err.Error())
	}

	evidence := orders.Evidence{
		Gateway:      string(checkout.GatewayA),
		OrderRef:     sess.ExternalOrderRef,
		PaymentRef:   result.PaymentRef,
		Verification: orders.VerificationServerVerified,
	}
	req, err := checkout.Assemble(draft, evidence)
	if err != nil {
		return nil, errors.Wrap(err, "[Router.payInPage] assemble")
	}

	order, err := r.deps.Creator.Create(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "[Router.payInPage] create order")
	}

	receipt := &checkout.Receipt{
		ReceiptID:    sess.ExternalOrderRef,
		OrderID:      order.ID,
		Gateway:      checkout.GatewayA,
		TotalPrice:   order.TotalPrice,
		Verification: evidence.Verification,
		CompletedAt:  r.nowFunc(),
	}
	if err := checkout.SaveReceipt(ctx, r.deps.Durable, receipt); err != nil {
		log.Warn().Err(err).Msg("receipt snapshot write failed")
	}

	log.Info().Str("order_id", order.ID).Str("gateway", "A").Msg("order created")
	return &PayOutcome{Order: order, Receipt: receipt, Stock: stockResult}, nil
}

// payRedirect runs the gateway B prologue: create the session, persist the
// draft and session durably, then hand back the redirect URL. Both writes
// happen before the caller is allowed to navigate away.
func (r *Router) payRedirect(ctx context.Context, draft *checkout.Draft, stockResult *stock.Result) (*PayOutcome, error) {
	sess, err := r.deps.Backend.CreateGatewaySession(ctx, checkout.GatewayB, draft.Total)
	if err != nil {
		return nil, errors.Wrap(GatewayUnavailableErr, "[Router.payRedirect] create session: "+err.Error())
	}

	if err := storage.SetJSON(ctx, r.deps.Durable, storage.KeyCheckoutDraft, draft); err != nil {
		return nil, errors.Wrap(err, "[Router.payRedirect] persist draft")
	}
	if err := storage.SetJSON(ctx, r.deps.Durable, storage.KeyGatewaySession, sess); err != nil {
		return nil, errors.Wrap(err, "[Router.payRedirect] persist gateway session")
	}

	log.Info().Str("order_ref", sess.ExternalOrderRef).Msg("redirecting to gateway B")
	return &PayOutcome{RedirectURL: sess.RedirectURL, Stock: stockResult}, nil
}

func (r *Router) reset() {
	r.lock.Lock()
	r.processing = false
	r.lock.Unlock()
}

// Processing reports whether a payment attempt is currently in flight.
func (r *Router) Processing() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.processing
}
