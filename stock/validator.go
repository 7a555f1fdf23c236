// Package stock gates the pay action on live availability. Results are
// ephemeral: the validator is re-run immediately before every payment attempt
// and nothing here is ever cached or persisted.
package stock

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Outcome classifies a single line item's availability.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeInsufficient Outcome = "insufficient"
	OutcomeOutOfStock   Outcome = "out_of_stock"
	OutcomeUnknown      Outcome = "unknown"
)

// Item is a checkout line item to validate.
type Item struct {
	ProductID string
	Quantity  int
}

// Availability is the live state of one product as reported by the backend.
type Availability struct {
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Sellable  bool   `json:"sellable"`
}

// AvailabilityClient fetches live availability for a single product.
type AvailabilityClient interface {
	Availability(ctx context.Context, productID string) (*Availability, error)
}

// ItemResult is the classified availability of one line item.
type ItemResult struct {
	ProductID    string
	RequestedQty int
	AvailableQty int
	Outcome      Outcome
}

// Blocking reports whether this item must disable the pay action. Unknown is
// deliberately non-blocking: availability here is a best-effort gate and the
// authoritative check happens server-side at order creation.
func (r ItemResult) Blocking() bool {
	return r.Outcome == OutcomeInsufficient || r.Outcome == OutcomeOutOfStock
}

// Result aggregates the per-item classifications for one checkout attempt.
type Result struct {
	Items []ItemResult
	AllOk bool
}

// Blocking returns the subset of items that disable the pay action.
func (r Result) Blocking() []ItemResult {
	blocked := make([]ItemResult, 0)
	for _, item := range r.Items {
		if item.Blocking() {
			blocked = append(blocked, item)
		}
	}
	return blocked
}

// Validator checks live stock through an AvailabilityClient.
type Validator struct {
	client AvailabilityClient
}

func NewValidator(client AvailabilityClient) (*Validator, error) {
	if client == nil {
		return nil, errors.New("[stock.NewValidator] availability client is required")
	}
	return &Validator{client: client}, nil
}

// Validate fetches current availability for every item and classifies it.
// A per-item fetch error yields OutcomeUnknown and does not block checkout.
func (v *Validator) Validate(ctx context.Context, items []Item) (*Result, error) {
	result := &Result{
		Items: make([]ItemResult, 0, len(items)),
		AllOk: true,
	}

	for _, item := range items {
		ir := ItemResult{
			ProductID:    item.ProductID,
			RequestedQty: item.Quantity,
		}

		availability, err := v.client.Availability(ctx, item.ProductID)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("product_id", item.ProductID).Msg("availability check failed, not blocking")
			ir.Outcome = OutcomeUnknown
		case !availability.Sellable || availability.Available <= 0:
			ir.Outcome = OutcomeOutOfStock
		case availability.Available < item.Quantity:
			ir.AvailableQty = availability.Available
			ir.Outcome = OutcomeInsufficient
		default:
			ir.AvailableQty = availability.Available
			ir.Outcome = OutcomeOK
		}

		if ir.Blocking() {
			result.AllOk = false
		}
		result.Items = append(result.Items, ir)
	}

	return result, nil
}
