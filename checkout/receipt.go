package checkout

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/storage"
)

// receiptTTL bounds how long a completed-order snapshot stays readable. It
// only exists so a forced reload of the confirmation view still renders; it is
// not an order history.
const receiptTTL = 15 * time.Minute

var ReceiptExpiredErr = errors.New("receipt snapshot missing or expired")

// Receipt is the short-lived "last completed order" snapshot written to
// durable storage when a checkout completes.
type Receipt struct {
	ReceiptID    string              `json:"receipt_id"`
	OrderID      string              `json:"order_id"`
	Gateway      GatewayID           `json:"gateway"`
	TotalPrice   float64             `json:"total_price"`
	Verification orders.Verification `json:"verification"`
	CompletedAt  time.Time           `json:"completed_at"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// SaveReceipt stashes the snapshot under the checkout namespace.
func SaveReceipt(ctx context.Context, store storage.DurableStore, receipt *Receipt) error {
	receipt.ExpiresAt = receipt.CompletedAt.Add(receiptTTL)
	if err := storage.SetJSON(ctx, store, storage.KeyReceiptSnapshot, receipt); err != nil {
		return errors.Wrap(err, "[SaveReceipt]")
	}
	return nil
}

// LoadReceipt reads the snapshot back for a reloaded confirmation view.
// Expired snapshots are deleted and reported as ReceiptExpiredErr.
func LoadReceipt(ctx context.Context, store storage.DurableStore, now time.Time) (*Receipt, error) {
	var receipt Receipt
	if err := storage.GetJSON(ctx, store, storage.KeyReceiptSnapshot, &receipt); err != nil {
		if errors.Is(err, storage.NotFoundErr) {
			return nil, ReceiptExpiredErr
		}
		return nil, errors.Wrap(err, "[LoadReceipt]")
	}
	if now.After(receipt.ExpiresAt) {
		_ = store.Delete(ctx, storage.KeyReceiptSnapshot)
		return nil, ReceiptExpiredErr
	}
	return &receipt, nil
}
