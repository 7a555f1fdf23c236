// Package storage defines the durable client-side key-value store shared across
// page lifetimes. It is the only state that survives a restart, so every key
// lives in an explicit namespace and is deleted as soon as it is consumed.
package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Key namespaces. Logout clears NamespaceAuth and nothing else; the checkout
// namespace is owned by the gateway-B flow and cleared by the reconciler.
const (
	NamespaceAuth     = "auth:"
	NamespaceCheckout = "checkout:"
	NamespaceCart     = "cart:"
)

// Durable keys used by the checkout and session core.
const (
	KeyAuthToken      = NamespaceAuth + "token"
	KeyAuthSession    = NamespaceAuth + "session"
	KeyLoginTimestamp = NamespaceAuth + "login_ts"

	KeyCheckoutDraft   = NamespaceCheckout + "draft"
	KeyGatewaySession  = NamespaceCheckout + "gateway_session"
	KeyReceiptSnapshot = NamespaceCheckout + "receipt"
)

var NotFoundErr = errors.New("key not found")

// DurableStore is the browser-storage analogue: a flat string KV surviving
// process restarts. Implementations must be safe for concurrent use.
type DurableStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// GetJSON reads key and unmarshals it into out. Missing keys surface
// NotFoundErr unchanged so callers can errors.Is on it.
func GetJSON(ctx context.Context, store DurableStore, key string, out any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.Wrap(err, "[GetJSON] unmarshal "+key)
	}
	return nil
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, store DurableStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "[SetJSON] marshal "+key)
	}
	return store.Set(ctx, key, string(raw))
}
