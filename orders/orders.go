// Package orders defines the order-creation contract between the storefront
// client and the backend. The client emits exactly one creation request per
// confirmed payment event; the backend owns the resulting record.
package orders

import (
	"context"
	"time"
)

// Verification states carried in the evidence block. UnverifiedRedirect is the
// deliberate leniency for gateway-B returns whose transaction could not be
// confirmed: arrival at the return URL is itself gateway-asserted evidence, so
// the order is created but tagged for manual reconciliation.
type Verification string

const (
	VerificationServerVerified     Verification = "server-verified"
	VerificationUnverifiedRedirect Verification = "unverified-but-redirected"
)

// Evidence is the gateway confirmation attached to an order-creation request.
// OrderRef doubles as the idempotency key: the backend treats two requests
// with the same OrderRef as the same checkout.
type Evidence struct {
	Gateway      string       `json:"gateway"`
	OrderRef     string       `json:"orderRef"`
	PaymentRef   string       `json:"paymentRef,omitempty"`
	Verification Verification `json:"verification"`
}

type OrderItem struct {
	Product  string  `json:"product"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Size     string  `json:"size,omitempty"`
	Image    string  `json:"image,omitempty"`
}

type ShippingAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type Coupon struct {
	Code string `json:"code"`
}

// CreateOrderRequest is the normalized order-creation payload. Price fields
// carry the totals the user agreed to at the summary step; they are never
// recomputed from live product prices.
type CreateOrderRequest struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	DiscountPrice   float64         `json:"discountPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	Coupon          *Coupon         `json:"coupon,omitempty"`
	Evidence        Evidence        `json:"evidence"`
}

// Order is the backend's view of a created order, read-only from this core.
type Order struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Creator submits an order-creation request to the backend.
type Creator interface {
	Create(ctx context.Context, req *CreateOrderRequest) (*Order, error)
}
