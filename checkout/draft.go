// Package checkout holds the pre-payment checkout draft and the pure
// assembler that turns a draft plus gateway evidence into an order-creation
// payload.
package checkout

import (
	"github.com/shoplane/storefront-core/orders"
	"github.com/shoplane/storefront-core/stock"
)

// GatewayID names one of the two payment gateways. A confirms synchronously
// in-page; B confirms via a browser redirect.
type GatewayID string

const (
	GatewayA GatewayID = "A"
	GatewayB GatewayID = "B"
)

// DraftItem is one line of the checkout draft, priced as agreed at the
// summary step.
type DraftItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Size      string  `json:"size,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// Draft is the checkout state produced by the order-summary step. It travels
// to the payment step in navigation state and, for gateway B, is persisted to
// durable storage before the redirect. Losing it pre-payment just restarts
// checkout.
type Draft struct {
	Items           []DraftItem            `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	Shipping        float64                `json:"shipping"`
	Discount        float64                `json:"discount"`
	Total           float64                `json:"total"`
	CouponCode      string                 `json:"coupon_code,omitempty"`
	DeliveryAddress orders.ShippingAddress `json:"delivery_address"`
	SelectedGateway GatewayID              `json:"selected_gateway"`
}

// StockItems projects the draft lines into the validator's input shape.
func (d *Draft) StockItems() []stock.Item {
	items := make([]stock.Item, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, stock.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return items
}
