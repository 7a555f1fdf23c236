package checkout

import (
	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/orders"
)

var (
	NoItemsErr           = errors.New("checkout draft has no items")
	IncompleteAddressErr = errors.New("delivery address incomplete")
)

// Assemble is the pure transform from a checkout draft (plus whatever gateway
// evidence was obtained) to the order-creation payload. It performs no I/O and
// consults no clock: the same draft and evidence always produce a
// byte-identical payload, so a rebuild after a reload cannot drift from the
// original attempt. Prices are copied from the draft's agreed totals verbatim.
func Assemble(draft *Draft, evidence orders.Evidence) (*orders.CreateOrderRequest, error) {
	if draft == nil || len(draft.Items) == 0 {
		return nil, errors.Wrap(NoItemsErr, "[Assemble]")
	}
	if field := firstMissingAddressField(draft.DeliveryAddress); field != "" {
		return nil, errors.Wrap(IncompleteAddressErr, "[Assemble] missing "+field)
	}

	items := make([]orders.OrderItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		items = append(items, orders.OrderItem{
			Product:  item.ProductID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Size:     item.Size,
			Image:    item.Image,
		})
	}

	req := &orders.CreateOrderRequest{
		OrderItems:      items,
		ShippingAddress: draft.DeliveryAddress,
		PaymentMethod:   string(draft.SelectedGateway),
		ItemsPrice:      draft.Subtotal,
		ShippingPrice:   draft.Shipping,
		DiscountPrice:   draft.Discount,
		TotalPrice:      draft.Total,
		Evidence:        evidence,
	}
	if draft.CouponCode != "" {
		req.Coupon = &orders.Coupon{Code: draft.CouponCode}
	}
	return req, nil
}

func firstMissingAddressField(addr orders.ShippingAddress) string {
	required := []struct {
		name  string
		value string
	}{
		{"name", addr.Name},
		{"phone", addr.Phone},
		{"address", addr.Address},
		{"city", addr.City},
		{"state", addr.State},
		{"pincode", addr.Pincode},
	}
	for _, field := range required {
		if field.value == "" {
			return field.name
		}
	}
	return ""
}
