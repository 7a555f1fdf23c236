package gatewayfakes

import (
	"context"

	"github.com/shoplane/storefront-core/gateway"
)

var _ gateway.InPageUI = (*FakeInPageUI)(nil)

// FakeInPageUI scripts gateway A's in-page payment surface.
type FakeInPageUI struct {
	PresentErr error // simulates SDK load failure
	Dismiss    bool
	PaymentRef string
	Signature  string

	PresentCalls int
}

func NewFakeInPageUI() *FakeInPageUI {
	return &FakeInPageUI{
		PaymentRef: "pay-1",
		Signature:  "sig-1",
	}
}

func (ui *FakeInPageUI) Present(_ context.Context, _ *gateway.Session) (*gateway.InPageResult, error) {
	ui.PresentCalls++
	if ui.PresentErr != nil {
		return nil, ui.PresentErr
	}
	if ui.Dismiss {
		return &gateway.InPageResult{Dismissed: true}, nil
	}
	return &gateway.InPageResult{PaymentRef: ui.PaymentRef, Signature: ui.Signature}, nil
}
