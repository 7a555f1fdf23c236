package orderfakes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shoplane/storefront-core/orders"
)

var _ orders.Creator = (*FakeCreator)(nil)

// FakeCreator records every creation request so tests can assert the
// at-most-once discipline.
type FakeCreator struct {
	lock     sync.Mutex
	attempts int
	requests []*orders.CreateOrderRequest

	Err error // returned instead of creating, when set
}

func NewFakeCreator() *FakeCreator {
	return &FakeCreator{}
}

func (c *FakeCreator) Create(_ context.Context, req *orders.CreateOrderRequest) (*orders.Order, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.attempts++
	if c.Err != nil {
		return nil, c.Err
	}
	c.requests = append(c.requests, req)
	return &orders.Order{
		ID:         uuid.New().String(),
		Status:     "created",
		TotalPrice: req.TotalPrice,
		CreatedAt:  time.Now(),
	}, nil
}

// Calls returns how many creation calls were made, successful or not.
func (c *FakeCreator) Calls() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.attempts
}

// LastRequest returns the most recent creation request, or nil.
func (c *FakeCreator) LastRequest() *orders.CreateOrderRequest {
	c.lock.Lock()
	defer c.lock.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}
