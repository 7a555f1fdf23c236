package stockfakes

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/stock"
)

var _ stock.AvailabilityClient = (*FakeAvailabilityClient)(nil)

// FakeAvailabilityClient serves availability from an in-memory table.
// Products listed in Errs return their error instead.
type FakeAvailabilityClient struct {
	lock     sync.Mutex
	products map[string]stock.Availability
	errs     map[string]error
	Calls    int
}

func NewFakeAvailabilityClient() *FakeAvailabilityClient {
	return &FakeAvailabilityClient{
		products: make(map[string]stock.Availability),
		errs:     make(map[string]error),
	}
}

func (c *FakeAvailabilityClient) SetStock(productID string, available int, sellable bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.products[productID] = stock.Availability{ProductID: productID, Available: available, Sellable: sellable}
}

func (c *FakeAvailabilityClient) SetError(productID string, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.errs[productID] = err
}

func (c *FakeAvailabilityClient) Availability(_ context.Context, productID string) (*stock.Availability, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.Calls++
	if err, ok := c.errs[productID]; ok {
		return nil, err
	}
	availability, ok := c.products[productID]
	if !ok {
		return nil, errors.New("product not found")
	}
	return &availability, nil
}
