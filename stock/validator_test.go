package stock_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shoplane/storefront-core/stock"
	"github.com/shoplane/storefront-core/stock/stockfakes"
	"github.com/stretchr/testify/require"
)

func TestValidateAllOk(t *testing.T) {
	client := stockfakes.NewFakeAvailabilityClient()
	client.SetStock("sku-1", 10, true)
	client.SetStock("sku-2", 3, true)

	validator, err := stock.NewValidator(client)
	require.NoError(t, err)

	result, err := validator.Validate(context.Background(), []stock.Item{
		{ProductID: "sku-1", Quantity: 2},
		{ProductID: "sku-2", Quantity: 3},
	})
	require.NoError(t, err)
	require.True(t, result.AllOk)
	require.Empty(t, result.Blocking())
}

func TestValidateInsufficientBlocks(t *testing.T) {
	client := stockfakes.NewFakeAvailabilityClient()
	client.SetStock("sku-1", 1, true)

	validator, err := stock.NewValidator(client)
	require.NoError(t, err)

	// Requested 2, only 1 available.
	result, err := validator.Validate(context.Background(), []stock.Item{{ProductID: "sku-1", Quantity: 2}})
	require.NoError(t, err)
	require.False(t, result.AllOk)
	require.Equal(t, stock.OutcomeInsufficient, result.Items[0].Outcome)
	require.Equal(t, 1, result.Items[0].AvailableQty)
}

func TestValidateOutOfStockBlocks(t *testing.T) {
	client := stockfakes.NewFakeAvailabilityClient()
	client.SetStock("sku-1", 0, true)
	client.SetStock("sku-2", 5, false) // delisted counts as out of stock

	validator, err := stock.NewValidator(client)
	require.NoError(t, err)

	result, err := validator.Validate(context.Background(), []stock.Item{
		{ProductID: "sku-1", Quantity: 1},
		{ProductID: "sku-2", Quantity: 1},
	})
	require.NoError(t, err)
	require.False(t, result.AllOk)
	require.Equal(t, stock.OutcomeOutOfStock, result.Items[0].Outcome)
	require.Equal(t, stock.OutcomeOutOfStock, result.Items[1].Outcome)
}

func TestValidateFetchErrorIsUnknownAndNonBlocking(t *testing.T) {
	client := stockfakes.NewFakeAvailabilityClient()
	client.SetStock("sku-1", 5, true)
	client.SetError("sku-2", errors.New("availability service down"))

	validator, err := stock.NewValidator(client)
	require.NoError(t, err)

	result, err := validator.Validate(context.Background(), []stock.Item{
		{ProductID: "sku-1", Quantity: 1},
		{ProductID: "sku-2", Quantity: 1},
	})
	require.NoError(t, err)
	require.True(t, result.AllOk)
	require.Equal(t, stock.OutcomeUnknown, result.Items[1].Outcome)
}

func TestValidateHitsBackendPerCall(t *testing.T) {
	client := stockfakes.NewFakeAvailabilityClient()
	client.SetStock("sku-1", 5, true)

	validator, err := stock.NewValidator(client)
	require.NoError(t, err)

	items := []stock.Item{{ProductID: "sku-1", Quantity: 1}}
	_, err = validator.Validate(context.Background(), items)
	require.NoError(t, err)
	_, err = validator.Validate(context.Background(), items)
	require.NoError(t, err)

	// No caching between attempts: two validations, two fetches.
	require.Equal(t, 2, client.Calls)
}
