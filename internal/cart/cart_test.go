package cart_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chopchop-pos/order-engine/internal/cart"
	"github.com/chopchop-pos/order-engine/internal/money"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func TestCart_AddMergesQuantity(t *testing.T) {
	c := cart.New()
	menuID := mustUUID(t)

	require.NoError(t, c.Add(cart.Item{MenuID: menuID, Name: "Nasi Goreng", Price: money.New(25000), Quantity: 1}))
	require.NoError(t, c.Add(cart.Item{MenuID: menuID, Name: "Nasi Goreng", Price: money.New(25000), Quantity: 2}))

	sum := c.Summarize()
	require.Len(t, sum.Items, 1)
	assert.Equal(t, 3, sum.Items[0].Quantity)
	assert.Equal(t, 3, sum.TotalItems)
	assert.True(t, money.New(75000).Equal(sum.Subtotal))
}

func TestCart_SetQuantity(t *testing.T) {
	c := cart.New()
	menuID := mustUUID(t)
	require.NoError(t, c.Add(cart.Item{MenuID: menuID, Price: money.New(10000), Quantity: 2}))

	assert.ErrorIs(t, c.SetQuantity(menuID, 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, c.SetQuantity(mustUUID(t), 1), cart.ErrItemNotInCart)

	require.NoError(t, c.SetQuantity(menuID, 5))
	assert.Equal(t, 5, c.Summarize().Items[0].Quantity)
}

func TestCart_AddRejectsInvalidQuantity(t *testing.T) {
	c := cart.New()
	assert.ErrorIs(t, c.Add(cart.Item{MenuID: mustUUID(t), Quantity: 0}), cart.ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestCart_RemoveAndClear(t *testing.T) {
	c := cart.New()
	first := mustUUID(t)
	second := mustUUID(t)
	require.NoError(t, c.Add(cart.Item{MenuID: first, Price: money.New(10000), Quantity: 1}))
	require.NoError(t, c.Add(cart.Item{MenuID: second, Price: money.New(5000), Quantity: 1}))

	require.NoError(t, c.Remove(first))
	sum := c.Summarize()
	require.Len(t, sum.Items, 1)
	assert.Equal(t, second, sum.Items[0].MenuID)

	assert.ErrorIs(t, c.Remove(first), cart.ErrItemNotInCart)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.Summarize().TotalItems)
}

func TestCart_CheckoutFlattensSelections(t *testing.T) {
	c := cart.New()
	first := mustUUID(t)
	second := mustUUID(t)
	require.NoError(t, c.Add(cart.Item{MenuID: first, Price: money.New(10000), Quantity: 2}))
	require.NoError(t, c.Add(cart.Item{MenuID: second, Price: money.New(5000), Quantity: 1}))

	selections := c.Checkout()
	require.Len(t, selections, 2)
	assert.Equal(t, first, selections[0].MenuID)
	assert.Equal(t, 2, selections[0].Quantity)
	assert.Equal(t, second, selections[1].MenuID)
	assert.Equal(t, 1, selections[1].Quantity)
}
