package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClock is a settable TimeProvider shared by the aggregate tests.
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestCart(t *testing.T, clock TimeProvider) *Cart {
	t.Helper()
	cart, err := NewCart(clock, "customer-1")
	require.NoError(t, err)
	return cart
}

func TestNewCart_BlankCustomer(t *testing.T) {
	_, err := NewCart(newStubClock(), "  ")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestAddItem_QuantityBounds(t *testing.T) {
	clock := newStubClock()

	for _, q := range []int{0, -1, 100, 1000} {
		cart := newTestCart(t, clock)
		err := cart.AddItem(clock, "p1", "SKU-1", nil, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
		assert.Empty(t, cart.Items)
	}

	for _, q := range []int{1, 50, 99} {
		cart := newTestCart(t, clock)
		err := cart.AddItem(clock, "p1", "SKU-1", nil, q)
		require.NoError(t, err, "quantity %d", q)
		assert.Equal(t, q, cart.Items[0].Quantity)
	}
}

func TestAddItem_SameSelectionMergesQuantity(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	opts := map[string]string{"color": "black", "size": "L"}

	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", opts, 2))
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", opts, 3))

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItem_DifferentOptionsAreDistinctLines(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)

	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", map[string]string{"size": "M"}, 1))
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", map[string]string{"size": "L"}, 1))

	assert.Len(t, cart.Items, 2)
}

func TestAddItem_MergedOverflowLeavesCartUnchanged(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)

	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 98))
	err := cart.AddItem(clock, "p1", "SKU-1", nil, 2)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 98, cart.Items[0].Quantity)
}

func TestAddItem_DistinctItemLimit(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)

	// 49 distinct selections, then the 50th succeeds and the 51st fails.
	for i := 0; i < 49; i++ {
		pid := ProductID(fmt.Sprintf("p%d", i))
		require.NoError(t, cart.AddItem(clock, pid, "SKU", nil, 1))
	}
	require.NoError(t, cart.AddItem(clock, "p49", "SKU", nil, 1))
	assert.Len(t, cart.Items, 50)

	err := cart.AddItem(clock, "p50", "SKU", nil, 1)
	assert.ErrorIs(t, err, ErrCartItemLimit)
	assert.Len(t, cart.Items, 50)

	// Adding to an existing selection is still allowed at the ceiling.
	require.NoError(t, cart.AddItem(clock, "p0", "SKU", nil, 1))
	assert.Len(t, cart.Items, 50)
}

func TestUpdateQuantity(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 1))
	itemID := cart.Items[0].ID

	require.NoError(t, cart.UpdateQuantity(clock, itemID, 42))
	assert.Equal(t, 42, cart.Items[0].Quantity)

	err := cart.UpdateQuantity(clock, itemID, 100)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 42, cart.Items[0].Quantity)
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 1))

	err := cart.UpdateQuantity(clock, "no-such-item", 5)
	assert.ErrorIs(t, err, ErrInvalidCartState)
}

func TestRemoveItem(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 1))
	require.NoError(t, cart.AddItem(clock, "p2", "SKU-2", nil, 2))

	require.NoError(t, cart.RemoveItem(clock, cart.Items[0].ID))
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, ProductID("p2"), cart.Items[0].ProductID)

	err := cart.RemoveItem(clock, "no-such-item")
	assert.ErrorIs(t, err, ErrInvalidCartState)
}

func TestMerge_SumsMatchingSelections(t *testing.T) {
	clock := newStubClock()
	target := newTestCart(t, clock)
	source := newTestCart(t, clock)

	require.NoError(t, target.AddItem(clock, "p1", "SKU-1", nil, 2))
	require.NoError(t, source.AddItem(clock, "p1", "SKU-1", nil, 3))
	require.NoError(t, source.AddItem(clock, "p2", "SKU-2", nil, 1))

	require.NoError(t, target.Merge(clock, source))
	assert.Len(t, target.Items, 2)
	assert.Equal(t, 5, target.Items[0].Quantity)
}

func TestMerge_OverflowAppliesNothing(t *testing.T) {
	clock := newStubClock()
	target := newTestCart(t, clock)
	source := newTestCart(t, clock)

	require.NoError(t, target.AddItem(clock, "p1", "SKU-1", nil, 98))
	require.NoError(t, source.AddItem(clock, "p2", "SKU-2", nil, 1))
	require.NoError(t, source.AddItem(clock, "p1", "SKU-1", nil, 5))

	err := target.Merge(clock, source)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	// Nothing from the source landed, not even the valid p2 line.
	assert.Len(t, target.Items, 1)
	assert.Equal(t, 98, target.Items[0].Quantity)
}

func TestMerge_DistinctLimitAppliesNothing(t *testing.T) {
	clock := newStubClock()
	target := newTestCart(t, clock)
	source := newTestCart(t, clock)

	for i := 0; i < 49; i++ {
		pid := ProductID(fmt.Sprintf("p%d", i))
		require.NoError(t, target.AddItem(clock, pid, "SKU", nil, 1))
	}
	require.NoError(t, source.AddItem(clock, "s1", "SKU", nil, 1))
	require.NoError(t, source.AddItem(clock, "s2", "SKU", nil, 1))

	err := target.Merge(clock, source)
	assert.ErrorIs(t, err, ErrCartItemLimit)
	assert.Len(t, target.Items, 49)
}

func TestMerge_SelfMergeRejected(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 10))

	err := cart.Merge(clock, cart)
	assert.ErrorIs(t, err, ErrInvalidCartState)
	assert.Equal(t, 10, cart.Items[0].Quantity)

	// The same cart loaded as a separate copy must be rejected too.
	copied := *cart
	err = cart.Merge(clock, &copied)
	assert.ErrorIs(t, err, ErrInvalidCartState)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

func TestConvertToOrder(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 2))

	snapshot, err := cart.ConvertToOrder(clock)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.True(t, cart.Converted)

	// The snapshot is detached from the cart.
	snapshot[0].Quantity = 77
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestConvertToOrder_EmptyCart(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)

	_, err := cart.ConvertToOrder(clock)
	assert.ErrorIs(t, err, ErrInvalidCartState)
	assert.False(t, cart.Converted)
}

func TestConvertedCart_RejectsAllMutation(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 2))
	itemID := cart.Items[0].ID
	_, err := cart.ConvertToOrder(clock)
	require.NoError(t, err)

	assert.ErrorIs(t, cart.AddItem(clock, "p2", "SKU-2", nil, 1), ErrCartAlreadyConverted)
	assert.ErrorIs(t, cart.UpdateQuantity(clock, itemID, 3), ErrCartAlreadyConverted)
	assert.ErrorIs(t, cart.RemoveItem(clock, itemID), ErrCartAlreadyConverted)
	assert.ErrorIs(t, cart.Merge(clock, newTestCart(t, clock)), ErrCartAlreadyConverted)
	assert.ErrorIs(t, cart.MarkItemUnavailable(clock, itemID, "sold out"), ErrCartAlreadyConverted)
	_, err = cart.ConvertToOrder(clock)
	assert.ErrorIs(t, err, ErrCartAlreadyConverted)
	// Conversion conflicts are still invalid-cart-state errors for callers
	// that only distinguish the two error kinds.
	assert.ErrorIs(t, err, ErrInvalidCartState)
}

func TestMarkItemAvailability(t *testing.T) {
	clock := newStubClock()
	cart := newTestCart(t, clock)
	require.NoError(t, cart.AddItem(clock, "p1", "SKU-1", nil, 2))
	itemID := cart.Items[0].ID

	require.NoError(t, cart.MarkItemUnavailable(clock, itemID, "out of stock"))
	assert.False(t, cart.Items[0].Available)
	assert.Equal(t, "out of stock", cart.Items[0].UnavailableReason)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	require.NoError(t, cart.MarkItemAvailable(clock, itemID))
	assert.True(t, cart.Items[0].Available)
	assert.Empty(t, cart.Items[0].UnavailableReason)

	err := cart.MarkItemUnavailable(clock, "no-such-item", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCartState)
}
