package cart

import (
	"errors"

	"github.com/gofrs/uuid"

	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotInCart   = errors.New("item not in cart")
)

// Item is one menu entry held in a customer's cart. Name, price and image
// are snapshots from when the item was added; checkout re-prices against
// the live menu and ignores the snapshot.
type Item struct {
	MenuID   uuid.UUID   `json:"menu_id"`
	Name     string      `json:"name"`
	Price    money.Money `json:"price"`
	Quantity int         `json:"quantity"`
	ImageURL string      `json:"image_url,omitempty"`
}

// Subtotal is the snapshot price times quantity.
func (i Item) Subtotal() money.Money {
	return i.Price.MulQty(i.Quantity)
}

// Summary is a pure projection of the cart for display.
type Summary struct {
	Items      []Item      `json:"items"`
	Subtotal   money.Money `json:"subtotal"`
	Total      money.Money `json:"total"`
	TotalItems int         `json:"total_items"`
}

// Cart is an ephemeral, caller-owned collection of menu selections.
// It preserves insertion order and is not safe for concurrent use;
// the owning session serializes access.
type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

// Add puts an item in the cart, merging quantity if the menu item is
// already present.
func (c *Cart) Add(item Item) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.items {
		if c.items[i].MenuID == item.MenuID {
			c.items[i].Quantity += item.Quantity
			return nil
		}
	}
	c.items = append(c.items, item)
	return nil
}

// SetQuantity replaces the quantity of an item already in the cart.
// Quantities below 1 are rejected, not floored.
func (c *Cart) SetQuantity(menuID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.items {
		if c.items[i].MenuID == menuID {
			c.items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotInCart
}

func (c *Cart) Remove(menuID uuid.UUID) error {
	for i := range c.items {
		if c.items[i].MenuID == menuID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotInCart
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Summarize projects the cart into display totals.
func (c *Cart) Summarize() Summary {
	items := make([]Item, len(c.items))
	copy(items, c.items)

	subtotal := money.Zero
	count := 0
	for _, item := range c.items {
		subtotal = subtotal.Add(item.Subtotal())
		count += item.Quantity
	}

	return Summary{
		Items:      items,
		Subtotal:   subtotal,
		Total:      subtotal,
		TotalItems: count,
	}
}

// Checkout flattens the cart into the line inputs handed to order
// creation. Snapshot prices are dropped; the engine re-prices every line
// from the live catalog.
func (c *Cart) Checkout() []order.LineInput {
	selections := make([]order.LineInput, 0, len(c.items))
	for _, item := range c.items {
		selections = append(selections, order.LineInput{MenuID: item.MenuID, Quantity: item.Quantity})
	}
	return selections
}
