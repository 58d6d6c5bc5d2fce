package menu

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/chopchop-pos/order-engine/internal/money"
)

// Item is a sellable menu entry. Price is the list price; PromoPrice
// applies instead while IsPromo is set.
type Item struct {
	ID          uuid.UUID    `json:"id"`
	CategoryID  uuid.UUID    `json:"category_id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Price       money.Money  `json:"price"`
	IsPromo     bool         `json:"is_promo"`
	PromoPrice  *money.Money `json:"promo_price,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Available   bool         `json:"available"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CurrentPrice is the price an order line snapshots at add time.
func (i *Item) CurrentPrice() money.Money {
	if i.IsPromo && i.PromoPrice != nil {
		return *i.PromoPrice
	}
	return i.Price
}

// Category groups menu items for browsing.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
