package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/chopchop-pos/order-engine/internal/money"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "CASH"
	MethodQRCode PaymentMethod = "QR_CODE"
)

func (pm PaymentMethod) String() string {
	return string(pm)
}

type Origin string

const (
	OriginCustomerSelf    Origin = "CUSTOMER_SELF"
	OriginCashierAssisted Origin = "CASHIER_ASSISTED"
)

func (o Origin) String() string {
	return string(o)
}

// Line is one menu item within an order. Name and UnitPrice are snapshots
// taken when the line was added; later menu price changes never alter a
// historical order.
type Line struct {
	ID        uuid.UUID   `json:"id"`
	MenuID    uuid.UUID   `json:"menu_id"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

// Subtotal is the snapshot unit price times quantity.
func (l Line) Subtotal() money.Money {
	return l.UnitPrice.MulQty(l.Quantity)
}

// Order is one customer transaction. Number is assigned at creation and
// immutable. Version backs the optimistic concurrency check at the store.
type Order struct {
	Number        string         `json:"order_number"`
	Origin        Origin         `json:"origin"`
	CustomerName  string         `json:"customer_name"`
	Status        Status         `json:"status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
	Lines         []Line         `json:"lines"`
	Version       int64          `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Totals are derived amounts, recomputed on every read so stored state can
// never drift from the lines.
type Totals struct {
	Subtotal money.Money `json:"subtotal"`
	Tax      money.Money `json:"tax"`
	Total    money.Money `json:"total"`
}

// Totals sums the lines and applies the tax rate.
func (o *Order) Totals(taxRate decimal.Decimal) Totals {
	subtotal := money.Zero
	for _, line := range o.Lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	tax := money.Tax(subtotal, taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Editable reports whether line mutations are still permitted.
func (o *Order) Editable() bool {
	return o.Status == StatusPending && o.PaymentStatus == PaymentUnpaid
}

func (o *Order) findLine(lineID uuid.UUID) *Line {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}
