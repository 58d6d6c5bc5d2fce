package order_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

var taxRate = decimal.NewFromFloat(0.10)

func TestOrder_Totals(t *testing.T) {
	o := &order.Order{
		Lines: []order.Line{
			{Name: "Nasi Goreng", UnitPrice: money.New(10000), Quantity: 2},
			{Name: "Es Teh", UnitPrice: money.New(5000), Quantity: 1},
		},
	}

	totals := o.Totals(taxRate)
	assert.True(t, money.New(25000).Equal(totals.Subtotal), "subtotal %s", totals.Subtotal)
	assert.True(t, money.New(2500).Equal(totals.Tax), "tax %s", totals.Tax)
	assert.True(t, money.New(27500).Equal(totals.Total), "total %s", totals.Total)
}

func TestOrder_TotalsIndependentOfLineOrder(t *testing.T) {
	lines := []order.Line{
		{UnitPrice: money.New(10000), Quantity: 2},
		{UnitPrice: money.New(5000), Quantity: 1},
		{UnitPrice: money.New(12500), Quantity: 3},
	}
	reversed := []order.Line{lines[2], lines[1], lines[0]}

	a := (&order.Order{Lines: lines}).Totals(taxRate)
	b := (&order.Order{Lines: reversed}).Totals(taxRate)

	assert.True(t, a.Subtotal.Equal(b.Subtotal))
	assert.True(t, a.Tax.Equal(b.Tax))
	assert.True(t, a.Total.Equal(b.Total))
	assert.True(t, a.Total.Equal(a.Subtotal.Add(a.Tax)))
}

func TestOrder_TotalsEmptyOrder(t *testing.T) {
	totals := (&order.Order{}).Totals(taxRate)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestOrder_Editable(t *testing.T) {
	editable := &order.Order{Status: order.StatusPending, PaymentStatus: order.PaymentUnpaid}
	assert.True(t, editable.Editable())

	confirmed := &order.Order{Status: order.StatusConfirmed, PaymentStatus: order.PaymentPaid}
	assert.False(t, confirmed.Editable())

	cancelled := &order.Order{Status: order.StatusCancelled, PaymentStatus: order.PaymentUnpaid}
	assert.False(t, cancelled.Editable())
}
