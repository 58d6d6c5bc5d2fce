package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chopchop-pos/order-engine/internal/invoice"
	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

var taxRate = decimal.NewFromFloat(0.10)

type mockInvoiceRepository struct {
	createFunc func(ctx context.Context, inv *invoice.Invoice) error
	getFunc    func(ctx context.Context, orderNumber string) (*invoice.Invoice, error)
}

func (m *mockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	return m.createFunc(ctx, inv)
}

func (m *mockInvoiceRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*invoice.Invoice, error) {
	return m.getFunc(ctx, orderNumber)
}

type mockOrderRepository struct {
	getFunc func(ctx context.Context, number string) (*order.Order, error)
}

func (m *mockOrderRepository) Create(context.Context, *order.Order) error { return nil }

func (m *mockOrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return m.getFunc(ctx, number)
}

func (m *mockOrderRepository) Update(context.Context, *order.Order) error { return nil }

func (m *mockOrderRepository) ListByDateRange(context.Context, time.Time, time.Time) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepository) ListPaidWithoutInvoice(context.Context, int) ([]order.Order, error) {
	return nil, nil
}

func paidOrder() *order.Order {
	menuID, _ := uuid.NewV4()
	lineID, _ := uuid.NewV4()
	method := order.MethodCash
	return &order.Order{
		Number:        "ORD-20260829-001",
		Status:        order.StatusConfirmed,
		PaymentStatus: order.PaymentPaid,
		PaymentMethod: &method,
		Lines: []order.Line{
			{ID: lineID, MenuID: menuID, Name: "Nasi Goreng", UnitPrice: money.New(10000), Quantity: 2},
			{ID: lineID, MenuID: menuID, Name: "Es Teh", UnitPrice: money.New(5000), Quantity: 1},
		},
	}
}

func TestCoordinator_EnsureInvoice(t *testing.T) {
	orders := &mockOrderRepository{
		getFunc: func(_ context.Context, number string) (*order.Order, error) {
			return paidOrder(), nil
		},
	}

	t.Run("issues_on_first_call", func(t *testing.T) {
		cashierID, _ := uuid.NewV4()
		created := 0
		invoices := &mockInvoiceRepository{
			getFunc: func(context.Context, string) (*invoice.Invoice, error) {
				return nil, invoice.ErrInvoiceNotFound
			},
			createFunc: func(_ context.Context, inv *invoice.Invoice) error {
				created++
				inv.Number = "INV-20260829-001"
				return nil
			},
		}
		coordinator := invoice.NewCoordinator(invoices, orders, taxRate)

		inv, err := coordinator.EnsureInvoice(context.Background(), "ORD-20260829-001", &cashierID)
		require.NoError(t, err)

		assert.Equal(t, 1, created)
		assert.Equal(t, "INV-20260829-001", inv.Number)
		assert.Equal(t, "ORD-20260829-001", inv.OrderNumber)
		assert.True(t, money.New(25000).Equal(inv.TotalAmount))
		assert.True(t, money.New(2500).Equal(inv.TaxAmount))
		assert.True(t, money.New(27500).Equal(inv.FinalAmount))
		assert.Equal(t, order.MethodCash, inv.PaymentMethod)
		require.NotNil(t, inv.IssuedBy)
		assert.Equal(t, cashierID, *inv.IssuedBy)
	})

	t.Run("returns_existing_without_creating", func(t *testing.T) {
		existing := &invoice.Invoice{Number: "INV-20260829-001", OrderNumber: "ORD-20260829-001"}
		invoices := &mockInvoiceRepository{
			getFunc: func(context.Context, string) (*invoice.Invoice, error) {
				return existing, nil
			},
			createFunc: func(context.Context, *invoice.Invoice) error {
				t.Fatal("create must not be called when an invoice exists")
				return nil
			},
		}
		coordinator := invoice.NewCoordinator(invoices, orders, taxRate)

		inv, err := coordinator.EnsureInvoice(context.Background(), "ORD-20260829-001", nil)
		require.NoError(t, err)
		assert.Same(t, existing, inv)
	})

	t.Run("lost_race_returns_winner", func(t *testing.T) {
		winner := &invoice.Invoice{Number: "INV-20260829-007", OrderNumber: "ORD-20260829-001"}
		calls := 0
		invoices := &mockInvoiceRepository{
			getFunc: func(context.Context, string) (*invoice.Invoice, error) {
				calls++
				if calls == 1 {
					return nil, invoice.ErrInvoiceNotFound
				}
				return winner, nil
			},
			createFunc: func(context.Context, *invoice.Invoice) error {
				return invoice.ErrInvoiceExists
			},
		}
		coordinator := invoice.NewCoordinator(invoices, orders, taxRate)

		inv, err := coordinator.EnsureInvoice(context.Background(), "ORD-20260829-001", nil)
		require.NoError(t, err)
		assert.Same(t, winner, inv)
	})

	t.Run("exists_signal_without_readable_winner", func(t *testing.T) {
		// A Create conflict always implies a winning row for this order. If
		// that row cannot be read back, the failure must not look like a
		// plain not-found to the caller who just paid.
		invoices := &mockInvoiceRepository{
			getFunc: func(context.Context, string) (*invoice.Invoice, error) {
				return nil, invoice.ErrInvoiceNotFound
			},
			createFunc: func(context.Context, *invoice.Invoice) error {
				return invoice.ErrInvoiceExists
			},
		}
		coordinator := invoice.NewCoordinator(invoices, orders, taxRate)

		inv, err := coordinator.EnsureInvoice(context.Background(), "ORD-20260829-001", nil)
		require.Error(t, err)
		assert.Nil(t, inv)
		assert.NotErrorIs(t, err, invoice.ErrInvoiceNotFound)
	})

	t.Run("unpaid_order_rejected", func(t *testing.T) {
		unpaidOrders := &mockOrderRepository{
			getFunc: func(context.Context, string) (*order.Order, error) {
				o := paidOrder()
				o.PaymentStatus = order.PaymentUnpaid
				o.Status = order.StatusPending
				return o, nil
			},
		}
		invoices := &mockInvoiceRepository{
			getFunc: func(context.Context, string) (*invoice.Invoice, error) {
				return nil, invoice.ErrInvoiceNotFound
			},
		}
		coordinator := invoice.NewCoordinator(invoices, unpaidOrders, taxRate)

		_, err := coordinator.EnsureInvoice(context.Background(), "ORD-20260829-001", nil)
		assert.ErrorIs(t, err, invoice.ErrOrderNotPaid)
	})

	t.Run("order_not_found", func(t *testing.T) {
		missingOrders := &mockOrderRepository{
			getFunc: func(context.Context, string) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
		}
		invoices := &mockInvoiceRepository{
			getFunc: func(context.Context, string) (*invoice.Invoice, error) {
				return nil, invoice.ErrInvoiceNotFound
			},
		}
		coordinator := invoice.NewCoordinator(invoices, missingOrders, taxRate)

		_, err := coordinator.EnsureInvoice(context.Background(), "ORD-20260829-001", nil)
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}
