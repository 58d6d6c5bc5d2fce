package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chopchop-pos/order-engine/internal/cart"
	"github.com/chopchop-pos/order-engine/internal/menu"
	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

type mockRepository struct {
	createFunc   func(ctx context.Context, o *order.Order) error
	getFunc      func(ctx context.Context, number string) (*order.Order, error)
	updateFunc   func(ctx context.Context, o *order.Order) error
	listFunc     func(ctx context.Context, from, to time.Time) ([]order.Order, error)
	listPaidFunc func(ctx context.Context, limit int) ([]order.Order, error)
}

func (m *mockRepository) Create(ctx context.Context, o *order.Order) error {
	return m.createFunc(ctx, o)
}

func (m *mockRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return m.getFunc(ctx, number)
}

func (m *mockRepository) Update(ctx context.Context, o *order.Order) error {
	return m.updateFunc(ctx, o)
}

func (m *mockRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]order.Order, error) {
	return m.listFunc(ctx, from, to)
}

func (m *mockRepository) ListPaidWithoutInvoice(ctx context.Context, limit int) ([]order.Order, error) {
	return m.listPaidFunc(ctx, limit)
}

type stubCatalog struct {
	items map[uuid.UUID]*menu.Item
}

func (c *stubCatalog) GetMenuItem(_ context.Context, id uuid.UUID) (*menu.Item, error) {
	item, ok := c.items[id]
	if !ok {
		return nil, menu.ErrMenuItemNotFound
	}
	return item, nil
}

type noopNotifier struct{}

func (noopNotifier) OrderChanged(context.Context, *order.Order) {}
func (noopNotifier) DashboardShouldRefresh(context.Context) {}

func newMenuID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return id
}

func newEngine(repo order.Repository, catalog menu.Catalog) *order.Engine {
	return order.NewEngine(repo, catalog, order.NewKeyMutex(), noopNotifier{}, taxRate)
}

func TestEngine_CreateOrder(t *testing.T) {
	availableID := newMenuID(t)
	promoID := newMenuID(t)
	unavailableID := newMenuID(t)

	promoPrice := money.New(8000)
	catalog := &stubCatalog{items: map[uuid.UUID]*menu.Item{
		availableID:   {ID: availableID, Name: "Nasi Goreng", Price: money.New(10000), Available: true},
		promoID:       {ID: promoID, Name: "Es Teh", Price: money.New(5000), IsPromo: true, PromoPrice: &promoPrice, Available: true},
		unavailableID: {ID: unavailableID, Name: "Sate Ayam", Price: money.New(20000), Available: false},
	}}

	repo := &mockRepository{
		createFunc: func(_ context.Context, o *order.Order) error {
			o.Number = "ORD-20260829-001"
			o.Version = 1
			return nil
		},
	}
	engine := newEngine(repo, catalog)

	t.Run("success_with_repricing", func(t *testing.T) {
		o, err := engine.CreateOrder(context.Background(), order.OriginCustomerSelf, "", []order.LineInput{
			{MenuID: availableID, Quantity: 2},
			{MenuID: promoID, Quantity: 1},
		})
		require.NoError(t, err)

		assert.Equal(t, "ORD-20260829-001", o.Number)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.Equal(t, order.PaymentUnpaid, o.PaymentStatus)
		assert.Equal(t, "Customer", o.CustomerName)
		require.Len(t, o.Lines, 2)
		assert.True(t, money.New(10000).Equal(o.Lines[0].UnitPrice))
		// Promo price is the current price at snapshot time.
		assert.True(t, money.New(8000).Equal(o.Lines[1].UnitPrice))
	})

	t.Run("from_cart_checkout", func(t *testing.T) {
		c := cart.New()
		require.NoError(t, c.Add(cart.Item{MenuID: availableID, Name: "Nasi Goreng", Price: money.New(9000), Quantity: 2}))

		o, err := engine.CreateOrder(context.Background(), order.OriginCustomerSelf, "", c.Checkout())
		require.NoError(t, err)

		require.Len(t, o.Lines, 1)
		assert.Equal(t, 2, o.Lines[0].Quantity)
		// The stale cart snapshot price is ignored; the live catalog wins.
		assert.True(t, money.New(10000).Equal(o.Lines[0].UnitPrice))
	})

	t.Run("zero_lines_allowed", func(t *testing.T) {
		o, err := engine.CreateOrder(context.Background(), order.OriginCashierAssisted, "Budi", nil)
		require.NoError(t, err)
		assert.Empty(t, o.Lines)
		assert.Equal(t, "Budi", o.CustomerName)
	})

	t.Run("unavailable_item_rejected", func(t *testing.T) {
		_, err := engine.CreateOrder(context.Background(), order.OriginCustomerSelf, "", []order.LineInput{
			{MenuID: unavailableID, Quantity: 1},
		})
		assert.ErrorIs(t, err, order.ErrMenuItemUnavailable)
	})

	t.Run("unknown_item_rejected", func(t *testing.T) {
		_, err := engine.CreateOrder(context.Background(), order.OriginCustomerSelf, "", []order.LineInput{
			{MenuID: newMenuID(t), Quantity: 1},
		})
		assert.ErrorIs(t, err, menu.ErrMenuItemNotFound)
	})

	t.Run("zero_quantity_rejected", func(t *testing.T) {
		_, err := engine.CreateOrder(context.Background(), order.OriginCustomerSelf, "", []order.LineInput{
			{MenuID: availableID, Quantity: 0},
		})
		assert.ErrorIs(t, err, order.ErrInvalidQuantity)
	})
}

func pendingOrder(lines ...order.Line) *order.Order {
	return &order.Order{
		Number:        "ORD-20260829-001",
		Origin:        order.OriginCustomerSelf,
		CustomerName:  "Customer",
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentUnpaid,
		Lines:         lines,
		Version:       1,
	}
}

func repoFor(o *order.Order) *mockRepository {
	return &mockRepository{
		getFunc: func(_ context.Context, number string) (*order.Order, error) {
			if o == nil || number != o.Number {
				return nil, order.ErrOrderNotFound
			}
			clone := *o
			clone.Lines = append([]order.Line(nil), o.Lines...)
			return &clone, nil
		},
		updateFunc: func(_ context.Context, updated *order.Order) error {
			*o = *updated
			o.Version++
			return nil
		},
	}
}

func TestEngine_AddLine(t *testing.T) {
	menuID := newMenuID(t)
	catalog := &stubCatalog{items: map[uuid.UUID]*menu.Item{
		menuID: {ID: menuID, Name: "Nasi Goreng", Price: money.New(10000), Available: true},
	}}

	t.Run("merges_existing_menu_item", func(t *testing.T) {
		lineID, _ := uuid.NewV4()
		o := pendingOrder(order.Line{ID: lineID, MenuID: menuID, Name: "Nasi Goreng", UnitPrice: money.New(10000), Quantity: 1})
		engine := newEngine(repoFor(o), catalog)

		updated, err := engine.AddLine(context.Background(), o.Number, order.LineInput{MenuID: menuID, Quantity: 2})
		require.NoError(t, err)
		require.Len(t, updated.Lines, 1)
		assert.Equal(t, 3, updated.Lines[0].Quantity)
	})

	t.Run("appends_new_line", func(t *testing.T) {
		o := pendingOrder()
		engine := newEngine(repoFor(o), catalog)

		updated, err := engine.AddLine(context.Background(), o.Number, order.LineInput{MenuID: menuID, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, updated.Lines, 1)
		assert.Equal(t, "Nasi Goreng", updated.Lines[0].Name)
	})

	t.Run("order_not_found", func(t *testing.T) {
		engine := newEngine(repoFor(nil), catalog)
		_, err := engine.AddLine(context.Background(), "ORD-20260829-999", order.LineInput{MenuID: menuID, Quantity: 1})
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
	})
}

func TestEngine_LineEditsGuardedByStatus(t *testing.T) {
	menuID := newMenuID(t)
	catalog := &stubCatalog{items: map[uuid.UUID]*menu.Item{
		menuID: {ID: menuID, Name: "Nasi Goreng", Price: money.New(10000), Available: true},
	}}

	for _, status := range []order.Status{order.StatusConfirmed, order.StatusCompleted, order.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			lineID, _ := uuid.NewV4()
			o := pendingOrder(order.Line{ID: lineID, MenuID: menuID, UnitPrice: money.New(10000), Quantity: 1})
			o.Status = status
			if status != order.StatusCancelled {
				o.PaymentStatus = order.PaymentPaid
			}
			engine := newEngine(repoFor(o), catalog)

			_, err := engine.AddLine(context.Background(), o.Number, order.LineInput{MenuID: menuID, Quantity: 1})
			assert.ErrorIs(t, err, order.ErrOrderNotEditable)

			_, err = engine.SetLineQuantity(context.Background(), o.Number, lineID, 5)
			assert.ErrorIs(t, err, order.ErrOrderNotEditable)

			_, err = engine.RemoveLine(context.Background(), o.Number, lineID)
			assert.ErrorIs(t, err, order.ErrOrderNotEditable)
		})
	}
}

func TestEngine_SetLineQuantity(t *testing.T) {
	menuID := newMenuID(t)
	lineID, _ := uuid.NewV4()
	catalog := &stubCatalog{items: map[uuid.UUID]*menu.Item{}}

	o := pendingOrder(order.Line{ID: lineID, MenuID: menuID, UnitPrice: money.New(10000), Quantity: 1})
	engine := newEngine(repoFor(o), catalog)

	_, err := engine.SetLineQuantity(context.Background(), o.Number, lineID, 0)
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)

	otherID, _ := uuid.NewV4()
	_, err = engine.SetLineQuantity(context.Background(), o.Number, otherID, 2)
	assert.ErrorIs(t, err, order.ErrLineNotFound)

	updated, err := engine.SetLineQuantity(context.Background(), o.Number, lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Lines[0].Quantity)
}

func TestEngine_CancelFlow(t *testing.T) {
	catalog := &stubCatalog{items: map[uuid.UUID]*menu.Item{}}

	t.Run("cancel_pending_unpaid", func(t *testing.T) {
		o := pendingOrder()
		engine := newEngine(repoFor(o), catalog)

		cancelled, err := engine.Cancel(context.Background(), o.Number)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, cancelled.Status)
	})

	t.Run("cancel_paid_order_rejected", func(t *testing.T) {
		o := pendingOrder()
		o.Status = order.StatusConfirmed
		o.PaymentStatus = order.PaymentPaid
		engine := newEngine(repoFor(o), catalog)

		_, err := engine.Cancel(context.Background(), o.Number)
		assert.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("complete_confirmed_order", func(t *testing.T) {
		o := pendingOrder()
		o.Status = order.StatusConfirmed
		o.PaymentStatus = order.PaymentPaid
		engine := newEngine(repoFor(o), catalog)

		completed, err := engine.Transition(context.Background(), o.Number, order.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCompleted, completed.Status)
	})
}

func TestEngine_ListByDateRange(t *testing.T) {
	repo := &mockRepository{
		listFunc: func(_ context.Context, from, to time.Time) ([]order.Order, error) {
			return []order.Order{}, nil
		},
	}
	engine := newEngine(repo, &stubCatalog{})

	now := time.Now()
	_, err := engine.ListByDateRange(context.Background(), now, now.Add(-time.Hour))
	assert.Error(t, err)

	_, err = engine.ListByDateRange(context.Background(), now.Add(-time.Hour), now)
	assert.NoError(t, err)
}
