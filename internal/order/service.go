package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/chopchop-pos/order-engine/internal/menu"
)

// Notifier is the fire-and-forget sink the engine calls after state
// changes. Implementations must not block; their failures never roll back
// order state.
type Notifier interface {
	OrderChanged(ctx context.Context, o *Order)
	DashboardShouldRefresh(ctx context.Context)
}

// LineInput is a requested (menu item, quantity) pair. Prices are always
// resolved from the live catalog, never taken from the caller.
type LineInput struct {
	MenuID   uuid.UUID `json:"menu_id"`
	Quantity int       `json:"quantity"`
}

const defaultCustomerName = "Customer"

// createRetries bounds retries when order-number assignment loses the
// daily sequence race.
const createRetries = 3

// Engine owns the order lifecycle: creation, line edits and status
// transitions, all serialized per order number.
type Engine struct {
	repo     Repository
	catalog  menu.Catalog
	locks    *KeyMutex
	notifier Notifier
	taxRate  decimal.Decimal
}

func NewEngine(repo Repository, catalog menu.Catalog, locks *KeyMutex, notifier Notifier, taxRate decimal.Decimal) *Engine {
	return &Engine{
		repo:     repo,
		catalog:  catalog,
		locks:    locks,
		notifier: notifier,
		taxRate:  taxRate,
	}
}

// TaxRate is the configured rate applied to subtotals.
func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// OrderTotals recomputes the derived amounts for an order.
func (e *Engine) OrderTotals(o *Order) Totals {
	return o.Totals(e.taxRate)
}

// CreateOrder builds a new Pending, Unpaid order. Each selection is
// re-priced from the current catalog; unavailable items reject the whole
// request rather than being silently dropped.
func (e *Engine) CreateOrder(ctx context.Context, origin Origin, customerName string, selections []LineInput) (*Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		customerName = defaultCustomerName
	}

	lines := make([]Line, 0, len(selections))
	for _, sel := range selections {
		line, err := e.resolveLine(ctx, sel)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	o := &Order{
		Origin:        origin,
		CustomerName:  customerName,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Lines:         lines,
	}

	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		err = e.repo.Create(ctx, o)
		if !errors.Is(err, ErrConcurrencyConflict) {
			break
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Str("order_number", o.Number).
		Stringer("origin", origin).
		Int("lines", len(o.Lines)).
		Msg("order created")

	e.notifier.OrderChanged(ctx, o)
	e.notifier.DashboardShouldRefresh(ctx)
	return o, nil
}

func (e *Engine) resolveLine(ctx context.Context, sel LineInput) (*Line, error) {
	if sel.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := e.catalog.GetMenuItem(ctx, sel.MenuID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Name)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate line ID: %w", err)
	}

	return &Line{
		ID:        id,
		MenuID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.CurrentPrice(),
		Quantity:  sel.Quantity,
	}, nil
}

// AddLine appends a menu item to a Pending order, merging quantity when
// the item is already on the order.
func (e *Engine) AddLine(ctx context.Context, number string, sel LineInput) (*Order, error) {
	return e.mutateLines(ctx, number, func(o *Order) error {
		for i := range o.Lines {
			if o.Lines[i].MenuID == sel.MenuID {
				if sel.Quantity < 1 {
					return ErrInvalidQuantity
				}
				o.Lines[i].Quantity += sel.Quantity
				return nil
			}
		}

		line, err := e.resolveLine(ctx, sel)
		if err != nil {
			return err
		}
		o.Lines = append(o.Lines, *line)
		return nil
	})
}

// RemoveLine deletes a line from a Pending order.
func (e *Engine) RemoveLine(ctx context.Context, number string, lineID uuid.UUID) (*Order, error) {
	return e.mutateLines(ctx, number, func(o *Order) error {
		for i := range o.Lines {
			if o.Lines[i].ID == lineID {
				o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
				return nil
			}
		}
		return ErrLineNotFound
	})
}

// SetLineQuantity replaces a line's quantity on a Pending order.
func (e *Engine) SetLineQuantity(ctx context.Context, number string, lineID uuid.UUID, quantity int) (*Order, error) {
	return e.mutateLines(ctx, number, func(o *Order) error {
		if quantity < 1 {
			return ErrInvalidQuantity
		}
		line := o.findLine(lineID)
		if line == nil {
			return ErrLineNotFound
		}
		line.Quantity = quantity
		return nil
	})
}

func (e *Engine) mutateLines(ctx context.Context, number string, mutate func(o *Order) error) (*Order, error) {
	e.locks.Lock(number)
	defer e.locks.Unlock(number)

	o, err := e.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if !o.Editable() {
		return nil, ErrOrderNotEditable
	}

	if err := mutate(o); err != nil {
		return nil, err
	}

	if err := e.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	e.notifier.OrderChanged(ctx, o)
	return o, nil
}

// Transition moves an order to the target status under the state machine's
// guards.
func (e *Engine) Transition(ctx context.Context, number string, target Status) (*Order, error) {
	e.locks.Lock(number)
	defer e.locks.Unlock(number)

	o, err := e.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(o, target); err != nil {
		log.Warn().
			Str("order_number", number).
			Stringer("current_status", o.Status).
			Stringer("target_status", target).
			Msg("service: invalid status transition attempt")
		return nil, err
	}

	o.Status = target
	if err := e.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	log.Info().
		Str("order_number", number).
		Stringer("status", target).
		Msg("order status updated")

	e.notifier.OrderChanged(ctx, o)
	e.notifier.DashboardShouldRefresh(ctx)
	return o, nil
}

// Cancel is a convenience wrapper for the Cancelled transition.
func (e *Engine) Cancel(ctx context.Context, number string) (*Order, error) {
	return e.Transition(ctx, number, StatusCancelled)
}

func (e *Engine) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return e.repo.GetByNumber(ctx, number)
}

func (e *Engine) ListByDateRange(ctx context.Context, from, to time.Time) ([]Order, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("service: invalid date range: %s is not before %s", from, to)
	}
	return e.repo.ListByDateRange(ctx, from, to)
}
