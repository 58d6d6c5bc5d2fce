package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/chopchop-pos/order-engine/internal/order"
)

// ErrOrderNotPaid means issuance was requested before the order settled.
var ErrOrderNotPaid = errors.New("order is not paid, cannot issue invoice")

// Coordinator guarantees at most one invoice per paid order. Every
// issuance path, including the batch sweep, funnels through EnsureInvoice.
type Coordinator struct {
	invoices Repository
	orders   order.Repository
	taxRate  decimal.Decimal
}

func NewCoordinator(invoices Repository, orders order.Repository, taxRate decimal.Decimal) *Coordinator {
	return &Coordinator{
		invoices: invoices,
		orders:   orders,
		taxRate:  taxRate,
	}
}

// EnsureInvoice returns the invoice for the order, creating it on first
// call. Repeated calls return the same invoice unchanged. issuedBy is nil
// for self-service orders.
func (c *Coordinator) EnsureInvoice(ctx context.Context, orderNumber string, issuedBy *uuid.UUID) (*Invoice, error) {
	existing, err := c.invoices.GetByOrderNumber(ctx, orderNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrInvoiceNotFound) {
		return nil, fmt.Errorf("coordinator: failed to look up invoice: %w", err)
	}

	o, err := c.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if o.PaymentStatus != order.PaymentPaid {
		return nil, ErrOrderNotPaid
	}
	if len(o.Lines) == 0 || o.PaymentMethod == nil {
		// Paid orders always carry lines and a settled method. Anything else
		// is corrupted state, not a caller mistake.
		log.Panic().
			Str("order_number", o.Number).
			Int("lines", len(o.Lines)).
			Msg("coordinator: paid order in invalid state")
	}

	totals := o.Totals(c.taxRate)
	inv := &Invoice{
		OrderNumber:   o.Number,
		TotalAmount:   totals.Subtotal,
		TaxAmount:     totals.Tax,
		FinalAmount:   totals.Total,
		PaymentMethod: *o.PaymentMethod,
		IssuedBy:      issuedBy,
	}

	if err := c.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, ErrInvoiceExists) {
			// Lost the issuance race: return the winner. The winner must be
			// readable; a missing row here is store inconsistency, and must
			// not surface as a not-found to a caller who just paid.
			winner, getErr := c.invoices.GetByOrderNumber(ctx, orderNumber)
			if getErr != nil {
				return nil, fmt.Errorf("coordinator: invoice for order %s reported existing but could not be read: %v", orderNumber, getErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("coordinator: failed to create invoice for order %s: %w", orderNumber, err)
	}

	log.Info().
		Str("invoice_number", inv.Number).
		Str("order_number", o.Number).
		Stringer("final_amount", inv.FinalAmount).
		Msg("invoice issued")
	return inv, nil
}

// GetByOrderNumber is the read side for rendering an issued invoice.
func (c *Coordinator) GetByOrderNumber(ctx context.Context, orderNumber string) (*Invoice, error) {
	return c.invoices.GetByOrderNumber(ctx, orderNumber)
}
