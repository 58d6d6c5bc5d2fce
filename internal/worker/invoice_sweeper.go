package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/chopchop-pos/order-engine/internal/invoice"
	"github.com/chopchop-pos/order-engine/internal/order"
)

const sweepConcurrency = 4

// InvoiceSweeper periodically issues invoices for paid orders that are
// missing one, for example after a crash between settlement and issuance.
// Each order funnels through the coordinator's idempotent EnsureInvoice,
// so overlapping or repeated sweeps are harmless.
type InvoiceSweeper struct {
	orders      order.Repository
	coordinator *invoice.Coordinator
	interval    time.Duration
	batchSize   int
}

func NewInvoiceSweeper(orders order.Repository, coordinator *invoice.Coordinator, interval time.Duration, batchSize int) *InvoiceSweeper {
	return &InvoiceSweeper{
		orders:      orders,
		coordinator: coordinator,
		interval:    interval,
		batchSize:   batchSize,
	}
}

// Start blocks until ctx is cancelled.
func (w *InvoiceSweeper) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("invoice sweeper started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("invoice sweeper stopped")
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				log.Error().Err(err).Msg("invoice sweep failed")
			}
		}
	}
}

// Sweep issues invoices for one batch of paid, uninvoiced orders.
func (w *InvoiceSweeper) Sweep(ctx context.Context) error {
	orders, err := w.orders.ListPaidWithoutInvoice(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list paid orders without invoice: %w", err)
	}
	if len(orders) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for i := range orders {
		o := orders[i]
		g.Go(func() error {
			inv, err := w.coordinator.EnsureInvoice(gctx, o.Number, nil)
			if err != nil {
				log.Error().Err(err).Str("order_number", o.Number).Msg("sweep: failed to issue invoice")
				return err
			}
			log.Info().
				Str("order_number", o.Number).
				Str("invoice_number", inv.Number).
				Msg("sweep: issued missing invoice")
			return nil
		})
	}

	return g.Wait()
}
