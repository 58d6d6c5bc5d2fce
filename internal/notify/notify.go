// Package notify carries order state changes to the real-time push layer.
// The engine only ever talks to the order.Notifier contract; this package
// provides the default best-effort implementation.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/chopchop-pos/order-engine/internal/order"
)

// LogNotifier reports order changes to the process log. It stands in for
// the websocket broadcaster, which lives outside the engine.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) OrderChanged(_ context.Context, o *order.Order) {
	log.Debug().
		Str("order_number", o.Number).
		Stringer("status", o.Status).
		Stringer("payment_status", o.PaymentStatus).
		Msg("order changed")
}

func (n *LogNotifier) DashboardShouldRefresh(_ context.Context) {
	log.Debug().Msg("dashboard refresh requested")
}
