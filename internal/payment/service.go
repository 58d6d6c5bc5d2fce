package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/chopchop-pos/order-engine/internal/invoice"
	"github.com/chopchop-pos/order-engine/internal/money"
	"github.com/chopchop-pos/order-engine/internal/order"
)

var (
	ErrInsufficientPayment = errors.New("tendered amount is less than the order total")
	ErrPaymentDeclined     = errors.New("payment was declined")
	// ErrAlreadySettled is an outcome, not a success: the caller must be
	// able to tell "paid by me" from "someone already paid".
	ErrAlreadySettled = errors.New("order is already paid")
)

// Verifier is the external QR payment rail. Confirmation must complete
// within the context deadline the service supplies.
type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// Request is one settlement attempt. Tendered applies to Cash, QRToken to
// QRCode. CashierID is nil for customer self-service payments.
type Request struct {
	OrderNumber string              `json:"order_number"`
	Method      order.PaymentMethod `json:"payment_method"`
	Tendered    money.Money         `json:"tendered,omitempty"`
	QRToken     string              `json:"qr_token,omitempty"`
	CashierID   *uuid.UUID          `json:"cashier_id,omitempty"`
}

// Result reports a successful settlement. Invoice is always present:
// settlement succeeded implies the invoice exists.
type Result struct {
	Order   *order.Order     `json:"order"`
	Totals  order.Totals     `json:"totals"`
	Change  money.Money      `json:"change"`
	Invoice *invoice.Invoice `json:"invoice"`
}

// Service validates and applies payments exactly once per order.
type Service struct {
	orders        order.Repository
	locks         *order.KeyMutex
	coordinator   *invoice.Coordinator
	verifier      Verifier
	notifier      order.Notifier
	taxRate       decimal.Decimal
	merchantName  string
	verifyTimeout time.Duration
}

func NewService(
	orders order.Repository,
	locks *order.KeyMutex,
	coordinator *invoice.Coordinator,
	verifier Verifier,
	notifier order.Notifier,
	taxRate decimal.Decimal,
	merchantName string,
	verifyTimeout time.Duration,
) *Service {
	return &Service{
		orders:        orders,
		locks:         locks,
		coordinator:   coordinator,
		verifier:      verifier,
		notifier:      notifier,
		taxRate:       taxRate,
		merchantName:  merchantName,
		verifyTimeout: verifyTimeout,
	}
}

// Settle applies one payment to an order. Exactly one concurrent attempt
// per order can succeed; the rest observe ErrAlreadySettled. Once accepted
// the attempt runs to a terminal outcome; callers wanting to abandon it
// must do so before calling.
func (s *Service) Settle(ctx context.Context, req Request) (*Result, error) {
	s.locks.Lock(req.OrderNumber)
	defer s.locks.Unlock(req.OrderNumber)

	o, err := s.orders.GetByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}

	if o.PaymentStatus == order.PaymentPaid {
		return nil, ErrAlreadySettled
	}
	if err := order.ValidateSettlement(o); err != nil {
		return nil, err
	}

	totals := o.Totals(s.taxRate)
	change := money.Zero

	switch req.Method {
	case order.MethodCash:
		if req.Tendered.Cmp(totals.Total) < 0 {
			return nil, ErrInsufficientPayment
		}
		change = req.Tendered.Sub(totals.Total)
		if change.IsNegative() {
			change = money.Zero
		}
	case order.MethodQRCode:
		if err := s.verifyQR(ctx, req.QRToken); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service: unsupported payment method %q", req.Method)
	}

	method := req.Method
	o.PaymentStatus = order.PaymentPaid
	o.Status = order.StatusConfirmed
	o.PaymentMethod = &method

	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	log.Info().
		Str("order_number", o.Number).
		Stringer("method", method).
		Stringer("final_amount", totals.Total).
		Stringer("change", change).
		Msg("payment settled")

	// Issued synchronously so callers can rely on the invoice existing once
	// Settle returns. The payment itself is already durable.
	inv, err := s.coordinator.EnsureInvoice(ctx, o.Number, req.CashierID)
	if err != nil {
		return nil, fmt.Errorf("service: payment settled but invoice issuance failed for order %s: %w", o.Number, err)
	}

	s.notifier.OrderChanged(ctx, o)
	s.notifier.DashboardShouldRefresh(ctx)

	return &Result{
		Order:   o,
		Totals:  totals,
		Change:  change,
		Invoice: inv,
	}, nil
}

// verifyQR asks the external rail to confirm the token, bounded by the
// configured timeout. Timeouts and rail errors all surface as declines,
// never as an ambiguous state.
func (s *Service) verifyQR(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing confirmation token", ErrPaymentDeclined)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	ok, err := s.verifier.Verify(verifyCtx, token)
	if err != nil {
		log.Warn().Err(err).Msg("service: QR verification failed")
		return fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}
	if !ok {
		return ErrPaymentDeclined
	}
	return nil
}

// QRPayload builds the string encoded into the payment QR code. Image
// rendering is owned by the presentation layer.
func (s *Service) QRPayload(o *order.Order) string {
	totals := o.Totals(s.taxRate)
	return fmt.Sprintf("order_number=%s&amount=%s&merchant=%s", o.Number, totals.Total, s.merchantName)
}
