package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoiceExists means another issuance won the race; the caller
	// fetches and returns the winner.
	ErrInvoiceExists = errors.New("invoice already exists for order")
)

// Repository persists invoices. Create fails with ErrInvoiceExists only
// when an invoice for the same order is already stored; invoice-number
// collisions between different orders are resolved internally.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Invoice, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Unique constraints on the invoices table. A duplicate on order_number
// means the order is already invoiced; a duplicate on invoice_number means
// another order's issuance took the same daily sequence slot.
const (
	orderNumberConstraint   = "invoices_order_number_key"
	invoiceNumberConstraint = "invoices_invoice_number_key"
)

// numberRetries bounds retries when invoice-number assignment loses the
// daily sequence race against a different order.
const numberRetries = 3

// conflictTarget names the unique constraint a duplicate-key error hit,
// or "" when the error is not a duplicate-key violation.
func conflictTarget(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName
	}
	return ""
}

// Create assigns an invoice number of the form INV-YYYYMMDD-NNN and
// inserts the row. The unique constraint on order_number is the final
// arbiter against double issuance; an invoice_number collision is a lost
// sequence race with another order and gets a fresh number.
func (r *postgresRepository) Create(ctx context.Context, inv *Invoice) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate invoice ID: %w", err)
	}
	inv.ID = id
	inv.IssuedAt = time.Now().UTC()

	for attempt := 0; attempt < numberRetries; attempt++ {
		var todayCount int
		err = r.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM invoices WHERE issued_at::DATE = CURRENT_DATE`,
		).Scan(&todayCount)
		if err != nil {
			return fmt.Errorf("repository: failed to count today's invoices: %w", err)
		}
		inv.Number = fmt.Sprintf("INV-%s-%03d", inv.IssuedAt.Format("20060102"), todayCount+1)

		_, err = r.db.Exec(ctx, `
			INSERT INTO invoices (id, invoice_number, order_number, total_amount, tax_amount, final_amount, payment_method, issued_by, issued_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			inv.ID,
			inv.Number,
			inv.OrderNumber,
			inv.TotalAmount,
			inv.TaxAmount,
			inv.FinalAmount,
			string(inv.PaymentMethod),
			inv.IssuedBy,
			inv.IssuedAt,
		)
		if err == nil {
			return nil
		}

		switch conflictTarget(err) {
		case orderNumberConstraint:
			return ErrInvoiceExists
		case invoiceNumberConstraint:
			continue
		default:
			return fmt.Errorf("repository: failed to insert invoice for order %s: %w", inv.OrderNumber, err)
		}
	}
	return fmt.Errorf("repository: could not allocate a unique invoice number for order %s: %w", inv.OrderNumber, err)
}

func (r *postgresRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx, `
		SELECT id, invoice_number, order_number, total_amount, tax_amount, final_amount, payment_method, issued_by, issued_at
		FROM invoices
		WHERE order_number = $1
	`, orderNumber).Scan(
		&inv.ID,
		&inv.Number,
		&inv.OrderNumber,
		&inv.TotalAmount,
		&inv.TaxAmount,
		&inv.FinalAmount,
		&inv.PaymentMethod,
		&inv.IssuedBy,
		&inv.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("repository: failed to select invoice for order %s: %w", orderNumber, err)
	}
	return &inv, nil
}
