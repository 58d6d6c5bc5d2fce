package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Repository is the order store. Update applies an optimistic concurrency
// check on Order.Version; losing the check yields ErrConcurrencyConflict.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Order, error)
	ListPaidWithoutInvoice(ctx context.Context, limit int) ([]Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create inserts the order and its lines in one transaction, assigning a
// per-day sequential order number of the form ORD-YYYYMMDD-NNN.
func (r *postgresRepository) Create(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Str("order_number", o.Number).Msg("repository: failed to rollback create")
			}
		}
	}()

	now := time.Now().UTC()
	day := now.Format("20060102")

	var todayCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at::DATE = CURRENT_DATE`,
	).Scan(&todayCount)
	if err != nil {
		return fmt.Errorf("repository: failed to count today's orders: %w", err)
	}

	o.Number = fmt.Sprintf("ORD-%s-%03d", day, todayCount+1)
	o.Version = 1
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (order_number, origin, customer_name, status, payment_status, payment_method, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		o.Number,
		string(o.Origin),
		o.CustomerName,
		string(o.Status),
		string(o.PaymentStatus),
		o.PaymentMethod,
		o.Version,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the daily sequence race; the caller retries with a fresh number.
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	if err = insertLines(ctx, tx, o); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}
	return nil
}

func insertLines(ctx context.Context, tx pgx.Tx, o *Order) error {
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.ID == uuid.Nil {
			id, err := uuid.NewV4()
			if err != nil {
				return fmt.Errorf("repository: failed to generate line ID: %w", err)
			}
			line.ID = id
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO order_lines (id, order_number, menu_id, name, unit_price, quantity, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			line.ID,
			o.Number,
			line.MenuID,
			line.Name,
			line.UnitPrice,
			line.Quantity,
			i,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order line for order %s: %w", o.Number, err)
		}
	}
	return nil
}

const orderColumns = `order_number, origin, customer_name, status, payment_status, payment_method, version, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.Number,
		&o.Origin,
		&o.CustomerName,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", number, err)
	}

	if err := r.loadLines(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) loadLines(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	byNumber := make(map[string]*Order, len(orders))
	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Lines = make([]Line, 0)
		byNumber[o.Number] = o
		numbers = append(numbers, o.Number)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_number, menu_id, name, unit_price, quantity
		FROM order_lines
		WHERE order_number = ANY($1)
		ORDER BY position
	`, numbers)
	if err != nil {
		return fmt.Errorf("repository: failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line Line
		var orderNumber string
		if err := rows.Scan(&line.ID, &orderNumber, &line.MenuID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			return fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		if o, ok := byNumber[orderNumber]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order lines: %w", err)
	}
	return nil
}

// Update writes the order back if and only if its stored version still
// matches o.Version, then bumps the version. Lines are replaced wholesale;
// their count is small and position preserves display order.
func (r *postgresRepository) Update(ctx context.Context, o *Order) (err error) {
	if o.PaymentStatus == PaymentPaid && len(o.Lines) == 0 {
		// Internal invariant, not a user error: a paid order always has lines.
		log.Panic().Str("order_number", o.Number).Msg("repository: paid order with no lines")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Str("order_number", o.Number).Msg("repository: failed to rollback update")
			}
		}
	}()

	o.UpdatedAt = time.Now().UTC()

	cmdTag, err := tx.Exec(ctx, `
		UPDATE orders
		SET origin = $1, customer_name = $2, status = $3, payment_status = $4,
		    payment_method = $5, version = version + 1, updated_at = $6
		WHERE order_number = $7 AND version = $8
	`,
		string(o.Origin),
		o.CustomerName,
		string(o.Status),
		string(o.PaymentStatus),
		o.PaymentMethod,
		o.UpdatedAt,
		o.Number,
		o.Version,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.Number, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, o.Number,
		).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to check order %s: %w", o.Number, err)
		}
		if !exists {
			err = ErrOrderNotFound
			return err
		}
		err = ErrConcurrencyConflict
		return err
	}

	if _, err = tx.Exec(ctx, `DELETE FROM order_lines WHERE order_number = $1`, o.Number); err != nil {
		return fmt.Errorf("repository: failed to clear order lines for %s: %w", o.Number, err)
	}
	if err = insertLines(ctx, tx, o); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	o.Version++
	return nil
}

func (r *postgresRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders by date range: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

// ListPaidWithoutInvoice feeds the invoice sweep: paid orders that have no
// invoice row yet, oldest first.
func (r *postgresRepository) ListPaidWithoutInvoice(ctx context.Context, limit int) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixedOrderColumns("o")+`
		FROM orders o
		LEFT JOIN invoices i ON i.order_number = o.order_number
		WHERE o.payment_status = 'PAID' AND i.order_number IS NULL
		ORDER BY o.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query paid orders without invoice: %w", err)
	}
	defer rows.Close()

	return r.collectOrders(ctx, rows)
}

func prefixedOrderColumns(alias string) string {
	return alias + `.order_number, ` + alias + `.origin, ` + alias + `.customer_name, ` +
		alias + `.status, ` + alias + `.payment_status, ` + alias + `.payment_method, ` +
		alias + `.version, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func (r *postgresRepository) collectOrders(ctx context.Context, rows pgx.Rows) ([]Order, error) {
	var result []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}
	rows.Close()

	if err := r.loadLines(ctx, result); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(result))
	for _, o := range result {
		orders = append(orders, *o)
	}
	return orders, nil
}
