package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// Repository is the persistence contract for menu items.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, onlyAvailable bool) ([]Item, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Item, error)
	Search(ctx context.Context, term string) ([]Item, error)
	Update(ctx context.Context, item *Item) error
	ListCategories(ctx context.Context) ([]Category, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const menuColumns = `id, category_id, name, description, price, is_promo, promo_price, image_url, available, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.CategoryID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.IsPromo,
		&item.PromoPrice,
		&item.ImageURL,
		&item.Available,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select menu item %s: %w", id, err)
	}
	return item, nil
}

func (r *postgresRepository) List(ctx context.Context, onlyAvailable bool) ([]Item, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items`
	if onlyAvailable {
		query += ` WHERE available = TRUE`
	}
	query += ` ORDER BY name`

	return r.queryItems(ctx, query)
}

func (r *postgresRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Item, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE category_id = $1 AND available = TRUE ORDER BY name`
	return r.queryItems(ctx, query, categoryID)
}

func (r *postgresRepository) Search(ctx context.Context, term string) ([]Item, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE name ILIKE '%' || $1 || '%' ORDER BY name`
	return r.queryItems(ctx, query, term)
}

func (r *postgresRepository) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating menu items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE menu_items
		SET category_id = $1, name = $2, description = $3, price = $4,
		    is_promo = $5, promo_price = $6, image_url = $7, available = $8, updated_at = $9
		WHERE id = $10
	`

	item.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx, query,
		item.CategoryID,
		item.Name,
		item.Description,
		item.Price,
		item.IsPromo,
		item.PromoPrice,
		item.ImageURL,
		item.Available,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update menu item %s: %w", item.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}
	return categories, nil
}
