package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/pkg/models"
)

// ErrNotFound is returned when the requested order id does not exist.
var ErrNotFound = errors.New("order not found")

// Repository provides CRUD access to the orders aggregate. Line items are
// written and deleted with their parent order; the delete cascade is
// enforced by the line_items foreign key.
type Repository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewRepository(db *sql.DB, logger *logrus.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// EnsureSchema creates the tables if they don't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			price DECIMAL(10,2) NOT NULL,
			order_date DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS line_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			qty INTEGER NOT NULL,
			price DECIMAL(10,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_line_items_order_id ON line_items(order_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	r.logger.Info("Database schema ensured")
	return nil
}

// Save inserts the order and all of its line items in one transaction and
// writes the generated ids back into the passed model.
func (r *Repository) Save(ctx context.Context, order *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (name, email, price, order_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, query, order.Name, order.Email, order.Price,
		order.Date).Scan(&order.ID); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO line_items (order_id, name, qty, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.LineItems {
		item := &order.LineItems[i]
		if err := tx.QueryRowContext(ctx, itemQuery, order.ID, item.Name, item.Qty,
			item.Price).Scan(&item.ID); err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	return tx.Commit()
}

// FindAll returns every order with its line items. Callers must not rely on
// any particular ordering.
func (r *Repository) FindAll(ctx context.Context) ([]models.Order, error) {
	query := `
		SELECT id, name, email, price, order_date
		FROM orders ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.Name, &order.Email, &order.Price, &order.Date); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	for i := range orders {
		items, err := r.findLineItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].LineItems = items
	}

	return orders, nil
}

// FindByID returns the order with its line items, or ErrNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, name, email, price, order_date
		FROM orders WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.Name, &order.Email, &order.Price, &order.Date,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order %d: %w", id, err)
	}

	items, err := r.findLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.LineItems = items

	return order, nil
}

// DeleteByID removes the order; line items go with it via the FK cascade.
// Deleting an id that does not exist is a no-op.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}

func (r *Repository) findLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	query := `
		SELECT id, name, qty, price
		FROM line_items WHERE order_id = $1 ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Qty, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
