package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

const orderColumns = `id, order_number, user_id, customer_name, customer_email, customer_phone, design_id,
	color_scheme_id, material_id, quantity, subtotal, shipping, tax, total, status, shipping_address,
	shipping_city, shipping_state, shipping_postal_code, shipping_country, tracking_number, notes,
	created_at, updated_at`

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return createOrder(ctx, s.DB, order)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := s.DB.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	if err := s.DB.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, number); err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.SelectContext(ctx, &orders, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	return orders, err
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.SelectContext(ctx, &orders, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	return orders, err
}

// UpdateOrderStatus sets status and, when non-nil, the tracking number.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string, tracking *string) error {
	now := time.Now().UTC()
	if tracking != nil {
		res, err := s.DB.ExecContext(ctx, `UPDATE orders SET status = ?, tracking_number = ?, updated_at = ? WHERE id = ?`,
			status, *tracking, now, id)
		return affected(res, err)
	}
	res, err := s.DB.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	return affected(res, err)
}

func (t *Tx) CreateOrder(ctx context.Context, order *models.Order) error {
	return createOrder(ctx, t.tx, order)
}

func (t *Tx) GetInventoryItem(ctx context.Context, kind models.InventoryKind, id int64) (*models.InventoryItem, error) {
	return getInventoryItem(ctx, t.tx, kind, id)
}

func (t *Tx) DecrementStock(ctx context.Context, kind models.InventoryKind, id int64, qty int) error {
	return decrementStock(ctx, t.tx, kind, id, qty)
}

func createOrder(ctx context.Context, e sqlx.ExtContext, order *models.Order) error {
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	res, err := sqlx.NamedExecContext(ctx, e, `
		INSERT INTO orders (order_number, user_id, customer_name, customer_email, customer_phone, design_id,
			color_scheme_id, material_id, quantity, subtotal, shipping, tax, total, status, shipping_address,
			shipping_city, shipping_state, shipping_postal_code, shipping_country, tracking_number, notes,
			created_at, updated_at)
		VALUES (:order_number, :user_id, :customer_name, :customer_email, :customer_phone, :design_id,
			:color_scheme_id, :material_id, :quantity, :subtotal, :shipping, :tax, :total, :status, :shipping_address,
			:shipping_city, :shipping_state, :shipping_postal_code, :shipping_country, :tracking_number, :notes,
			:created_at, :updated_at)
	`, order)
	if err != nil {
		return conflict(err)
	}
	order.ID, err = res.LastInsertId()
	return err
}
