package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

const inventoryColumns = `id, name, description, image_url, is_available, has_stock_limit, stock_quantity, price_modifier, sort_order, created_at`

func table(kind models.InventoryKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown inventory kind %q", kind)
	}
	return string(kind), nil
}

func (s *Store) ListInventory(ctx context.Context, kind models.InventoryKind, onlyAvailable bool) ([]models.InventoryItem, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + inventoryColumns + ` FROM ` + t
	if onlyAvailable {
		query += ` WHERE is_available = 1`
	}
	query += ` ORDER BY sort_order, id`
	var items []models.InventoryItem
	if err := s.DB.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, kind models.InventoryKind, id int64) (*models.InventoryItem, error) {
	return getInventoryItem(ctx, s.DB, kind, id)
}

func (s *Store) CreateInventoryItem(ctx context.Context, kind models.InventoryKind, item *models.InventoryItem) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	normalizeStock(item)
	res, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO `+t+` (name, description, image_url, is_available, has_stock_limit, stock_quantity, price_modifier, sort_order)
		VALUES (:name, :description, :image_url, :is_available, :has_stock_limit, :stock_quantity, :price_modifier, :sort_order)
	`, item)
	if err != nil {
		return err
	}
	item.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateInventoryItem(ctx context.Context, kind models.InventoryKind, item *models.InventoryItem) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	normalizeStock(item)
	res, err := s.DB.NamedExecContext(ctx, `
		UPDATE `+t+` SET name = :name, description = :description, image_url = :image_url,
			is_available = :is_available, has_stock_limit = :has_stock_limit, stock_quantity = :stock_quantity,
			price_modifier = :price_modifier, sort_order = :sort_order
		WHERE id = :id
	`, item)
	return affected(res, err)
}

func (s *Store) DeleteInventoryItem(ctx context.Context, kind models.InventoryKind, id int64) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM `+t+` WHERE id = ?`, id)
	return affected(res, err)
}

// DecrementStock lowers a stock-limited item's quantity by qty, flooring at
// zero and marking the item unavailable when it reaches zero, in a single
// statement. Items without a stock limit are left untouched.
func (s *Store) DecrementStock(ctx context.Context, kind models.InventoryKind, id int64, qty int) error {
	return decrementStock(ctx, s.DB, kind, id, qty)
}

// normalizeStock clears the quantity of items without a stock limit and
// keeps a limited item at zero unavailable.
func normalizeStock(item *models.InventoryItem) {
	if !item.HasStockLimit {
		item.StockQuantity = nil
		return
	}
	if item.StockQuantity == nil {
		zero := 0
		item.StockQuantity = &zero
	}
	if *item.StockQuantity < 0 {
		*item.StockQuantity = 0
	}
	if *item.StockQuantity == 0 {
		item.IsAvailable = false
	}
}

func getInventoryItem(ctx context.Context, q sqlx.QueryerContext, kind models.InventoryKind, id int64) (*models.InventoryItem, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	var item models.InventoryItem
	if err := sqlx.GetContext(ctx, q, &item, `SELECT `+inventoryColumns+` FROM `+t+` WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func decrementStock(ctx context.Context, q sqlx.ExtContext, kind models.InventoryKind, id int64, qty int) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	if qty < 0 {
		return fmt.Errorf("negative decrement %d", qty)
	}
	if _, err := getInventoryItem(ctx, q, kind, id); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE `+t+` SET
			stock_quantity = MAX(0, COALESCE(stock_quantity, 0) - ?),
			is_available = CASE WHEN MAX(0, COALESCE(stock_quantity, 0) - ?) > 0 THEN 1 ELSE 0 END
		WHERE id = ? AND has_stock_limit = 1
	`, qty, qty, id)
	return err
}
