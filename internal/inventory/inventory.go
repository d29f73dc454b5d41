// Package inventory manages the card designs, color schemes and materials
// offered in the card order flow, and the stock they hold.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("inventory item not found")
	ErrOutOfStock   = errors.New("out of stock")
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

// Store is the persistence the inventory service needs.
type Store interface {
	ListInventory(ctx context.Context, kind models.InventoryKind, onlyAvailable bool) ([]models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, kind models.InventoryKind, id int64) (*models.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, kind models.InventoryKind, item *models.InventoryItem) error
	UpdateInventoryItem(ctx context.Context, kind models.InventoryKind, item *models.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, kind models.InventoryKind, id int64) error
	DecrementStock(ctx context.Context, kind models.InventoryKind, id int64, qty int) error
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	InTx(ctx context.Context, fn func(*store.Tx) error) error
}

type Service struct {
	store   Store
	pricing Pricing
}

func NewService(s Store, pricing Pricing) *Service {
	return &Service{store: s, pricing: pricing}
}

func ParseKind(s string) (models.InventoryKind, error) {
	kind := models.InventoryKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown inventory kind %q", ErrInvalidInput, s)
	}
	return kind, nil
}

func mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Service) List(ctx context.Context, kind models.InventoryKind, onlyAvailable bool) ([]models.InventoryItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown inventory kind %q", ErrInvalidInput, kind)
	}
	items, err := s.store.ListInventory(ctx, kind, onlyAvailable)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return items, nil
}

// Catalogue is every available option of the order flow.
type Catalogue struct {
	CardTypes    []models.InventoryItem `json:"card_types"`
	ColorSchemes []models.InventoryItem `json:"color_schemes"`
	Materials    []models.InventoryItem `json:"materials"`
}

func (s *Service) Catalogue(ctx context.Context) (*Catalogue, error) {
	var c Catalogue
	var err error
	if c.CardTypes, err = s.List(ctx, models.KindCardType, true); err != nil {
		return nil, err
	}
	if c.ColorSchemes, err = s.List(ctx, models.KindColorScheme, true); err != nil {
		return nil, err
	}
	if c.Materials, err = s.List(ctx, models.KindMaterial, true); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) Get(ctx context.Context, kind models.InventoryKind, id int64) (*models.InventoryItem, error) {
	item, err := s.store.GetInventoryItem(ctx, kind, id)
	return item, mapErr(err)
}

// ItemInput is the editable part of an inventory item.
type ItemInput struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url"`
	IsAvailable   bool    `json:"is_available"`
	HasStockLimit bool    `json:"has_stock_limit"`
	StockQuantity *int    `json:"stock_quantity"`
	PriceModifier float64 `json:"price_modifier"`
	SortOrder     int     `json:"sort_order"`
}

func (in ItemInput) validate() error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case len([]rune(name)) > maxNameLength:
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxNameLength)
	case len([]rune(in.Description)) > maxDescriptionLength:
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescriptionLength)
	case in.PriceModifier < 0:
		return fmt.Errorf("%w: price modifier cannot be negative", ErrInvalidInput)
	case in.HasStockLimit && in.StockQuantity != nil && *in.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity cannot be negative", ErrInvalidInput)
	}
	return nil
}

func (in ItemInput) apply(item *models.InventoryItem) {
	item.Name = strings.TrimSpace(in.Name)
	item.Description = strings.TrimSpace(in.Description)
	item.ImageURL = in.ImageURL
	item.IsAvailable = in.IsAvailable
	item.HasStockLimit = in.HasStockLimit
	item.StockQuantity = in.StockQuantity
	item.PriceModifier = in.PriceModifier
	item.SortOrder = in.SortOrder
}

func (s *Service) Create(ctx context.Context, kind models.InventoryKind, in ItemInput) (*models.InventoryItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item := &models.InventoryItem{}
	in.apply(item)
	if err := s.store.CreateInventoryItem(ctx, kind, item); err != nil {
		slog.Error("Failed to create inventory item", "kind", kind, "error", err)
		return nil, err
	}
	slog.Info("Inventory item created", "kind", kind, "id", item.ID, "name", item.Name)
	return item, nil
}

func (s *Service) Update(ctx context.Context, kind models.InventoryKind, id int64, in ItemInput) (*models.InventoryItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	in.apply(item)
	if err := s.store.UpdateInventoryItem(ctx, kind, item); err != nil {
		return nil, mapErr(err)
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, kind models.InventoryKind, id int64) error {
	return mapErr(s.store.DeleteInventoryItem(ctx, kind, id))
}

// Toggle flips one of the quick toggles of an item: "is_available" or
// "has_stock_limit".
func (s *Service) Toggle(ctx context.Context, kind models.InventoryKind, id int64, field string) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	switch field {
	case "is_available":
		if !item.IsAvailable && item.HasStockLimit && (item.StockQuantity == nil || *item.StockQuantity == 0) {
			return nil, fmt.Errorf("%w: restock %q before making it available", ErrInvalidInput, item.Name)
		}
		item.IsAvailable = !item.IsAvailable
	case "has_stock_limit":
		item.HasStockLimit = !item.HasStockLimit
	default:
		return nil, fmt.Errorf("%w: cannot toggle %q", ErrInvalidInput, field)
	}
	if err := s.store.UpdateInventoryItem(ctx, kind, item); err != nil {
		return nil, mapErr(err)
	}
	return item, nil
}

// DecrementStock lowers a stock-limited item's quantity, never below zero.
// Items without a stock limit are unchanged.
func (s *Service) DecrementStock(ctx context.Context, kind models.InventoryKind, id int64, qty int) error {
	if qty < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	return mapErr(s.store.DecrementStock(ctx, kind, id, qty))
}
