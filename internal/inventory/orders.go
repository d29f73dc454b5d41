package inventory

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/notify"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

const (
	MinOrderQuantity = 1
	MaxOrderQuantity = 100
	maxNotesLength   = 500
	orderPrefix      = "S2T-"
	orderRefCharset  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderRefLength   = 8
)

// Pricing holds the checkout constants. Amounts are in dollars.
type Pricing struct {
	BasePrice             float64
	ShippingFee           float64
	FreeShippingThreshold float64
	TaxRate               float64
}

type Quote struct {
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
	Shipping  float64 `json:"shipping"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Quote prices qty cards built from the given options. material may be nil.
func (p Pricing) Quote(design, color, material *models.InventoryItem, qty int) Quote {
	unit := p.BasePrice + design.PriceModifier + color.PriceModifier
	if material != nil {
		unit += material.PriceModifier
	}
	q := Quote{UnitPrice: roundCents(unit)}
	q.Subtotal = roundCents(unit * float64(qty))
	q.Shipping = p.ShippingFee
	if p.FreeShippingThreshold > 0 && q.Subtotal >= p.FreeShippingThreshold {
		q.Shipping = 0
	}
	q.Tax = roundCents(q.Subtotal * p.TaxRate)
	q.Total = roundCents(q.Subtotal + q.Shipping + q.Tax)
	return q
}

// Result reports the outcome of a stock update in a form the order flow
// can show as is.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// selection is the set of items an order consumes.
type selection struct {
	design   *models.InventoryItem
	color    *models.InventoryItem
	material *models.InventoryItem
}

// reserve checks that every chosen item exists, is available and, for the
// color scheme, has enough stock. A non-empty message is a business
// failure; err is a storage failure.
func reserve(ctx context.Context, tx *store.Tx, designID, colorID int64, materialID *int64, qty int) (*selection, string, error) {
	var sel selection
	var err error

	sel.design, err = tx.GetInventoryItem(ctx, models.KindCardType, designID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "Selected card design was not found", nil
	} else if err != nil {
		return nil, "", err
	}
	if !sel.design.IsAvailable {
		return nil, fmt.Sprintf("%s is no longer available", sel.design.Name), nil
	}

	sel.color, err = tx.GetInventoryItem(ctx, models.KindColorScheme, colorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "Selected color scheme was not found", nil
	} else if err != nil {
		return nil, "", err
	}
	if !sel.color.IsAvailable {
		return nil, fmt.Sprintf("%s is no longer available", sel.color.Name), nil
	}
	if sel.color.HasStockLimit {
		left := 0
		if sel.color.StockQuantity != nil {
			left = *sel.color.StockQuantity
		}
		if left < qty {
			return nil, fmt.Sprintf("Only %d left in %s", left, sel.color.Name), nil
		}
	}

	if materialID != nil {
		sel.material, err = tx.GetInventoryItem(ctx, models.KindMaterial, *materialID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, "Selected material was not found", nil
		} else if err != nil {
			return nil, "", err
		}
		if !sel.material.IsAvailable {
			return nil, fmt.Sprintf("%s is no longer available", sel.material.Name), nil
		}
	}
	return &sel, "", nil
}

func (sel *selection) consume(ctx context.Context, tx *store.Tx, qty int) error {
	if err := tx.DecrementStock(ctx, models.KindCardType, sel.design.ID, qty); err != nil {
		return fmt.Errorf("decrement design %d: %w", sel.design.ID, err)
	}
	if err := tx.DecrementStock(ctx, models.KindColorScheme, sel.color.ID, qty); err != nil {
		return fmt.Errorf("decrement color scheme %d: %w", sel.color.ID, err)
	}
	if sel.material != nil {
		if err := tx.DecrementStock(ctx, models.KindMaterial, sel.material.ID, qty); err != nil {
			return fmt.Errorf("decrement material %d: %w", sel.material.ID, err)
		}
	}
	return nil
}

// stockFailure carries a business failure out of a transaction so that it
// rolls back.
type stockFailure struct{ msg string }

func (f *stockFailure) Error() string { return f.msg }

// ProcessOrderStockDecrement checks and consumes the stock for qty cards
// of the given design and color scheme in one transaction. Business
// failures are reported through Result, never as an error.
func (s *Service) ProcessOrderStockDecrement(ctx context.Context, designID, colorSchemeID int64, qty int) Result {
	if qty < MinOrderQuantity {
		return Result{Message: "Quantity must be at least 1"}
	}
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		sel, msg, err := reserve(ctx, tx, designID, colorSchemeID, nil, qty)
		if err != nil {
			return err
		}
		if msg != "" {
			return &stockFailure{msg: msg}
		}
		return sel.consume(ctx, tx, qty)
	})

	var failure *stockFailure
	switch {
	case errors.As(err, &failure):
		return Result{Message: failure.msg}
	case err != nil:
		slog.Error("Failed to process stock decrement", "design_id", designID, "color_scheme_id", colorSchemeID, "quantity", qty, "error", err)
		return Result{Message: "Could not update stock, please try again"}
	}
	return Result{Success: true, Message: "Stock updated"}
}

// OrderRequest is the checkout form.
type OrderRequest struct {
	DesignID           int64  `json:"design_id"`
	ColorSchemeID      int64  `json:"color_scheme_id"`
	MaterialID         *int64 `json:"material_id"`
	Quantity           int    `json:"quantity"`
	CustomerName       string `json:"customer_name"`
	CustomerEmail      string `json:"customer_email"`
	CustomerPhone      string `json:"customer_phone"`
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingState      string `json:"shipping_state"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ShippingCountry    string `json:"shipping_country"`
	Notes              string `json:"notes"`
}

func (r *OrderRequest) normalize() {
	for _, f := range []*string{
		&r.CustomerName, &r.CustomerEmail, &r.CustomerPhone, &r.ShippingAddress, &r.ShippingCity,
		&r.ShippingState, &r.ShippingPostalCode, &r.ShippingCountry, &r.Notes,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Validate trims the request in place and checks the contact and shipping
// fields and the quantity.
func (r *OrderRequest) Validate() error {
	r.normalize()
	switch {
	case r.CustomerName == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !notify.IsValidEmail(r.CustomerEmail):
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	case r.ShippingAddress == "" || r.ShippingCity == "" || r.ShippingPostalCode == "" || r.ShippingCountry == "":
		return fmt.Errorf("%w: shipping address, city, postal code and country are required", ErrInvalidInput)
	case r.Quantity < MinOrderQuantity || r.Quantity > MaxOrderQuantity:
		return fmt.Errorf("%w: quantity must be between %d and %d", ErrInvalidInput, MinOrderQuantity, MaxOrderQuantity)
	case len([]rune(r.Notes)) > maxNotesLength:
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, maxNotesLength)
	case r.DesignID == 0 || r.ColorSchemeID == 0:
		return fmt.Errorf("%w: choose a card design and a color scheme", ErrInvalidInput)
	}
	return nil
}

// NewOrderNumber returns S2T- followed by 8 characters that avoid the
// easily confused 0/O and 1/I.
func NewOrderNumber() (string, error) {
	b := make([]byte, orderRefLength)
	limit := big.NewInt(int64(len(orderRefCharset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = orderRefCharset[n.Int64()]
	}
	return orderPrefix + string(b), nil
}

// PlaceOrder prices the request, writes a pending order and consumes its
// stock in one transaction. When the stock cannot be consumed no order is
// written and the error wraps ErrOutOfStock.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req OrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	number, err := NewOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("generate order number: %w", err)
	}

	order := &models.Order{
		OrderNumber:        number,
		UserID:             userID,
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		DesignID:           req.DesignID,
		ColorSchemeID:      req.ColorSchemeID,
		MaterialID:         req.MaterialID,
		Quantity:           req.Quantity,
		Status:             models.OrderPending,
		ShippingAddress:    req.ShippingAddress,
		ShippingCity:       req.ShippingCity,
		ShippingState:      req.ShippingState,
		ShippingPostalCode: req.ShippingPostalCode,
		ShippingCountry:    req.ShippingCountry,
		Notes:              req.Notes,
	}

	err = s.store.InTx(ctx, func(tx *store.Tx) error {
		sel, msg, err := reserve(ctx, tx, req.DesignID, req.ColorSchemeID, req.MaterialID, req.Quantity)
		if err != nil {
			return err
		}
		if msg != "" {
			return &stockFailure{msg: msg}
		}
		q := s.pricing.Quote(sel.design, sel.color, sel.material, req.Quantity)
		order.Subtotal, order.Shipping, order.Tax, order.Total = q.Subtotal, q.Shipping, q.Tax, q.Total

		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return sel.consume(ctx, tx, req.Quantity)
	})

	var failure *stockFailure
	if errors.As(err, &failure) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfStock, failure.msg)
	}
	if err != nil {
		slog.Error("Failed to place order", "user_id", userID, "error", err)
		return nil, err
	}
	slog.Info("Order placed", "order_number", order.OrderNumber, "user_id", userID, "total", order.Total)
	return order, nil
}

// Orders lists the orders placed by userID, newest first.
func (s *Service) Orders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}
