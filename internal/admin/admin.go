// Package admin holds the admin console operations: credential checks,
// dashboard statistics, filtered listings, CSV exports and order status
// changes.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/notify"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrNotFound           = errors.New("order not found")
)

const emailTimeout = 30 * time.Second

type Store interface {
	GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string, tracking *string) error
	GetDashboardStats(ctx context.Context) (*store.DashboardStats, error)
}

// OrderNotifier announces order status changes to customers.
type OrderNotifier interface {
	OrderStatusChanged(ctx context.Context, o *models.Order) (notify.OrderEmailResult, error)
}

type Service struct {
	store    Store
	notifier OrderNotifier
}

func NewService(s Store, notifier OrderNotifier) *Service {
	return &Service{store: s, notifier: notifier}
}

// HashPassword returns the bcrypt hash stored for an admin password.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Authenticate checks username and password against the admin users.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	user, err := s.store.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

type Stats struct {
	*store.DashboardStats
	Revenue Revenue `json:"revenue"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	dash, err := s.store.GetDashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &Stats{DashboardStats: dash, Revenue: ComputeRevenue(orders)}, nil
}

func (s *Service) Profiles(ctx context.Context, q Query) (Page[models.Profile], error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return Page[models.Profile]{}, err
	}
	return FilterProfiles(profiles, q), nil
}

func (s *Service) Orders(ctx context.Context, q Query) (Page[models.Order], error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return Page[models.Order]{}, err
	}
	return FilterOrders(orders, q), nil
}

// ExportProfiles writes every profile matching q's filters as CSV,
// ignoring pagination.
func (s *Service) ExportProfiles(ctx context.Context, w io.Writer, q Query) error {
	q.Page, q.PageSize = 1, maxInt
	page, err := s.Profiles(ctx, q)
	if err != nil {
		return err
	}
	return ExportProfilesCSV(w, page.Items)
}

// ExportOrders writes every order matching q's filters as CSV, ignoring
// pagination.
func (s *Service) ExportOrders(ctx context.Context, w io.Writer, q Query) error {
	q.Page, q.PageSize = 1, maxInt
	page, err := s.Orders(ctx, q)
	if err != nil {
		return err
	}
	return ExportOrdersCSV(w, page.Items)
}

const maxInt = int(^uint(0) >> 1)

// UpdateOrderStatus sets any of the order statuses, with an optional
// tracking number, then emails the customer in the background. Email
// failures are logged only.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string, tracking *string) (*models.Order, error) {
	if !models.IsValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if tracking != nil {
		t := strings.TrimSpace(*tracking)
		tracking = &t
	}
	if err := s.store.UpdateOrderStatus(ctx, id, status, tracking); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.Info("Order status updated", "order_number", order.OrderNumber, "status", status)

	if s.notifier != nil {
		go s.announce(context.WithoutCancel(ctx), order)
	}
	return order, nil
}

func (s *Service) announce(ctx context.Context, order *models.Order) {
	ctx, cancel := context.WithTimeout(ctx, emailTimeout)
	defer cancel()
	res, err := s.notifier.OrderStatusChanged(ctx, order)
	if err != nil {
		slog.Warn("Failed to send order status email", "order_number", order.OrderNumber, "error", err)
		return
	}
	if res.Skipped {
		slog.Info("Order status email skipped", "order_number", order.OrderNumber, "status", order.Status)
	}
}
