package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

type OrderEmailType string

const (
	OrderConfirmation OrderEmailType = "order-confirmation"
	OrderProcessing   OrderEmailType = "order-processing"
	OrderShipped      OrderEmailType = "order-shipped"
	OrderDelivered    OrderEmailType = "order-delivered"
	OrderCancelled    OrderEmailType = "order-cancelled"
)

var orderSubjects = map[OrderEmailType]string{
	OrderConfirmation: "Order %s confirmed",
	OrderProcessing:   "Order %s is being made",
	OrderShipped:      "Order %s has shipped",
	OrderDelivered:    "Order %s was delivered",
	OrderCancelled:    "Order %s was cancelled",
}

func (t OrderEmailType) Valid() bool {
	_, ok := orderSubjects[t]
	return ok
}

// EmailTypeForStatus maps an order status to the email announcing it.
// Pending orders have no email.
func EmailTypeForStatus(status string) (OrderEmailType, bool) {
	switch status {
	case models.OrderConfirmed:
		return OrderConfirmation, true
	case models.OrderProcessing:
		return OrderProcessing, true
	case models.OrderShipped:
		return OrderShipped, true
	case models.OrderDelivered:
		return OrderDelivered, true
	case models.OrderCancelled:
		return OrderCancelled, true
	}
	return "", false
}

// OrderData is the order summary carried by an order email.
type OrderData struct {
	OrderNumber        string  `json:"orderNumber"`
	CustomerName       string  `json:"customerName"`
	CustomerEmail      string  `json:"customerEmail"`
	Quantity           int     `json:"quantity"`
	Total              float64 `json:"total"`
	ShippingAddress    string  `json:"shippingAddress"`
	TrackingNumber     string  `json:"trackingNumber"`
	EstimatedDelivery  string  `json:"estimatedDelivery"`
	CancellationReason string  `json:"cancellationReason"`
}

// OrderDataFrom summarises o for an email.
func OrderDataFrom(o *models.Order) OrderData {
	var addr []string
	for _, part := range []string{o.ShippingAddress, o.ShippingCity, o.ShippingState, o.ShippingPostalCode, o.ShippingCountry} {
		if part = strings.TrimSpace(part); part != "" {
			addr = append(addr, part)
		}
	}
	return OrderData{
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		Quantity:        o.Quantity,
		Total:           o.Total,
		ShippingAddress: strings.Join(addr, ", "),
		TrackingNumber:  o.TrackingNumber,
	}
}

// OrderEmailRequest is the body of POST /api/order-emails.
type OrderEmailRequest struct {
	Type      OrderEmailType `json:"type"`
	UserID    string         `json:"userId"`
	OrderData OrderData      `json:"orderData"`
}

type OrderEmailResult struct {
	ID      string `json:"id,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

type orderView struct {
	Name         string
	Order        OrderData
	DashboardURL string
}

// OrderEmail sends the email for req.Type to the owner of req.UserID,
// unless they have opted out of order updates.
func (n *Notifier) OrderEmail(ctx context.Context, req OrderEmailRequest) (OrderEmailResult, error) {
	if !req.Type.Valid() {
		return OrderEmailResult{}, fmt.Errorf("%w: %q", ErrUnknownEmailType, req.Type)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return OrderEmailResult{}, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.OrderData.OrderNumber) == "" {
		return OrderEmailResult{}, fmt.Errorf("%w: orderData.orderNumber is required", ErrInvalidInput)
	}

	p, err := n.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return OrderEmailResult{}, fmt.Errorf("%w: %s", ErrNotFound, req.UserID)
		}
		return OrderEmailResult{}, fmt.Errorf("load profile: %w", err)
	}
	if !p.NotifyOrderUpdates {
		return OrderEmailResult{Skipped: true}, nil
	}

	to := p.Email
	if to == "" {
		to = req.OrderData.CustomerEmail
	}
	if !IsValidEmail(to) {
		return OrderEmailResult{}, fmt.Errorf("%w: no valid recipient for user %s", ErrInvalidInput, req.UserID)
	}
	name := req.OrderData.CustomerName
	if name == "" {
		name = p.DisplayName()
	}

	view := orderView{Name: name, Order: req.OrderData, DashboardURL: n.cfg.BaseURL + "/dashboard/orders"}
	subject := fmt.Sprintf(orderSubjects[req.Type], req.OrderData.OrderNumber)
	id, err := n.send(ctx, string(req.Type), to, "", subject, view)
	if err != nil {
		return OrderEmailResult{}, err
	}
	return OrderEmailResult{ID: id}, nil
}

// OrderStatusChanged announces o's current status to its owner. Statuses
// without an email are skipped.
func (n *Notifier) OrderStatusChanged(ctx context.Context, o *models.Order) (OrderEmailResult, error) {
	t, ok := EmailTypeForStatus(o.Status)
	if !ok {
		return OrderEmailResult{Skipped: true}, nil
	}
	return n.OrderEmail(ctx, OrderEmailRequest{Type: t, UserID: o.UserID, OrderData: OrderDataFrom(o)})
}
