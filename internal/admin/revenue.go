package admin

import (
	"math"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

// Revenue summarises order totals for the dashboard. Paid revenue counts
// every order that has been confirmed or moved further along; pending
// orders are reported apart and cancelled orders are only counted.
type Revenue struct {
	Total           float64 `json:"total"`
	Pending         float64 `json:"pending"`
	PaidOrders      int     `json:"paid_orders"`
	PendingOrders   int     `json:"pending_orders"`
	CancelledOrders int     `json:"cancelled_orders"`
}

func isPaid(status string) bool {
	switch status {
	case models.OrderConfirmed, models.OrderProcessing, models.OrderShipped, models.OrderDelivered:
		return true
	}
	return false
}

func ComputeRevenue(orders []models.Order) Revenue {
	var r Revenue
	for _, o := range orders {
		switch {
		case isPaid(o.Status):
			r.Total += o.Total
			r.PaidOrders++
		case o.Status == models.OrderPending:
			r.Pending += o.Total
			r.PendingOrders++
		case o.Status == models.OrderCancelled:
			r.CancelledOrders++
		}
	}
	r.Total = math.Round(r.Total*100) / 100
	r.Pending = math.Round(r.Pending*100) / 100
	return r
}
