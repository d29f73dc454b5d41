package admin

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

var profileColumns = []string{
	"id", "email", "username", "name", "title", "plan_type", "billing_cycle",
	"subscription_status", "onboarding_complete", "links", "created_at",
}

var orderColumns = []string{
	"order_number", "status", "customer_name", "customer_email", "quantity",
	"subtotal", "shipping", "tax", "total", "tracking_number", "shipping_country", "created_at",
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// cell neutralises user text that a spreadsheet would read as a formula.
func cell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

// ExportProfilesCSV writes one row per profile with a header row.
func ExportProfilesCSV(w io.Writer, profiles []models.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(profileColumns); err != nil {
		return err
	}
	for _, p := range profiles {
		row := []string{
			p.ID,
			cell(p.Email),
			p.Slug,
			cell(p.Name),
			cell(p.Title),
			p.PlanType,
			p.BillingCycle,
			p.SubscriptionStatus,
			strconv.FormatBool(p.OnboardingComplete),
			strconv.Itoa(len(p.Links)),
			stamp(p.CreatedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportOrdersCSV writes one row per order with a header row.
func ExportOrdersCSV(w io.Writer, orders []models.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderColumns); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			o.OrderNumber,
			o.Status,
			cell(o.CustomerName),
			cell(o.CustomerEmail),
			strconv.Itoa(o.Quantity),
			money(o.Subtotal),
			money(o.Shipping),
			money(o.Tax),
			money(o.Total),
			cell(o.TrackingNumber),
			cell(o.ShippingCountry),
			stamp(o.CreatedAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
