package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
	SubscriptionTrial     = "trial"
)

const (
	LayoutList = "list"
	LayoutGrid = "grid"
)

const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// Link is one entry of a profile's link list. Slice order is display order.
type Link struct {
	Label     string `json:"label"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Links is stored as a JSON array in a single TEXT column.
type Links []Link

func (l Links) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Links) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = Links{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("links: unsupported column type")
	}
	if len(raw) == 0 {
		*l = Links{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

type Profile struct {
	ID                       string    `db:"id" json:"id"`
	Email                    string    `db:"email" json:"email"`
	Slug                     string    `db:"slug" json:"slug"`
	Name                     string    `db:"name" json:"name"`
	Title                    string    `db:"title" json:"title"`
	Bio                      string    `db:"bio" json:"bio"`
	AvatarURL                string    `db:"avatar_url" json:"avatar_url"`
	Phone                    string    `db:"phone" json:"phone"`
	Links                    Links     `db:"links" json:"links"`
	PlanType                 string    `db:"plan_type" json:"plan_type"`
	BillingCycle             string    `db:"billing_cycle" json:"billing_cycle"`
	PaymentReference         string    `db:"payment_reference" json:"-"`
	SubscriptionStatus       string    `db:"subscription_status" json:"subscription_status"`
	ShowEmail                bool      `db:"show_email" json:"show_email"`
	ShowPhone                bool      `db:"show_phone" json:"show_phone"`
	UseUsernameInsteadOfName bool      `db:"use_username_instead_of_name" json:"use_username_instead_of_name"`
	LayoutStyle              string    `db:"layout_style" json:"layout_style"`
	Theme                    string    `db:"theme" json:"theme"`
	BackgroundURL            string    `db:"background_url" json:"background_url"`
	NotifyOrderUpdates       bool      `db:"notify_order_updates" json:"notify_order_updates"`
	OnboardingComplete       bool      `db:"onboarding_complete" json:"onboarding_complete"`
	CreatedAt                time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName is the name shown on the public card.
func (p *Profile) DisplayName() string {
	if p.UseUsernameInsteadOfName && p.Slug != "" {
		return p.Slug
	}
	return p.Name
}

type UsernameHistory struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	OrderPending    = "pending"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists every status an admin may set. There is no
// transition graph: any status can follow any other.
var OrderStatuses = []string{
	OrderPending,
	OrderConfirmed,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
}

func IsValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID                 int64     `db:"id" json:"id"`
	OrderNumber        string    `db:"order_number" json:"order_number"`
	UserID             string    `db:"user_id" json:"user_id"`
	CustomerName       string    `db:"customer_name" json:"customer_name"`
	CustomerEmail      string    `db:"customer_email" json:"customer_email"`
	CustomerPhone      string    `db:"customer_phone" json:"customer_phone"`
	DesignID           int64     `db:"design_id" json:"design_id"`
	ColorSchemeID      int64     `db:"color_scheme_id" json:"color_scheme_id"`
	MaterialID         *int64    `db:"material_id" json:"material_id,omitempty"`
	Quantity           int       `db:"quantity" json:"quantity"`
	Subtotal           float64   `db:"subtotal" json:"subtotal"`
	Shipping           float64   `db:"shipping" json:"shipping"`
	Tax                float64   `db:"tax" json:"tax"`
	Total              float64   `db:"total" json:"total"`
	Status             string    `db:"status" json:"status"`
	ShippingAddress    string    `db:"shipping_address" json:"shipping_address"`
	ShippingCity       string    `db:"shipping_city" json:"shipping_city"`
	ShippingState      string    `db:"shipping_state" json:"shipping_state"`
	ShippingPostalCode string    `db:"shipping_postal_code" json:"shipping_postal_code"`
	ShippingCountry    string    `db:"shipping_country" json:"shipping_country"`
	TrackingNumber     string    `db:"tracking_number" json:"tracking_number"`
	Notes              string    `db:"notes" json:"notes"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// InventoryKind names one of the lookup tables used by the card order flow.
type InventoryKind string

const (
	KindCardType    InventoryKind = "card_types"
	KindColorScheme InventoryKind = "color_schemes"
	KindMaterial    InventoryKind = "materials"
)

func (k InventoryKind) Valid() bool {
	switch k {
	case KindCardType, KindColorScheme, KindMaterial:
		return true
	}
	return false
}

type InventoryItem struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	ImageURL      string    `db:"image_url" json:"image_url"`
	IsAvailable   bool      `db:"is_available" json:"is_available"`
	HasStockLimit bool      `db:"has_stock_limit" json:"has_stock_limit"`
	StockQuantity *int      `db:"stock_quantity" json:"stock_quantity"` // meaningful only with HasStockLimit
	PriceModifier float64   `db:"price_modifier" json:"price_modifier"`
	SortOrder     int       `db:"sort_order" json:"sort_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type AdminUser struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"` // bcrypt hash
}

type ProfileVisit struct {
	ID        int64     `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	VisitedAt time.Time `db:"visited_at" json:"visited_at"`
	Referrer  string    `db:"referrer" json:"referrer"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
}

type LinkClick struct {
	ID        int64     `db:"id" json:"id"`
	ProfileID string    `db:"profile_id" json:"profile_id"`
	LinkIndex int       `db:"link_index" json:"link_index"`
	LinkLabel string    `db:"link_label" json:"link_label"`
	LinkURL   string    `db:"link_url" json:"link_url"`
	ClickedAt time.Time `db:"clicked_at" json:"clicked_at"`
}

// ProfileAnalytics is the rolled-up counter row kept per profile.
type ProfileAnalytics struct {
	ProfileID   string     `db:"profile_id" json:"profile_id"`
	TotalVisits int        `db:"total_visits" json:"total_visits"`
	TotalClicks int        `db:"total_clicks" json:"total_clicks"`
	LastVisitAt *time.Time `db:"last_visit_at" json:"last_visit_at"`
}
