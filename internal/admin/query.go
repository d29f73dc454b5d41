package admin

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Query is a list request from the admin console: a free text search, an
// optional plan or status filter, a sort and a page.
type Query struct {
	Search   string
	Plan     string
	Status   string
	Sort     string
	Desc     bool
	Page     int
	PageSize int
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

// ParseQuery reads q, plan, status, sort, order, page and pageSize from
// the URL query, falling back to the first page sorted newest first.
func ParseQuery(v url.Values) Query {
	q := Query{
		Search:   strings.TrimSpace(v.Get("q")),
		Plan:     strings.TrimSpace(v.Get("plan")),
		Status:   strings.TrimSpace(v.Get("status")),
		Sort:     strings.TrimSpace(v.Get("sort")),
		Desc:     !strings.EqualFold(v.Get("order"), "asc"),
		Page:     parseInt(v.Get("page"), 1),
		PageSize: parseInt(v.Get("pageSize"), DefaultPageSize),
	}
	if q.Sort == "" {
		q.Sort = "created_at"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func paginate[T any](items []T, page, size int) Page[T] {
	total := len(items)
	pages := total / size
	if total%size != 0 || pages == 0 {
		pages++
	}
	start := (page - 1) * size
	if start > total || start < 0 {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{
		Items:      out,
		Pagination: Pagination{Page: page, PageSize: size, TotalItems: total, TotalPages: pages},
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// FilterProfiles applies q to profiles. The search matches name, email and
// username.
func FilterProfiles(profiles []models.Profile, q Query) Page[models.Profile] {
	needle := strings.ToLower(q.Search)
	matched := make([]models.Profile, 0, len(profiles))
	for _, p := range profiles {
		if q.Plan != "" && p.PlanType != q.Plan {
			continue
		}
		if needle != "" && !contains(p.Name, needle) && !contains(p.Email, needle) && !contains(p.Slug, needle) {
			continue
		}
		matched = append(matched, p)
	}

	less := func(a, b models.Profile) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch q.Sort {
	case "name":
		less = func(a, b models.Profile) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "email":
		less = func(a, b models.Profile) bool { return a.Email < b.Email }
	case "slug", "username":
		less = func(a, b models.Profile) bool { return a.Slug < b.Slug }
	case "plan", "plan_type":
		less = func(a, b models.Profile) bool { return a.PlanType < b.PlanType }
	}
	sortBy(matched, less, q.Desc)
	return paginate(matched, q.Page, q.PageSize)
}

// FilterOrders applies q to orders. The search matches the order number,
// customer name and customer email.
func FilterOrders(orders []models.Order, q Query) Page[models.Order] {
	needle := strings.ToLower(q.Search)
	matched := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		if needle != "" && !contains(o.OrderNumber, needle) && !contains(o.CustomerName, needle) && !contains(o.CustomerEmail, needle) {
			continue
		}
		matched = append(matched, o)
	}

	less := func(a, b models.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch q.Sort {
	case "total":
		less = func(a, b models.Order) bool { return a.Total < b.Total }
	case "status":
		less = func(a, b models.Order) bool { return a.Status < b.Status }
	case "customer", "customer_name":
		less = func(a, b models.Order) bool { return strings.ToLower(a.CustomerName) < strings.ToLower(b.CustomerName) }
	case "order_number":
		less = func(a, b models.Order) bool { return a.OrderNumber < b.OrderNumber }
	}
	sortBy(matched, less, q.Desc)
	return paginate(matched, q.Page, q.PageSize)
}

func sortBy[T any](items []T, less func(a, b T) bool, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
