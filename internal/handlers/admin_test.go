package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmondazadze/scantotap-sub001/internal/admin"
	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
	"github.com/richmondazadze/scantotap-sub001/internal/testutil"
)

func (ts *testServer) adminLogin(t *testing.T) []*http.Cookie {
	t.Helper()
	hash, err := admin.HashPassword("correct-horse")
	require.NoError(t, err)
	require.NoError(t, ts.store.CreateAdmin(context.Background(), "juliette", hash))

	rec := ts.do(http.MethodPost, "/api/admin/login", loginRequest{Username: "juliette", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

type catalogueItems struct {
	design, color *models.InventoryItem
}

func (ts *testServer) seedCatalogue(t *testing.T, colorStock int) catalogueItems {
	t.Helper()
	return catalogueItems{
		design: testutil.CreateItem(t, ts.store, models.KindCardType, models.InventoryItem{
			Name: "Classic", IsAvailable: true, PriceModifier: 5,
		}),
		color: testutil.CreateItem(t, ts.store, models.KindColorScheme, models.InventoryItem{
			Name: "Gold", IsAvailable: true, HasStockLimit: true, StockQuantity: testutil.IntPtr(colorStock), PriceModifier: 2.5,
		}),
	}
}

func orderBody(items catalogueItems, qty int) map[string]any {
	return map[string]any{
		"design_id":            items.design.ID,
		"color_scheme_id":      items.color.ID,
		"quantity":             qty,
		"customer_name":        "Jane Doe",
		"customer_email":       "jane@example.com",
		"shipping_address":     "1 Main St",
		"shipping_city":        "Accra",
		"shipping_postal_code": "00233",
		"shipping_country":     "GH",
	}
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t, false)
	ts.adminLogin(t)

	rec := ts.do(http.MethodPost, "/api/admin/login", loginRequest{Username: "juliette", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, admin.ErrInvalidCredentials.Error(), decode[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodPost, "/api/admin/login", loginRequest{Username: "nobody", Password: "correct-horse"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userCookies := ts.signIn(t, "jane@example.com")
	rec = ts.do(http.MethodGet, "/api/admin/stats", nil, userCookies...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "user sessions are not admin sessions")
}

func TestAdminSessionExpiry(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.adminLogin(t)

	rec := ts.do(http.MethodGet, "/api/admin/session", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3600, decode[sessionResponse](t, rec).RemainingSeconds)

	ts.now = ts.now.Add(50 * time.Minute)
	rec = ts.do(http.MethodGet, "/api/admin/session", nil, cookies...)
	assert.Equal(t, 600, decode[sessionResponse](t, rec).RemainingSeconds)

	rec = ts.do(http.MethodPost, "/api/admin/session/renew", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3600, decode[sessionResponse](t, rec).RemainingSeconds)
	cookies = rec.Result().Cookies()

	ts.now = ts.now.Add(59 * time.Minute)
	rec = ts.do(http.MethodGet, "/api/admin/stats", nil, cookies...)
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.now = ts.now.Add(time.Minute)
	rec = ts.do(http.MethodGet, "/api/admin/stats", nil, cookies...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Admin session expired", decode[errorResponse](t, rec).Error)

	rec = ts.do(http.MethodPost, "/api/admin/session/renew", nil, cookies...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expired sessions cannot be renewed")
}

func TestAdminStatsAndListings(t *testing.T) {
	ts := newTestServer(t, false)
	adminCookies := ts.adminLogin(t)
	userCookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)
	items := ts.seedCatalogue(t, 10)

	for i := 0; i < 3; i++ {
		rec := ts.do(http.MethodPost, "/api/orders", orderBody(items, 1), userCookies...)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := ts.do(http.MethodGet, "/api/admin/stats", nil, adminCookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, stats["total_profiles"])
	assert.EqualValues(t, 3, stats["total_orders"])

	rec = ts.do(http.MethodGet, "/api/admin/orders?pageSize=2&page=2", nil, adminCookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[admin.Page[models.Order]](t, rec)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	rec = ts.do(http.MethodGet, "/api/admin/profiles?q=janedoe", nil, adminCookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[admin.Page[models.Profile]](t, rec).Items, 1)

	rec = ts.do(http.MethodGet, "/api/admin/orders.csv?status=pending", nil, adminCookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="orders-`)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4, "header plus every matching order")
	assert.True(t, strings.HasPrefix(lines[0], "order_number,status"))

	rec = ts.do(http.MethodGet, "/api/admin/profiles.csv", nil, adminCookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "janedoe")
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	ts := newTestServer(t, false)
	adminCookies := ts.adminLogin(t)
	userCookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)
	items := ts.seedCatalogue(t, 10)

	rec := ts.do(http.MethodPost, "/api/orders", orderBody(items, 1), userCookies...)
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[models.Order](t, rec)
	before := len(ts.mailer.Sent())

	path := fmt.Sprintf("/api/admin/orders/%d/status", order.ID)
	rec = ts.do(http.MethodPost, path, map[string]string{"status": "shipped", "tracking_number": " TRK-1 "}, adminCookies...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Order](t, rec)
	assert.Equal(t, models.OrderShipped, updated.Status)
	assert.Equal(t, "TRK-1", updated.TrackingNumber)

	assert.Eventually(t, func() bool { return len(ts.mailer.Sent()) == before+1 }, time.Second, 10*time.Millisecond)

	rec = ts.do(http.MethodPost, path, map[string]string{"status": "lost"}, adminCookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/orders/9999/status", map[string]string{"status": "shipped"}, adminCookies...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/orders/abc/status", map[string]string{"status": "shipped"}, adminCookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminInventory(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.adminLogin(t)

	rec := ts.do(http.MethodPost, "/api/admin/inventory/card_types",
		map[string]any{"name": "Classic", "is_available": true, "price_modifier": 5}, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[models.InventoryItem](t, rec)
	assert.Equal(t, "Classic", item.Name)

	rec = ts.do(http.MethodPost, "/api/admin/inventory/stickers", map[string]any{"name": "x"}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/inventory/card_types", map[string]any{"name": " "}, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	base := fmt.Sprintf("/api/admin/inventory/card_types/%d", item.ID)
	rec = ts.do(http.MethodPut, base, map[string]any{"name": "Classic Matte", "is_available": true, "price_modifier": 7.5}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7.5, decode[models.InventoryItem](t, rec).PriceModifier)

	rec = ts.do(http.MethodPost, base+"/toggle", map[string]string{"field": "is_available"}, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.InventoryItem](t, rec).IsAvailable)

	rec = ts.do(http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]models.InventoryItem](t, rec)["card_types"], "unavailable items are hidden")

	rec = ts.do(http.MethodGet, "/api/admin/inventory/card_types", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.InventoryItem](t, rec), 1)

	rec = ts.do(http.MethodDelete, base, nil, cookies...)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodPut, base, map[string]any{"name": "Gone"}, cookies...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceOrder(t *testing.T) {
	ts := newTestServer(t, false)
	cookies := ts.signIn(t, "jane@example.com")
	ts.onboard(t, "jane@example.com", "janedoe", nil)
	items := ts.seedCatalogue(t, 3)

	rec := ts.do(http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	catalogue := decode[map[string][]models.InventoryItem](t, rec)
	assert.Len(t, catalogue["card_types"], 1)
	assert.Len(t, catalogue["color_schemes"], 1)

	rec = ts.do(http.MethodPost, "/api/orders", orderBody(items, 2), cookies...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.Regexp(t, `^S2T-[A-HJ-NP-Z2-9]{8}$`, order.OrderNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, 74.98, order.Subtotal)
	assert.Zero(t, order.Shipping)
	assert.Equal(t, 80.98, order.Total)

	rec = ts.do(http.MethodPost, "/api/orders", orderBody(items, 2), cookies...)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "Only 1 left in Gold")

	body := orderBody(items, 0)
	rec = ts.do(http.MethodPost, "/api/orders", body, cookies...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/orders", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Order](t, rec), 1)
}

func TestContactEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodGet, "/api/contact", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	req := newRequest(http.MethodPost, "/api/contact", map[string]string{
		"name": "Jane", "email": "jane@example.com", "subject": "Hello", "message": "I would like ten cards please.",
	})
	req.RemoteAddr = "198.51.100.7:4000"
	rec = ts.serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[contactResponse](t, rec)
	assert.True(t, body.Success)
	assert.Regexp(t, `^CT-[0-9A-Z]+-[0-9A-Z]{5}$`, body.ReferenceID)
	assert.Len(t, ts.mailer.Sent(), 2, "acknowledgement and admin alert")

	req = newRequest(http.MethodPost, "/api/contact", map[string]string{
		"name": "J", "email": "jane@example.com", "subject": "Hello", "message": "short",
	})
	req.RemoteAddr = "198.51.100.8:4000"
	rec = ts.serve(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode[errorResponse](t, rec).Success)
}

func TestOrderEmailsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	ts.signIn(t, "jane@example.com")
	p := ts.onboard(t, "jane@example.com", "janedoe", nil)

	rec := ts.do(http.MethodPut, "/api/order-emails", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	send := func(emailType, userID string) map[string]any {
		return map[string]any{
			"type":      emailType,
			"userId":    userID,
			"orderData": map[string]any{"orderNumber": "S2T-ABCDEFGH", "customerName": "Jane", "total": 38.38},
		}
	}

	rec = ts.do(http.MethodPost, "/api/order-emails", send("order-shipped", p.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[orderEmailResponse](t, rec)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ID)

	rec = ts.do(http.MethodPost, "/api/order-emails", send("order-lost", p.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/order-emails", send("order-shipped", "missing-user"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, ts.store.UpdateVisibility(context.Background(), p.ID, store.Visibility{NotifyOrderUpdates: false}))
	rec = ts.do(http.MethodPost, "/api/order-emails", send("order-shipped", p.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[orderEmailResponse](t, rec).Skipped)
}
