package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
	"github.com/richmondazadze/scantotap-sub001/internal/store"
	"github.com/richmondazadze/scantotap-sub001/internal/testutil"
)

type mockMailer struct {
	SendFunc func(ctx context.Context, msg Message) (string, error)
	sent     []Message
}

func (m *mockMailer) Send(ctx context.Context, msg Message) (string, error) {
	m.sent = append(m.sent, msg)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	return "email-1", nil
}

func newNotifier(t *testing.T, s *store.Store) (*Notifier, *mockMailer) {
	t.Helper()
	mailer := &mockMailer{}
	n, err := New(Config{
		From:         "Scan2Tap <hello@scan2tap.test>",
		AdminAddress: "admin@scan2tap.test",
		ReplyTo:      "support@scan2tap.test",
		BaseURL:      "https://scan2tap.test/",
	}, mailer, s)
	require.NoError(t, err)
	n.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return n, mailer
}

func TestTemplatesLoad(t *testing.T) {
	tc := NewTemplateCache()
	require.NoError(t, tc.Load())
	for _, name := range []string{"contact_ack", "contact_admin", "onboarding_complete", "magic_link",
		"order-confirmation", "order-processing", "order-shipped", "order-delivered", "order-cancelled"} {
		assert.NotNil(t, tc.Get(name), name)
	}
	assert.Nil(t, tc.Get("layout"))

	_, err := tc.Render("missing", nil)
	assert.Error(t, err)
}

func TestContactRejectsShortMessage(t *testing.T) {
	n, mailer := newNotifier(t, testutil.NewStore(t))

	_, err := n.Contact(context.Background(), ContactRequest{
		Name: "Jane", Email: "jane@example.com", Subject: "Hello", Message: "Hi!!!",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, mailer.sent)
}

func TestContactValidation(t *testing.T) {
	valid := ContactRequest{Name: "Jane", Email: "jane@example.com", Subject: "Hello", Message: "I would like ten cards."}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*ContactRequest){
		"missing name":   func(c *ContactRequest) { c.Name = "  " },
		"short name":     func(c *ContactRequest) { c.Name = "J" },
		"bad email":      func(c *ContactRequest) { c.Email = "jane@" },
		"short subject":  func(c *ContactRequest) { c.Subject = "H" },
		"long subject":   func(c *ContactRequest) { c.Subject = strings.Repeat("s", 201) },
		"long message":   func(c *ContactRequest) { c.Message = strings.Repeat("m", 2001) },
		"padded message": func(c *ContactRequest) { c.Message = "   short   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid
			mutate(&req)
			assert.ErrorIs(t, req.Validate(), ErrInvalidInput)
		})
	}
}

func TestContactSendsTwoEmails(t *testing.T) {
	n, mailer := newNotifier(t, testutil.NewStore(t))

	ref, err := n.Contact(context.Background(), ContactRequest{
		Name: " Jane ", Email: "Jane@Example.com", Subject: "Bulk order", Message: "Do you ship to Ghana?",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^CT-[0-9A-Z]+-[0-9A-Z]{5}$`, ref)

	require.Len(t, mailer.sent, 2)
	admin, ack := mailer.sent[0], mailer.sent[1]
	assert.Equal(t, []string{"admin@scan2tap.test"}, admin.To)
	assert.Equal(t, "Jane@Example.com", admin.ReplyTo)
	assert.Contains(t, admin.Subject, ref)
	assert.Contains(t, admin.HTML, "Do you ship to Ghana?")

	assert.Equal(t, []string{"Jane@Example.com"}, ack.To)
	assert.Equal(t, "support@scan2tap.test", ack.ReplyTo)
	assert.Contains(t, ack.HTML, ref)
	assert.Contains(t, ack.HTML, "Thanks for reaching out, Jane!")
}

func TestContactMailerFailure(t *testing.T) {
	n, mailer := newNotifier(t, testutil.NewStore(t))
	mailer.SendFunc = func(context.Context, Message) (string, error) { return "", errors.New("provider down") }

	_, err := n.Contact(context.Background(), ContactRequest{
		Name: "Jane", Email: "jane@example.com", Subject: "Hello", Message: "Long enough message",
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestNewReference(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	ref := NewReference(now)
	assert.True(t, strings.HasPrefix(ref, "CT-LOYW3V28-"), ref)
	assert.Len(t, ref, len("CT-LOYW3V28-")+5)
	assert.NotEqual(t, ref, NewReference(now))
}

func TestOrderEmail(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	n, mailer := newNotifier(t, s)
	p := testutil.CreateProfile(t, s, "jane@example.com")

	res, err := n.OrderEmail(ctx, OrderEmailRequest{
		Type:   OrderShipped,
		UserID: p.ID,
		OrderData: OrderData{
			OrderNumber: "S2T-ABCD2345", CustomerName: "Jane", Quantity: 2, Total: 64.78, TrackingNumber: "1Z999",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, OrderEmailResult{ID: "email-1"}, res)
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.To)
	assert.Equal(t, "Order S2T-ABCD2345 has shipped", msg.Subject)
	assert.Contains(t, msg.HTML, "1Z999")
	assert.Contains(t, msg.HTML, "$64.78")
	assert.Contains(t, msg.HTML, "https://scan2tap.test/dashboard/orders")
}

func TestOrderEmailErrors(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	n, mailer := newNotifier(t, s)
	p := testutil.CreateProfile(t, s, "jane@example.com")
	data := OrderData{OrderNumber: "S2T-ABCD2345"}

	_, err := n.OrderEmail(ctx, OrderEmailRequest{Type: "order-lost", UserID: p.ID, OrderData: data})
	assert.ErrorIs(t, err, ErrUnknownEmailType)

	_, err = n.OrderEmail(ctx, OrderEmailRequest{Type: OrderConfirmation, UserID: "ghost", OrderData: data})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = n.OrderEmail(ctx, OrderEmailRequest{Type: OrderConfirmation, UserID: p.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, mailer.sent)
}

func TestOrderEmailSkippedWhenOptedOut(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	n, mailer := newNotifier(t, s)
	p := testutil.CreateProfile(t, s, "jane@example.com")
	require.NoError(t, s.UpdateVisibility(ctx, p.ID, store.Visibility{NotifyOrderUpdates: false}))

	res, err := n.OrderEmail(ctx, OrderEmailRequest{Type: OrderDelivered, UserID: p.ID, OrderData: OrderData{OrderNumber: "S2T-X"}})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, mailer.sent)
}

func TestOrderStatusChanged(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	n, mailer := newNotifier(t, s)
	p := testutil.CreateProfile(t, s, "jane@example.com")

	order := &models.Order{
		OrderNumber: "S2T-QWERTY23", UserID: p.ID, Status: models.OrderPending,
		ShippingAddress: "1 Main St", ShippingCity: "Accra", ShippingCountry: "GH",
	}
	res, err := n.OrderStatusChanged(ctx, order)
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	order.Status = models.OrderCancelled
	_, err = n.OrderStatusChanged(ctx, order)
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Order S2T-QWERTY23 was cancelled", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTML, "1 Main St, Accra, GH")
}

func TestEmailTypeForStatus(t *testing.T) {
	for status, want := range map[string]OrderEmailType{
		models.OrderConfirmed:  OrderConfirmation,
		models.OrderProcessing: OrderProcessing,
		models.OrderShipped:    OrderShipped,
		models.OrderDelivered:  OrderDelivered,
		models.OrderCancelled:  OrderCancelled,
	} {
		got, ok := EmailTypeForStatus(status)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := EmailTypeForStatus(models.OrderPending)
	assert.False(t, ok)
}

func TestOnboardingComplete(t *testing.T) {
	n, mailer := newNotifier(t, testutil.NewStore(t))
	p := &models.Profile{ID: "u1", Email: "jane@example.com", Name: "Jane Doe", Slug: "janedoe", PlanType: models.PlanPro}

	require.NoError(t, n.OnboardingComplete(context.Background(), p))
	require.Len(t, mailer.sent, 1)
	html := mailer.sent[0].HTML
	assert.Contains(t, html, "https://scan2tap.test/janedoe")
	assert.Contains(t, html, "<strong>Pro</strong> plan with unlimited links")

	p.Email = ""
	assert.ErrorIs(t, n.OnboardingComplete(context.Background(), p), ErrInvalidInput)
}

func TestResendMailer(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	m, err := NewResendMailer("re_test", srv.URL)
	require.NoError(t, err)
	id, err := m.Send(context.Background(), Message{
		From: "a@scan2tap.test", To: []string{"b@example.com"}, Subject: "Hi", HTML: "<p>Hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)
	assert.Equal(t, "Hi", got["subject"])
	assert.Equal(t, "<p>Hi</p>", got["html"])
}

func TestLogMailer(t *testing.T) {
	m := &LogMailer{}
	id, err := m.Send(context.Background(), Message{To: []string{"b@example.com"}, Subject: "Hi"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "log-"))
	assert.Len(t, m.Sent(), 1)
}

func TestLogMailerKeepsOnlyRecentMessages(t *testing.T) {
	ctx := context.Background()
	m := &LogMailer{Limit: 3}
	for i := 1; i <= 5; i++ {
		_, err := m.Send(ctx, Message{To: []string{"b@example.com"}, Subject: "Message " + strconv.Itoa(i)})
		require.NoError(t, err)
	}
	sent := m.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "Message 3", sent[0].Subject)
	assert.Equal(t, "Message 5", sent[2].Subject)

	defaulted := &LogMailer{}
	for i := 0; i < DefaultLogHistory+10; i++ {
		_, err := defaulted.Send(ctx, Message{Subject: "x"})
		require.NoError(t, err)
	}
	assert.Len(t, defaulted.Sent(), DefaultLogHistory)
}

func TestMagicLink(t *testing.T) {
	n, mailer := newNotifier(t, testutil.NewStore(t))

	require.NoError(t, n.MagicLink(context.Background(), "jane@example.com", "abc123", 15*time.Minute))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"jane@example.com"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTML, "https://scan2tap.test/api/auth/callback?token=abc123")
	assert.Contains(t, mailer.sent[0].HTML, "15m0s")

	assert.ErrorIs(t, n.MagicLink(context.Background(), "nope", "abc123", time.Minute), ErrInvalidInput)
}
