package notify

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ContactRequest is the body of the public contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.ToLower(strings.TrimSpace(email)))
}

type bound struct {
	field    string
	value    string
	min, max int
}

// Validate trims the request in place and checks presence, the email
// format and the length bounds of each field.
func (c *ContactRequest) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Message = strings.TrimSpace(c.Message)

	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if !IsValidEmail(c.Email) {
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	}
	for _, b := range []bound{
		{"name", c.Name, 2, 100},
		{"subject", c.Subject, 2, 200},
		{"message", c.Message, 10, 2000},
	} {
		if n := utf8.RuneCountInString(b.value); n < b.min || n > b.max {
			return fmt.Errorf("%w: %s must be between %d and %d characters", ErrInvalidInput, b.field, b.min, b.max)
		}
	}
	return nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewReference builds a contact reference id: CT-<base36 unix ms>-<5 random
// base36 chars>, uppercased.
func NewReference(now time.Time) string {
	suffix := make([]byte, 5)
	limit := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			suffix[i] = base36[now.UnixNano()%int64(len(base36))]
			continue
		}
		suffix[i] = base36[n.Int64()]
	}
	return strings.ToUpper("CT-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + string(suffix))
}

type contactView struct {
	ContactRequest
	Reference  string
	ReceivedAt time.Time
}

// Contact validates req, then sends an alert to the admin address and an
// acknowledgement to the sender. It returns the reference id of the
// request.
func (n *Notifier) Contact(ctx context.Context, req ContactRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	now := n.now()
	view := contactView{ContactRequest: req, Reference: NewReference(now), ReceivedAt: now.UTC()}

	adminSubject := fmt.Sprintf("[Contact %s] %s", view.Reference, req.Subject)
	if _, err := n.send(ctx, "contact_admin", n.cfg.AdminAddress, req.Email, adminSubject, view); err != nil {
		return "", err
	}
	ackSubject := fmt.Sprintf("We received your message (%s)", view.Reference)
	if _, err := n.send(ctx, "contact_ack", req.Email, "", ackSubject, view); err != nil {
		return "", err
	}
	return view.Reference, nil
}
