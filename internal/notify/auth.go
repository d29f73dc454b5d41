package notify

import (
	"context"
	"fmt"
	"time"
)

type magicLinkView struct {
	Link      string
	ExpiresIn string
}

// MagicLink emails a one time sign-in link for token to email.
func (n *Notifier) MagicLink(ctx context.Context, email, token string, ttl time.Duration) error {
	if !IsValidEmail(email) {
		return fmt.Errorf("%w: please enter a valid email address", ErrInvalidInput)
	}
	view := magicLinkView{
		Link:      n.cfg.BaseURL + "/api/auth/callback?token=" + token,
		ExpiresIn: ttl.Round(time.Minute).String(),
	}
	_, err := n.send(ctx, "magic_link", email, "", "Your Scan2Tap sign-in link", view)
	return err
}
