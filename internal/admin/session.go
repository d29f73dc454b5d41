package admin

import (
	"time"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

// Session is the server side view of an admin login. It expires at a
// fixed deadline that only Renew moves.
type Session struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSession(user *models.AdminUser, now time.Time, ttl time.Duration) Session {
	return Session{UserID: user.ID, Username: user.Username, ExpiresAt: now.Add(ttl)}
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining is the time left before the deadline, never negative.
func (s Session) Remaining(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Renew moves the deadline to ttl from now. Expired sessions cannot be
// renewed.
func (s *Session) Renew(now time.Time, ttl time.Duration) bool {
	if s.Expired(now) {
		return false
	}
	s.ExpiresAt = now.Add(ttl)
	return true
}
