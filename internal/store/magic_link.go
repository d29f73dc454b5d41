package store

import (
	"context"
	"time"
)

// CreateLoginToken stores a magic-link token for email, valid for ttl.
func (s *Store) CreateLoginToken(ctx context.Context, email, token string, ttl time.Duration) error {
	query := `INSERT INTO login_tokens (token, email, expires_at) VALUES (?, ?, ?)`
	_, err := s.DB.ExecContext(ctx, query, token, email, time.Now().UTC().Add(ttl))
	return err
}

// ConsumeLoginToken returns the email bound to an unexpired token and
// deletes it, so each link signs in once.
func (s *Store) ConsumeLoginToken(ctx context.Context, token string) (string, error) {
	var email string
	var expires time.Time
	err := s.DB.QueryRowContext(ctx, `SELECT email, expires_at FROM login_tokens WHERE token = ?`, token).Scan(&email, &expires)
	if err != nil {
		return "", notFound(err)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM login_tokens WHERE token = ?`, token); err != nil {
		return "", err
	}
	if time.Now().After(expires) {
		return "", ErrNotFound
	}
	return email, nil
}

// PurgeExpiredLoginTokens removes expired tokens and reports how many.
func (s *Store) PurgeExpiredLoginTokens(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM login_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
