package store

import (
	"context"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

// GetAdminByUsername returns nil, nil when no such admin exists.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := s.DB.GetContext(ctx, &user, `SELECT id, username, password FROM admin_users WHERE username = ?`, username)
	if err != nil {
		if err = notFound(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateAdmin is mainly for seeding the first operator from the CLI.
func (s *Store) CreateAdmin(ctx context.Context, username, hashedPassword string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO admin_users (username, password) VALUES (?, ?)`, username, hashedPassword)
	return conflict(err)
}

func (s *Store) SetAdminPassword(ctx context.Context, username, hashedPassword string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE admin_users SET password = ? WHERE username = ?`, hashedPassword, username)
	return affected(res, err)
}
