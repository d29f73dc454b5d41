package store

import (
	"context"
	"time"
)

// Draft is the stored checkpoint of an onboarding wizard.
type Draft struct {
	UserID    string    `db:"user_id"`
	Step      int       `db:"step"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) GetDraft(ctx context.Context, userID string) (*Draft, error) {
	var d Draft
	err := s.DB.GetContext(ctx, &d, `SELECT user_id, step, data, updated_at FROM onboarding_drafts WHERE user_id = ?`, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (s *Store) SaveDraft(ctx context.Context, d *Draft) error {
	d.UpdatedAt = time.Now().UTC()
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO onboarding_drafts (user_id, step, data, updated_at)
		VALUES (:user_id, :step, :data, :updated_at)
		ON CONFLICT(user_id) DO UPDATE SET step = excluded.step, data = excluded.data, updated_at = excluded.updated_at
	`, d)
	return err
}

func (s *Store) DeleteDraft(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM onboarding_drafts WHERE user_id = ?`, userID)
	return err
}
