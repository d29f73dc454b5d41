package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

const profileColumns = `id, email, slug, name, title, bio, avatar_url, phone, links, plan_type, billing_cycle,
	payment_reference, subscription_status, show_email, show_phone, use_username_instead_of_name,
	layout_style, theme, background_url, notify_order_updates, onboarding_complete, created_at, updated_at`

// CreateProfile inserts the row created on a user's first authentication.
func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.PlanType == "" {
		p.PlanType = models.PlanFree
	}
	if p.SubscriptionStatus == "" {
		p.SubscriptionStatus = models.SubscriptionActive
	}
	if p.LayoutStyle == "" {
		p.LayoutStyle = models.LayoutList
	}
	if p.Links == nil {
		p.Links = models.Links{}
	}
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES (:id, :email, :slug, :name, :title, :bio, :avatar_url, :phone, :links, :plan_type, :billing_cycle,
			:payment_reference, :subscription_status, :show_email, :show_phone, :use_username_instead_of_name,
			:layout_style, :theme, :background_url, :notify_order_updates, :onboarding_complete, :created_at, :updated_at)
	`
	_, err := s.DB.NamedExecContext(ctx, query, p)
	return conflict(err)
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetProfileBySlug matches the slug exactly (case-sensitive).
func (s *Store) GetProfileBySlug(ctx context.Context, slug string) (*models.Profile, error) {
	var p models.Profile
	err := s.DB.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE slug = ? AND slug <> ''`, slug)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SlugTaken reports whether another profile than excludeID owns slug.
func (s *Store) SlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles WHERE slug = ? AND id <> ?`, slug, excludeID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := s.DB.SelectContext(ctx, &out, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	return out, err
}

// SaveProfile writes the editor's fields. A missing row is inserted. The
// username ledger is updated in the same transaction whenever the slug
// changes.
func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		prev, exists, err := currentSlug(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if p.Links == nil {
			p.Links = models.Links{}
		}
		if !exists {
			p.CreatedAt = p.UpdatedAt
			if p.PlanType == "" {
				p.PlanType = models.PlanFree
			}
			if p.SubscriptionStatus == "" {
				p.SubscriptionStatus = models.SubscriptionActive
			}
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO profiles (`+profileColumns+`)
				VALUES (:id, :email, :slug, :name, :title, :bio, :avatar_url, :phone, :links, :plan_type, :billing_cycle,
					:payment_reference, :subscription_status, :show_email, :show_phone, :use_username_instead_of_name,
					:layout_style, :theme, :background_url, :notify_order_updates, :onboarding_complete, :created_at, :updated_at)
			`, p)
		} else {
			_, err = tx.NamedExecContext(ctx, `
				UPDATE profiles SET
					slug = :slug, name = :name, title = :title, bio = :bio, avatar_url = :avatar_url,
					phone = :phone, links = :links, show_email = :show_email, show_phone = :show_phone,
					use_username_instead_of_name = :use_username_instead_of_name,
					layout_style = :layout_style, theme = :theme, background_url = :background_url,
					updated_at = :updated_at
				WHERE id = :id
			`, p)
		}
		if err != nil {
			return conflict(err)
		}
		return syncUsername(ctx, tx, p.ID, prev, p.Slug)
	})
}

// CompleteOnboarding performs the wizard's single final profile write.
func (s *Store) CompleteOnboarding(ctx context.Context, p *models.Profile) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		prev, exists, err := currentSlug(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		p.UpdatedAt = time.Now().UTC()
		p.OnboardingComplete = true
		if p.Links == nil {
			p.Links = models.Links{}
		}
		_, err = tx.NamedExecContext(ctx, `
			UPDATE profiles SET
				name = :name, slug = :slug, title = :title, bio = :bio, avatar_url = :avatar_url,
				links = :links, plan_type = :plan_type, billing_cycle = :billing_cycle,
				payment_reference = :payment_reference, subscription_status = :subscription_status,
				onboarding_complete = 1, updated_at = :updated_at
			WHERE id = :id
		`, p)
		if err != nil {
			return conflict(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM onboarding_drafts WHERE user_id = ?`, p.ID); err != nil {
			return err
		}
		return syncUsername(ctx, tx, p.ID, prev, p.Slug)
	})
}

// Visibility holds the profile's quick toggles.
type Visibility struct {
	ShowEmail                bool `db:"show_email" json:"show_email"`
	ShowPhone                bool `db:"show_phone" json:"show_phone"`
	UseUsernameInsteadOfName bool `db:"use_username_instead_of_name" json:"use_username_instead_of_name"`
	NotifyOrderUpdates       bool `db:"notify_order_updates" json:"notify_order_updates"`
}

func (s *Store) UpdateVisibility(ctx context.Context, id string, v Visibility) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE profiles SET show_email = ?, show_phone = ?, use_username_instead_of_name = ?,
			notify_order_updates = ?, updated_at = ?
		WHERE id = ?
	`, v.ShowEmail, v.ShowPhone, v.UseUsernameInsteadOfName, v.NotifyOrderUpdates, time.Now().UTC(), id)
	return affected(res, err)
}

func (s *Store) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE profiles SET avatar_url = ?, updated_at = ? WHERE id = ?`,
		avatarURL, time.Now().UTC(), id)
	return affected(res, err)
}

func (s *Store) UsernameHistory(ctx context.Context, userID string) ([]models.UsernameHistory, error) {
	var out []models.UsernameHistory
	err := s.DB.SelectContext(ctx, &out, `
		SELECT id, user_id, username, is_current, created_at
		FROM username_history WHERE user_id = ? ORDER BY id
	`, userID)
	return out, err
}

func currentSlug(ctx context.Context, tx *sqlx.Tx, id string) (string, bool, error) {
	var slug string
	err := tx.GetContext(ctx, &slug, `SELECT slug FROM profiles WHERE id = ?`, id)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return slug, true, nil
}

func syncUsername(ctx context.Context, tx *sqlx.Tx, userID, prev, next string) error {
	if next == "" || next == prev {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE username_history SET is_current = 0 WHERE user_id = ? AND is_current = 1`, userID); err != nil {
		return fmt.Errorf("retire username: %w", err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO username_history (user_id, username, is_current, created_at) VALUES (?, ?, 1, ?)`,
		userID, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record username: %w", err)
	}
	return nil
}
