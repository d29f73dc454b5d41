package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

// RecordVisit logs a public profile view and bumps the rolled-up counters.
func (s *Store) RecordVisit(ctx context.Context, v *models.ProfileVisit) error {
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			INSERT INTO profile_visits (profile_id, visited_at, referrer, user_agent)
			VALUES (:profile_id, :visited_at, :referrer, :user_agent)
		`, v)
		if err != nil {
			return err
		}
		if v.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profile_analytics (profile_id, total_visits, total_clicks, last_visit_at)
			VALUES (?, 1, 0, ?)
			ON CONFLICT(profile_id) DO UPDATE SET
				total_visits = total_visits + 1,
				last_visit_at = excluded.last_visit_at
		`, v.ProfileID, v.VisitedAt)
		return err
	})
}

// RecordClick logs a click on one of a profile's links.
func (s *Store) RecordClick(ctx context.Context, c *models.LinkClick) error {
	if c.ClickedAt.IsZero() {
		c.ClickedAt = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, `
			INSERT INTO link_clicks (profile_id, link_index, link_label, link_url, clicked_at)
			VALUES (:profile_id, :link_index, :link_label, :link_url, :clicked_at)
		`, c)
		if err != nil {
			return err
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profile_analytics (profile_id, total_visits, total_clicks)
			VALUES (?, 0, 1)
			ON CONFLICT(profile_id) DO UPDATE SET total_clicks = total_clicks + 1
		`, c.ProfileID)
		return err
	})
}

type LinkClickCount struct {
	LinkURL   string `db:"link_url" json:"url"`
	LinkLabel string `db:"link_label" json:"label"`
	Clicks    int    `db:"clicks" json:"clicks"`
}

type DailyVisits struct {
	Day    string `db:"day" json:"day"`
	Visits int    `db:"visits" json:"visits"`
}

type ProfileReport struct {
	Totals models.ProfileAnalytics `json:"totals"`
	Links  []LinkClickCount        `json:"links"`
	Daily  []DailyVisits           `json:"daily"`
}

// ProfileReport summarises a profile's analytics since the given time.
func (s *Store) ProfileReport(ctx context.Context, profileID string, since time.Time) (*ProfileReport, error) {
	report := &ProfileReport{Totals: models.ProfileAnalytics{ProfileID: profileID}}

	err := s.DB.GetContext(ctx, &report.Totals, `
		SELECT profile_id, total_visits, total_clicks, last_visit_at
		FROM profile_analytics WHERE profile_id = ?
	`, profileID)
	if err != nil && notFound(err) != ErrNotFound {
		return nil, err
	}

	err = s.DB.SelectContext(ctx, &report.Links, `
		SELECT link_url, MAX(link_label) AS link_label, COUNT(*) AS clicks
		FROM link_clicks WHERE profile_id = ? AND clicked_at >= ?
		GROUP BY link_url ORDER BY clicks DESC, link_url
	`, profileID, since.UTC())
	if err != nil {
		return nil, err
	}

	err = s.DB.SelectContext(ctx, &report.Daily, `
		SELECT substr(visited_at, 1, 10) AS day, COUNT(*) AS visits
		FROM profile_visits WHERE profile_id = ? AND visited_at >= ?
		GROUP BY day ORDER BY day
	`, profileID, since.UTC())
	if err != nil {
		return nil, err
	}
	return report, nil
}
