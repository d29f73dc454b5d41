package store

import (
	"context"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

type DashboardStats struct {
	TotalProfiles     int            `json:"total_profiles"`
	FreeProfiles      int            `json:"free_profiles"`
	ProProfiles       int            `json:"pro_profiles"`
	OnboardedProfiles int            `json:"onboarded_profiles"`
	TotalOrders       int            `json:"total_orders"`
	OrdersByStatus    map[string]int `json:"orders_by_status"`
	InventoryCounts   map[string]int `json:"inventory_counts"`
	TotalVisits       int            `json:"total_visits"`
	TotalClicks       int            `json:"total_clicks"`
}

func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus:  make(map[string]int),
		InventoryCounts: make(map[string]int),
	}

	err := s.DB.QueryRowxContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN plan_type = 'pro' THEN 0 ELSE 1 END), 0),
			COALESCE(SUM(CASE WHEN plan_type = 'pro' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(onboarding_complete), 0)
		FROM profiles
	`).Scan(&stats.TotalProfiles, &stats.FreeProfiles, &stats.ProProfiles, &stats.OnboardedProfiles)
	if err != nil {
		return nil, err
	}

	if err := s.DB.GetContext(ctx, &stats.TotalOrders, `SELECT COUNT(*) FROM orders`); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, kind := range []models.InventoryKind{models.KindCardType, models.KindColorScheme, models.KindMaterial} {
		var n int
		if err := s.DB.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+string(kind)); err != nil {
			return nil, err
		}
		stats.InventoryCounts[string(kind)] = n
	}

	err = s.DB.QueryRowxContext(ctx, `
		SELECT COALESCE(SUM(total_visits), 0), COALESCE(SUM(total_clicks), 0) FROM profile_analytics
	`).Scan(&stats.TotalVisits, &stats.TotalClicks)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
