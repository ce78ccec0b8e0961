package model

import (
	"context"
	"time"
)

// StatusCount is one slice of the status pie.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthCount is one bar of the leads-per-month chart. Month is "YYYY-MM".
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// CountLeadsByStatus returns the number of leads per status, largest first.
func (s *Store) CountLeadsByStatus(ctx context.Context, scope LeadScope) ([]StatusCount, error) {
	var rows []StatusCount
	err := scope.apply(s.db.WithContext(ctx).Model(&Lead{})).
		Select("leads.status AS status, COUNT(*) AS count").
		Group("leads.status").
		Order("count DESC, status ASC").
		Scan(&rows).Error
	return rows, err
}

// CountLeads returns the number of leads in scope.
func (s *Store) CountLeads(ctx context.Context, scope LeadScope) (int64, error) {
	var n int64
	err := scope.apply(s.db.WithContext(ctx).Model(&Lead{})).Count(&n).Error
	return n, err
}

// CountLeadsByMonth returns lead creations for the last `months` calendar
// months (UTC) up to and including the month of now, oldest first. Months
// without leads are reported with a zero count.
func (s *Store) CountLeadsByMonth(ctx context.Context, scope LeadScope, months int, now time.Time) ([]MonthCount, error) {
	if months <= 0 {
		months = 6
	}
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	var created []time.Time
	err := scope.apply(s.db.WithContext(ctx).Model(&Lead{})).
		Where("leads.created_at >= ?", start).
		Pluck("leads.created_at", &created).Error
	if err != nil {
		return nil, err
	}

	out := make([]MonthCount, months)
	index := make(map[string]int, months)
	for i := range out {
		m := start.AddDate(0, i, 0).Format("2006-01")
		out[i].Month = m
		index[m] = i
	}
	for _, t := range created {
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			out[i].Count++
		}
	}
	return out, nil
}
