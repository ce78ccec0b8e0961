package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RunMaintenance executes housekeeping tasks.
// Tasks are idempotent and safe to run multiple times.
func RunMaintenance(ctx context.Context, s *Store, logger *slog.Logger) error {
	start := time.Now()
	logger.Info("maintenance: start")

	// Try to acquire a DB-level singleton lock (Postgres only).
	unlock, err := tryAcquireLock(ctx, s)
	if err != nil {
		return err
	}
	if unlock != nil {
		defer unlock()
	}

	n, err := deleteInvalidAPITokens(ctx, s, time.Now())
	if err != nil {
		return fmt.Errorf("delete invalid API tokens: %w", err)
	}
	logger.Info("maintenance: api tokens removed", "count", n)

	n, err = purgeDeletedLeads(ctx, s, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		return fmt.Errorf("purge deleted leads: %w", err)
	}
	logger.Info("maintenance: deleted leads purged", "count", n)

	if err := vacuumAnalyze(ctx, s); err != nil {
		return fmt.Errorf("vacuum/analyze: %w", err)
	}

	logger.Info("maintenance: done", "duration", time.Since(start).Truncate(time.Millisecond).String())
	return nil
}

func tryAcquireLock(ctx context.Context, s *Store) (func(), error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}

	switch s.db.Dialector.Name() {
	case "postgres":
		var got bool
		if err := sqlDB.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", 71523004).Scan(&got); err != nil {
			return nil, err
		}
		if !got {
			return nil, errors.New("another maintenance run is in progress")
		}
		return func() {
			_, _ = sqlDB.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", 71523004)
		}, nil
	default:
		// No locking available in SQLite
		return nil, nil
	}
}

// deleteInvalidAPITokens removes tokens that are explicitly disabled
// or past their expiration date.
func deleteInvalidAPITokens(ctx context.Context, s *Store, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("disabled = ? OR (expires_at IS NOT NULL AND expires_at < ?)", true, now).
		Delete(&APIToken{})
	return res.RowsAffected, res.Error
}

// purgeDeletedLeads permanently removes soft-deleted leads (and their
// contact points) deleted before cutoff.
func purgeDeletedLeads(ctx context.Context, s *Store, cutoff time.Time) (int64, error) {
	db := s.db.WithContext(ctx)
	var ids []uint
	if err := db.Unscoped().Model(&Lead{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := db.Unscoped().Where("lead_id IN ?", ids).Delete(&ContactPoint{}).Error; err != nil {
		return 0, err
	}
	res := db.Unscoped().Where("id IN ?", ids).Delete(&Lead{})
	return res.RowsAffected, res.Error
}

// vacuumAnalyze runs database cleanup commands depending on DB engine.
func vacuumAnalyze(ctx context.Context, s *Store) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	switch s.db.Dialector.Name() {
	case "postgres":
		_, err = sqlDB.ExecContext(ctx, "VACUUM (ANALYZE)")
	case "sqlite":
		_, err = sqlDB.ExecContext(ctx, "VACUUM")
		if err == nil {
			_, _ = sqlDB.ExecContext(ctx, "PRAGMA optimize")
		}
	}
	return err
}
