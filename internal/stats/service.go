// Package stats records per-user and per-day bot activity in the database.
package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kursbot/core/logger"
	"github.com/m3rciful/kursbot/internal/metrics"
	"log/slog"
)

const dayLayout = "2006-01-02"

// Service provides activity recording and aggregate queries.
type Service struct {
	db      *sqlx.DB
	metrics *metrics.Metrics

	// now is injectable for deterministic day boundaries in tests.
	now func() time.Time
}

// NewService builds a Service on top of an open database handle.
func NewService(db *sqlx.DB) *Service {
	return &Service{
		db:      db,
		metrics: metrics.Registry("kursbot"),
		now:     time.Now,
	}
}

// RecordActivity upserts the user row and bumps today's counters.
// A user contributes to active_users at most once per day; every call
// contributes to total_requests.
func (s *Service) RecordActivity(ctx context.Context, userID int64, username, firstName string) error {
	today := s.now().Format(dayLayout)

	err := s.recordActivity(ctx, userID, username, firstName, today)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.metrics.Errors.WithLabelValues("stats").Inc()
		logger.SVCStats.Error("stats.record.failed",
			slog.String("event", "record"),
			slog.Int64("user_id", userID),
			slog.String("day", today),
			slog.String("err", err.Error()),
		)
	} else if logger.ShouldSampleDebug() {
		logger.SVCStats.LogAttrs(ctx, slog.LevelDebug, "activity recorded",
			slog.String("event", "record"),
			slog.Int64("user_id", userID),
			slog.String("day", today),
		)
	}
	s.metrics.ActivityWrites.WithLabelValues(outcome).Inc()
	return err
}

func (s *Service) recordActivity(ctx context.Context, userID int64, username, firstName, today string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var prev UserActivity
	err = tx.GetContext(ctx, &prev,
		tx.Rebind(`SELECT user_id, last_activity, total_requests FROM users WHERE user_id = ?`),
		userID,
	)

	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`UPDATE users
				SET username = ?, first_name = ?, last_activity = ?, total_requests = total_requests + 1
				WHERE user_id = ?`),
			username, firstName, today, userID,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if prev.LastActivity != today {
			if err := s.bumpDaily(ctx, tx, today, "active_users"); err != nil {
				return err
			}
		}
	case errors.Is(err, sql.ErrNoRows):
		registeredAt := s.now().UTC().Format(time.RFC3339)
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO users (user_id, username, first_name, registered_at, last_activity, total_requests)
				VALUES (?, ?, ?, ?, ?, 1)`),
			userID, username, firstName, registeredAt, today,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if err := s.bumpDaily(ctx, tx, today, "new_users"); err != nil {
			return err
		}
		if err := s.bumpDaily(ctx, tx, today, "active_users"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("select user: %w", err)
	}

	if err := s.bumpDaily(ctx, tx, today, "total_requests"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// bumpDaily increments a single daily_stats column, inserting the day row
// on first touch. Column names are fixed at call sites, never user input.
func (s *Service) bumpDaily(ctx context.Context, tx *sqlx.Tx, day, column string) error {
	active, requests, newUsers := 0, 0, 0
	switch column {
	case "active_users":
		active = 1
	case "total_requests":
		requests = 1
	case "new_users":
		newUsers = 1
	default:
		return fmt.Errorf("unknown daily_stats column %q", column)
	}
	query := fmt.Sprintf(`INSERT INTO daily_stats (day, active_users, total_requests, new_users)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET %s = daily_stats.%s + 1`, column, column)
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), day, active, requests, newUsers); err != nil {
		return fmt.Errorf("bump %s: %w", column, err)
	}
	return nil
}

// TotalUsers returns the number of registered users.
func (s *Service) TotalUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// StatsForDay returns aggregates for one day, zero-valued when no row exists.
func (s *Service) StatsForDay(ctx context.Context, day time.Time) (DailyStats, error) {
	key := day.Format(dayLayout)
	var out DailyStats
	err := s.db.GetContext(ctx, &out,
		s.db.Rebind(`SELECT day, active_users, total_requests, new_users FROM daily_stats WHERE day = ?`),
		key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DailyStats{Day: key}, nil
	}
	if err != nil {
		return DailyStats{}, fmt.Errorf("select day stats: %w", err)
	}
	return out, nil
}

// StatsForPeriod returns aggregates for the inclusive date range, newest first.
func (s *Service) StatsForPeriod(ctx context.Context, start, end time.Time) ([]DailyStats, error) {
	var out []DailyStats
	err := s.db.SelectContext(ctx, &out,
		s.db.Rebind(`SELECT day, active_users, total_requests, new_users FROM daily_stats
			WHERE day BETWEEN ? AND ?
			ORDER BY day DESC`),
		start.Format(dayLayout), end.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("select period stats: %w", err)
	}
	return out, nil
}

// RecentStats returns aggregates for the last N days including today.
func (s *Service) RecentStats(ctx context.Context, days int) ([]DailyStats, error) {
	if days <= 0 {
		days = 7
	}
	end := s.now()
	start := end.AddDate(0, 0, -(days - 1))
	return s.StatsForPeriod(ctx, start, end)
}
