package stats

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/kursbot/migrations"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	entries, err := fs.ReadDir(migrations.Files, ".")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		raw, err := fs.ReadFile(migrations.Files, e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if _, err := db.Exec(string(raw)); err != nil {
			t.Fatalf("apply %s: %v", e.Name(), err)
		}
	}

	return NewService(db)
}

func setDay(svc *Service, day string) {
	t, err := time.Parse(dayLayout, day)
	if err != nil {
		panic(err)
	}
	svc.now = func() time.Time { return t }
}

func TestRecordActivityNewUser(t *testing.T) {
	svc := newTestService(t)
	setDay(svc, "2025-03-02")
	ctx := context.Background()

	if err := svc.RecordActivity(ctx, 100, "alice", "Alice"); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	total, err := svc.TotalUsers(ctx)
	if err != nil {
		t.Fatalf("TotalUsers: %v", err)
	}
	if total != 1 {
		t.Errorf("total users = %d, want 1", total)
	}

	day, err := svc.StatsForDay(ctx, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StatsForDay: %v", err)
	}
	if day.ActiveUsers != 1 || day.TotalRequests != 1 || day.NewUsers != 1 {
		t.Errorf("daily stats = %+v, want active=1 requests=1 new=1", day)
	}

	var user UserActivity
	err = svc.db.Get(&user, svc.db.Rebind(`SELECT * FROM users WHERE user_id = ?`), int64(100))
	if err != nil {
		t.Fatalf("select user: %v", err)
	}
	if user.Username != "alice" || user.FirstName != "Alice" {
		t.Errorf("user names = %q/%q, want alice/Alice", user.Username, user.FirstName)
	}
	if user.LastActivity != "2025-03-02" {
		t.Errorf("last_activity = %q, want 2025-03-02", user.LastActivity)
	}
	if user.TotalRequests != 1 {
		t.Errorf("total_requests = %d, want 1", user.TotalRequests)
	}
	if user.RegisteredAt == "" {
		t.Error("registered_at is empty")
	}
}

func TestRecordActivitySameDayTwice(t *testing.T) {
	svc := newTestService(t)
	setDay(svc, "2025-03-02")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.RecordActivity(ctx, 100, "alice", "Alice"); err != nil {
			t.Fatalf("RecordActivity #%d: %v", i+1, err)
		}
	}

	day, err := svc.StatsForDay(ctx, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StatsForDay: %v", err)
	}
	if day.ActiveUsers != 1 {
		t.Errorf("active_users = %d, want 1 after repeat activity", day.ActiveUsers)
	}
	if day.TotalRequests != 2 {
		t.Errorf("total_requests = %d, want 2", day.TotalRequests)
	}
	if day.NewUsers != 1 {
		t.Errorf("new_users = %d, want 1", day.NewUsers)
	}
}

func TestRecordActivityAcrossDays(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	setDay(svc, "2025-03-02")
	if err := svc.RecordActivity(ctx, 100, "alice", "Alice"); err != nil {
		t.Fatalf("day one: %v", err)
	}

	setDay(svc, "2025-03-03")
	if err := svc.RecordActivity(ctx, 100, "alice", "Alice"); err != nil {
		t.Fatalf("day two: %v", err)
	}

	dayTwo, err := svc.StatsForDay(ctx, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StatsForDay: %v", err)
	}
	if dayTwo.ActiveUsers != 1 {
		t.Errorf("day two active_users = %d, want 1", dayTwo.ActiveUsers)
	}
	if dayTwo.NewUsers != 0 {
		t.Errorf("day two new_users = %d, want 0 for a returning user", dayTwo.NewUsers)
	}

	total, err := svc.TotalUsers(ctx)
	if err != nil {
		t.Fatalf("TotalUsers: %v", err)
	}
	if total != 1 {
		t.Errorf("total users = %d, want 1", total)
	}
}

func TestStatsForDayMissing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	day, err := svc.StatsForDay(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("StatsForDay: %v", err)
	}
	if day.Day != "2025-01-01" {
		t.Errorf("day = %q, want 2025-01-01", day.Day)
	}
	if day.ActiveUsers != 0 || day.TotalRequests != 0 || day.NewUsers != 0 {
		t.Errorf("stats = %+v, want all zero", day)
	}
}

func TestStatsForPeriodOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i, day := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		setDay(svc, day)
		if err := svc.RecordActivity(ctx, int64(200+i), "u", "U"); err != nil {
			t.Fatalf("record %s: %v", day, err)
		}
	}

	out, err := svc.StatsForPeriod(ctx,
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("StatsForPeriod: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	want := []string{"2025-03-03", "2025-03-02", "2025-03-01"}
	for i, day := range want {
		if out[i].Day != day {
			t.Errorf("out[%d].Day = %q, want %q", i, out[i].Day, day)
		}
	}
}

func TestRecentStatsWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	setDay(svc, "2025-02-20")
	if err := svc.RecordActivity(ctx, 300, "old", "Old"); err != nil {
		t.Fatalf("record old: %v", err)
	}
	setDay(svc, "2025-03-02")
	if err := svc.RecordActivity(ctx, 301, "new", "New"); err != nil {
		t.Fatalf("record new: %v", err)
	}

	out, err := svc.RecentStats(ctx, 7)
	if err != nil {
		t.Fatalf("RecentStats: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1 day inside the window", len(out))
	}
	if out[0].Day != "2025-03-02" {
		t.Errorf("day = %q, want 2025-03-02", out[0].Day)
	}
}
