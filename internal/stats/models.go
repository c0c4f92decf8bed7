package stats

// UserActivity is a row of the users table.
type UserActivity struct {
	UserID        int64  `db:"user_id"`
	Username      string `db:"username"`
	FirstName     string `db:"first_name"`
	RegisteredAt  string `db:"registered_at"`
	LastActivity  string `db:"last_activity"`
	TotalRequests int64  `db:"total_requests"`
}

// DailyStats aggregates bot usage for a single day.
// Day is formatted as YYYY-MM-DD.
type DailyStats struct {
	Day           string `db:"day"`
	ActiveUsers   int64  `db:"active_users"`
	TotalRequests int64  `db:"total_requests"`
	NewUsers      int64  `db:"new_users"`
}
