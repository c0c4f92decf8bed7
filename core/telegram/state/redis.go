package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/m3rciful/kursbot/core/logger"
	tghelpers "github.com/m3rciful/kursbot/core/telegram/helpers"
	"log/slog"

	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"
)

// RedisOptions configures the redis-backed session manager.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces session keys, defaults to "session".
	Prefix string
	// TTL bounds session lifetime; zero keeps sessions until cleared.
	TTL time.Duration
}

type redisManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type redisSession struct {
	State string `json:"state"`
}

// NewRedisManager constructs a Manager that persists conversation state in
// Redis. State survives process restarts, which matters for webhook
// deployments behind more than one replica.
func NewRedisManager(opts RedisOptions) (Manager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "session"
	}

	return &redisManager{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}, nil
}

func (m *redisManager) key(userID int64) string {
	return fmt.Sprintf("%s:%d", m.prefix, userID)
}

// SetState sets the FSM state for the given user.
func (m *redisManager) SetState(userID int64, st State) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(redisSession{State: string(st)})
	if err != nil {
		logger.TG.Warn("session encode failed",
			slog.String("event", "session.store"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return
	}
	if err := m.client.Set(ctx, m.key(userID), data, m.ttl).Err(); err != nil {
		logger.TG.Warn("session store failed",
			slog.String("event", "session.store"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *redisManager) GetState(userID int64) State {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	raw, err := m.client.Get(ctx, m.key(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.TG.Warn("session load failed",
				slog.String("event", "session.load"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		return StateIdle
	}

	var sess redisSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logger.TG.Warn("session decode failed",
			slog.String("event", "session.load"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return StateIdle
	}
	if sess.State == "" {
		return StateIdle
	}
	return State(sess.State)
}

// ClearState resets the FSM state to idle for a user.
func (m *redisManager) ClearState(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		logger.TG.Warn("session clear failed",
			slog.String("event", "session.clear"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

// HasState checks if a user has an active state other than idle.
func (m *redisManager) HasState(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// InProgress reports whether the user currently has an active FSM state.
func (m *redisManager) InProgress(userID int64) bool {
	return m.HasState(userID)
}

// ManagerHandler executes the handler function registered for the user's current state, if any.
func (m *redisManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(current)),
	)

	if handler, ok := fsmHandlers[current]; ok {
		return handler(c)
	}
	return nil
}
