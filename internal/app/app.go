// Package app wires configuration, storage and handlers into a runnable bot.
package app

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/kursbot/core/bootstrap"
	corecmd "github.com/m3rciful/kursbot/core/cmd"
	"github.com/m3rciful/kursbot/core/logger"
	tg "github.com/m3rciful/kursbot/core/telegram"
	"github.com/m3rciful/kursbot/core/telegram/router"
	"github.com/m3rciful/kursbot/core/telegram/state"
	"github.com/m3rciful/kursbot/internal/bot"
	"github.com/m3rciful/kursbot/internal/cbr"
	"github.com/m3rciful/kursbot/internal/httpserver"
	"github.com/m3rciful/kursbot/internal/stats"
	"github.com/m3rciful/kursbot/migrations"
	"log/slog"
)

// App aggregates the bot's runtime components.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	sessions state.Manager
	registry *tg.Registry

	metricsServer *httpserver.Server
}

// New bootstraps infrastructure and assembles handlers.
func New(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.Files,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := buildSessions(cfg.Sessions)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	rates := cbr.NewClient(cbr.WithURL(cfg.Feed.URL))
	statsSvc := stats.NewService(res.DB)

	handlers := bot.NewHandlers(rates, statsSvc, sessions, bot.Options{
		Currencies: cfg.Bot.Currencies,
	})
	commands := bot.NewCommands(handlers, statsSvc, cfg.Bot.StatsRecentDays)

	registry := tg.NewRegistry()
	commands.Register(registry)
	registry.SetTextFallback(handlers.HandleText)

	a := &App{
		cfg:      cfg,
		db:       res.DB,
		sessions: sessions,
		registry: registry,
	}
	if cfg.Metrics.Enabled {
		a.metricsServer = httpserver.New(cfg.Metrics.Addr)
	}
	return a, nil
}

func buildSessions(cfg SessionsConfig) (state.Manager, error) {
	if cfg.Backend == "redis" {
		return state.NewRedisManager(state.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   "kursbot:session",
			TTL:      time.Duration(cfg.TTLMinutes) * time.Minute,
		})
	}
	return state.NewMemoryManager(), nil
}

// TelegramRunOptions exposes the composed bot to the shared runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AllowedIDs: a.cfg.Bot.StatsAllowedIDs,
	})
	routes = append(routes, router.TextRoutes(a.sessions, a.registry, router.TextOptions{
		AllowedIDs: a.cfg.Bot.StatsAllowedIDs,
	})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Start(); err != nil {
				logger.L.With("component", "http").Error("metrics server failed",
					slog.String("event", "listen"),
					slog.String("err", err.Error()),
				)
			}
		}()
	}
	return nil
}

func (a *App) onStop(ctx context.Context, rt tg.Runtime) error {
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metricsServer.Shutdown(shutdownCtx)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	return nil
}

var _ corecmd.ConfigCarrier = (*Config)(nil)
var _ corecmd.TelegramApp = (*App)(nil)
