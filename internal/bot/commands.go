package bot

import (
	"context"
	"time"

	tghelpers "github.com/m3rciful/kursbot/core/telegram/helpers"

	tg "github.com/m3rciful/kursbot/core/telegram"
	"github.com/m3rciful/kursbot/core/telegram/commands"
	"github.com/m3rciful/kursbot/internal/metrics"
	"github.com/m3rciful/kursbot/internal/stats"

	tele "gopkg.in/telebot.v4"
)

type statsProvider interface {
	TotalUsers(ctx context.Context) (int64, error)
	StatsForDay(ctx context.Context, day time.Time) (stats.DailyStats, error)
	RecentStats(ctx context.Context, days int) ([]stats.DailyStats, error)
}

// Commands bundles the bot command handlers.
type Commands struct {
	handlers   *Handlers
	stats      statsProvider
	metrics    *metrics.Metrics
	recentDays int

	now func() time.Time
}

// NewCommands builds command handlers over the conversation handlers and
// the statistics service.
func NewCommands(h *Handlers, sp statsProvider, recentDays int) *Commands {
	if recentDays <= 0 {
		recentDays = 7
	}
	return &Commands{
		handlers:   h,
		stats:      sp,
		metrics:    metrics.Registry("kursbot"),
		recentDays: recentDays,
		now:        time.Now,
	}
}

// Register adds all commands to the registry. The /stats command stays out
// of the public command menu and passes through the allow-list gate.
func (cmds *Commands) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     cmds.Start,
		Description: "Запустить бота и показать валюты",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     cmds.Help,
		Description: "Как пользоваться ботом",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     cmds.Stats,
		Description: "Статистика использования",
		Restricted:  true,
		Hidden:      true,
	})
}

// Start greets the user and shows the currency keyboard.
func (cmds *Commands) Start(c tele.Context) error {
	cmds.metrics.Commands.WithLabelValues("start").Inc()
	cmds.handlers.RecordActivity(c)

	user := c.Sender()
	name := ""
	if user != nil {
		name = user.Username
		if name == "" {
			name = user.FirstName
		}
	}

	markup := CurrenciesKeyboard(cmds.handlers.Currencies())
	return tghelpers.SendWithKeyboard(c, Greeting(name), markup)
}

// Help explains the available interactions.
func (cmds *Commands) Help(c tele.Context) error {
	cmds.metrics.Commands.WithLabelValues("help").Inc()
	cmds.handlers.RecordActivity(c)
	return tghelpers.SendText(c, textHelp)
}

// Stats reports totals, today's aggregates and the recent history.
func (cmds *Commands) Stats(c tele.Context) error {
	cmds.metrics.Commands.WithLabelValues("stats").Inc()
	cmds.handlers.RecordActivity(c)

	ctx := tghelpers.BuildContext(c)

	total, err := cmds.stats.TotalUsers(ctx)
	if err != nil {
		return err
	}
	today, err := cmds.stats.StatsForDay(ctx, cmds.now())
	if err != nil {
		return err
	}
	recent, err := cmds.stats.RecentStats(ctx, cmds.recentDays)
	if err != nil {
		return err
	}

	return tghelpers.SendText(c, FormatStats(int(total), today, recent))
}
