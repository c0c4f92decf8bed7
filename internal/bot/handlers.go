// Package bot implements the conversation flow and commands of the
// exchange rate bot.
package bot

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/m3rciful/kursbot/core/logger"
	tghelpers "github.com/m3rciful/kursbot/core/telegram/helpers"
	"github.com/m3rciful/kursbot/core/telegram/state"
	"github.com/m3rciful/kursbot/internal/cbr"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// StateAwaitingCode marks a user who was asked to type a currency code.
const StateAwaitingCode state.State = "awaiting_code"

type rateFetcher interface {
	Rate(ctx context.Context, code string) (cbr.Quote, error)
}

type activityRecorder interface {
	RecordActivity(ctx context.Context, userID int64, username, firstName string) error
}

// Options configure the conversation handlers.
type Options struct {
	// Currencies shown as keyboard buttons, e.g. USD EUR CNY.
	Currencies []string
}

// Handlers owns the text conversation flow.
type Handlers struct {
	rates      rateFetcher
	activity   activityRecorder
	sessions   state.Manager
	currencies []string
}

// NewHandlers wires the conversation flow and registers its FSM states.
func NewHandlers(rates rateFetcher, activity activityRecorder, sessions state.Manager, opts Options) *Handlers {
	currencies := make([]string, 0, len(opts.Currencies))
	for _, c := range opts.Currencies {
		code := strings.ToUpper(strings.TrimSpace(c))
		if code != "" {
			currencies = append(currencies, code)
		}
	}

	h := &Handlers{
		rates:      rates,
		activity:   activity,
		sessions:   sessions,
		currencies: currencies,
	}
	state.RegisterHandler(StateAwaitingCode, h.HandleAwaitedCode)
	return h
}

// Currencies returns the configured keyboard currency codes.
func (h *Handlers) Currencies() []string {
	return h.currencies
}

// RecordActivity stores the inbound update in the activity statistics.
// Failures are logged by the service and never block the reply.
func (h *Handlers) RecordActivity(c tele.Context) {
	user := c.Sender()
	if user == nil || h.activity == nil {
		return
	}
	ctx := tghelpers.BuildContext(c)
	_ = h.activity.RecordActivity(ctx, user.ID, user.Username, user.FirstName)
}

// HandleText routes plain text outside an active conversation: the custom
// code trigger, one of the keyboard currencies, or a hint otherwise.
func (h *Handlers) HandleText(c tele.Context) error {
	h.RecordActivity(c)

	text := strings.TrimSpace(c.Text())
	upper := strings.ToUpper(text)

	if upper == strings.ToUpper(ButtonCustomCode) {
		h.sessions.SetState(c.Sender().ID, StateAwaitingCode)
		return tghelpers.SendText(c, textAskCode)
	}

	for _, code := range h.currencies {
		if upper == code {
			return h.replyWithRate(c, code)
		}
	}

	return tghelpers.SendText(c, textPickFromButtons)
}

// HandleAwaitedCode consumes the message that answers the code prompt.
// The awaiting state is cleared before validation, so one bad answer does
// not trap the user in the conversation.
func (h *Handlers) HandleAwaitedCode(c tele.Context) error {
	h.RecordActivity(c)

	h.sessions.ClearState(c.Sender().ID)

	code := strings.ToUpper(strings.TrimSpace(c.Text()))
	if !ValidCode(code) {
		ctx := tghelpers.BuildContext(c)
		logger.Warn(ctx, "tg", "code.invalid",
			slog.Int64("user_id", c.Sender().ID),
			slog.String("code", logger.SanitizeLimit(code, 32)),
		)
		return tghelpers.SendText(c, textInvalidCode)
	}

	return h.replyWithRate(c, code)
}

func (h *Handlers) replyWithRate(c tele.Context, code string) error {
	if err := tghelpers.SendText(c, textFetching); err != nil {
		return err
	}

	ctx := tghelpers.BuildContext(c)
	quote, err := h.rates.Rate(ctx, code)
	if err != nil {
		if sendErr := tghelpers.SendText(c, FormatQuoteUnavailable(code)); sendErr != nil {
			return sendErr
		}
		if errors.Is(err, cbr.ErrNotFound) {
			return nil
		}
		return err
	}

	return tghelpers.SendText(c, FormatQuote(quote))
}

// ValidCode reports whether s is a three-letter alphabetic currency code.
// Any alphabet is accepted; unknown codes are left for the feed lookup.
func ValidCode(s string) bool {
	runes := []rune(s)
	if len(runes) != 3 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
