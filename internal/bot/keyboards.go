package bot

import (
	"github.com/m3rciful/kursbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// CurrenciesKeyboard builds the main reply keyboard: currency buttons two
// per row, with the custom code trigger on its own bottom row.
func CurrenciesKeyboard(currencies []string) *tele.ReplyMarkup {
	return keyboard.ReplyButtonsNPerRow(currencies, 2, []string{ButtonCustomCode})
}
