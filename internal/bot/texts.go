package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/kursbot/internal/cbr"
	"github.com/m3rciful/kursbot/internal/stats"
)

// ButtonCustomCode is the reply-keyboard label that starts custom code input.
const ButtonCustomCode = "Ввести свой код"

const (
	textHelp = "🔹 Выберите валюту из кнопок для получения курса.\n" +
		"🔹 Нажмите 'Ввести свой код' для проверки любой валюты по коду.\n" +
		"🔹 Используйте команду /start для перезапуска бота.\n" +
		"🔹 Данные предоставлены Центральным Банком России."

	textAskCode = "Введите международный код валюты (например, USD, EUR, GBP):"

	textInvalidCode = "❌ Некорректный формат кода валюты. Пожалуйста, введите трехбуквенный код (например, USD)."

	textPickFromButtons = "Пожалуйста, выберите валюту из кнопок или нажмите 'Ввести свой код'."

	textFetching = "⏳ Получаю данные..."
)

// Greeting builds the /start reply addressed to the user.
func Greeting(name string) string {
	return fmt.Sprintf(
		"Привет, %s! Я помогу вам узнать курс ЦБ РФ на сегодня.\n\n"+
			"Выберите валюту из списка или нажмите 'Ввести свой код' "+
			"для проверки своей валюты (потребуется ввести трехбуквенный код, например, AED).",
		name,
	)
}

// UnitWord returns the correct Russian form of the word "единица" for a nominal.
func UnitWord(nominal int) string {
	lastDigit := nominal % 10
	lastTwo := nominal % 100

	switch {
	case lastDigit == 1 && lastTwo != 11:
		return "единицу"
	case lastDigit >= 2 && lastDigit <= 4 && (lastTwo < 10 || lastTwo >= 20):
		return "единицы"
	default:
		return "единиц"
	}
}

// FormatQuote renders a feed quote as the reply message, showing the quoted
// nominal price plus both per-unit conversions.
func FormatQuote(q cbr.Quote) string {
	return fmt.Sprintf(
		"Курс %s (%s)\n\n"+
			"→ за %d %s: %.4f RUB\n"+
			"→ за 1 %s: %.4f RUB\n"+
			"→ за 1 RUB: %.6f %s",
		q.Code, q.Name,
		q.Nominal, UnitWord(q.Nominal), q.Value,
		q.Code, q.Value/float64(q.Nominal),
		float64(q.Nominal)/q.Value, q.Code,
	)
}

// FormatQuoteUnavailable builds the reply for a code the feed could not serve.
func FormatQuoteUnavailable(code string) string {
	return fmt.Sprintf(
		"❌ Не удалось получить курс валюты %s.\n"+
			"Проверьте правильность кода валюты или попробуйте позже.",
		code,
	)
}

// FormatStats renders the /stats report with totals, today's numbers and a
// short per-day history.
func FormatStats(totalUsers int, today stats.DailyStats, recent []stats.DailyStats) string {
	var b strings.Builder
	b.WriteString("📊 Статистика бота\n\n")
	fmt.Fprintf(&b, "Всего пользователей: %d\n\n", totalUsers)
	fmt.Fprintf(&b, "Сегодня (%s):\n", today.Day)
	fmt.Fprintf(&b, "→ активных: %d\n", today.ActiveUsers)
	fmt.Fprintf(&b, "→ запросов: %d\n", today.TotalRequests)
	fmt.Fprintf(&b, "→ новых: %d\n", today.NewUsers)

	if len(recent) > 0 {
		b.WriteString("\nПоследние дни:\n")
		for _, day := range recent {
			fmt.Fprintf(&b, "%s — активных: %d, запросов: %d, новых: %d\n",
				day.Day, day.ActiveUsers, day.TotalRequests, day.NewUsers)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
