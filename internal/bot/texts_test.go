package bot

import (
	"strings"
	"testing"

	"github.com/m3rciful/kursbot/internal/cbr"
	"github.com/m3rciful/kursbot/internal/stats"
)

func TestUnitWord(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "единицу"},
		{2, "единицы"},
		{3, "единицы"},
		{4, "единицы"},
		{5, "единиц"},
		{10, "единиц"},
		{11, "единиц"},
		{12, "единиц"},
		{14, "единиц"},
		{21, "единицу"},
		{22, "единицы"},
		{100, "единиц"},
		{101, "единицу"},
		{111, "единиц"},
		{10000, "единиц"},
	}
	for _, tc := range cases {
		if got := UnitWord(tc.n); got != tc.want {
			t.Errorf("UnitWord(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestFormatQuoteSingleNominal(t *testing.T) {
	got := FormatQuote(cbr.Quote{
		Code:    "USD",
		Name:    "Доллар США",
		Nominal: 1,
		Value:   92.5058,
	})
	want := "Курс USD (Доллар США)\n\n" +
		"→ за 1 единицу: 92.5058 RUB\n" +
		"→ за 1 USD: 92.5058 RUB\n" +
		"→ за 1 RUB: 0.010810 USD"
	if got != want {
		t.Errorf("FormatQuote =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatQuoteLargeNominal(t *testing.T) {
	got := FormatQuote(cbr.Quote{
		Code:    "JPY",
		Name:    "Японских иен",
		Nominal: 100,
		Value:   61.9065,
	})
	if !strings.HasPrefix(got, "Курс JPY (Японских иен)") {
		t.Errorf("unexpected header: %s", got)
	}
	if !strings.Contains(got, "→ за 100 единиц: 61.9065 RUB") {
		t.Errorf("missing nominal line: %s", got)
	}
	if !strings.Contains(got, "→ за 1 JPY: 0.6191 RUB") {
		t.Errorf("missing per-unit line: %s", got)
	}
	if !strings.Contains(got, "→ за 1 RUB: 1.615339 JPY") {
		t.Errorf("missing inverse line: %s", got)
	}
}

func TestFormatQuoteUnavailable(t *testing.T) {
	got := FormatQuoteUnavailable("XYZ")
	if !strings.Contains(got, "XYZ") {
		t.Errorf("message does not mention the code: %s", got)
	}
}

func TestGreetingMentionsName(t *testing.T) {
	got := Greeting("alice")
	if !strings.Contains(got, "alice") {
		t.Errorf("greeting does not mention the user: %s", got)
	}
	if !strings.Contains(got, ButtonCustomCode) {
		t.Errorf("greeting does not mention the custom code button: %s", got)
	}
}

func TestFormatStats(t *testing.T) {
	today := stats.DailyStats{Day: "2025-03-02", ActiveUsers: 3, TotalRequests: 10, NewUsers: 1}
	recent := []stats.DailyStats{
		{Day: "2025-03-02", ActiveUsers: 3, TotalRequests: 10, NewUsers: 1},
		{Day: "2025-03-01", ActiveUsers: 2, TotalRequests: 4, NewUsers: 0},
	}
	got := FormatStats(42, today, recent)

	for _, fragment := range []string{
		"Всего пользователей: 42",
		"Сегодня (2025-03-02):",
		"→ активных: 3",
		"→ запросов: 10",
		"→ новых: 1",
		"2025-03-01 — активных: 2, запросов: 4, новых: 0",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("stats message missing %q:\n%s", fragment, got)
		}
	}
}
