package bot

import (
	"testing"
)

func TestValidCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"USD", true},
		{"EUR", true},
		{"AED", true},
		{"US", false},
		{"USDT", false},
		{"", false},
		{"U1D", false},
		{"U D", false},
		{"ЮСД", true},
		{"юсд", true},
		{"ЮС", false},
		{"ЮСДА", false},
		{"us$", false},
	}
	for _, tc := range cases {
		if got := ValidCode(tc.code); got != tc.want {
			t.Errorf("ValidCode(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestCurrenciesKeyboardLayout(t *testing.T) {
	markup := CurrenciesKeyboard([]string{"USD", "EUR", "CNY", "KZT", "KGS"})

	rows := markup.ReplyKeyboard
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4 (three currency rows plus trigger)", len(rows))
	}
	if len(rows[0]) != 2 || rows[0][0].Text != "USD" || rows[0][1].Text != "EUR" {
		t.Errorf("first row = %+v, want USD EUR", rows[0])
	}
	if len(rows[2]) != 1 || rows[2][0].Text != "KGS" {
		t.Errorf("third row = %+v, want KGS alone", rows[2])
	}
	last := rows[len(rows)-1]
	if len(last) != 1 || last[0].Text != ButtonCustomCode {
		t.Errorf("last row = %+v, want the custom code trigger", last)
	}
	if !markup.ResizeKeyboard {
		t.Error("keyboard should request resize")
	}
}

func TestNewHandlersNormalizesCurrencies(t *testing.T) {
	h := NewHandlers(nil, nil, nil, Options{Currencies: []string{" usd ", "eur", "", "CNY"}})
	got := h.Currencies()
	want := []string{"USD", "EUR", "CNY"}
	if len(got) != len(want) {
		t.Fatalf("currencies = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("currencies[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
