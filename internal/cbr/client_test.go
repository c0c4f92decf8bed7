package cbr

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<ValCurs Date="02.03.2025" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode>
    <CharCode>USD</CharCode>
    <Nominal>1</Nominal>
    <Name>Доллар США</Name>
    <Value>92,5058</Value>
  </Valute>
  <Valute ID="R01239">
    <NumCode>978</NumCode>
    <CharCode>EUR</CharCode>
    <Nominal>1</Nominal>
    <Name>Евро</Name>
    <Value>100,2437</Value>
  </Valute>
  <Valute ID="R01820">
    <NumCode>392</NumCode>
    <CharCode>JPY</CharCode>
    <Nominal>100</Nominal>
    <Name>Японских иен</Name>
    <Value>61,9065</Value>
  </Valute>
</ValCurs>`

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
}

func TestRateFindsCode(t *testing.T) {
	srv := feedServer(t, feedFixture)
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	q, err := client.Rate(context.Background(), "USD")
	if err != nil {
		t.Fatalf("Rate(USD) error: %v", err)
	}
	if q.Code != "USD" {
		t.Errorf("code = %q, want USD", q.Code)
	}
	if q.Name != "Доллар США" {
		t.Errorf("name = %q, want Доллар США", q.Name)
	}
	if q.Nominal != 1 {
		t.Errorf("nominal = %d, want 1", q.Nominal)
	}
	if q.Value != 92.5058 {
		t.Errorf("value = %v, want 92.5058", q.Value)
	}
}

func TestRateMatchesCaseInsensitive(t *testing.T) {
	srv := feedServer(t, feedFixture)
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	q, err := client.Rate(context.Background(), "jpy")
	if err != nil {
		t.Fatalf("Rate(jpy) error: %v", err)
	}
	if q.Code != "JPY" {
		t.Errorf("code = %q, want JPY", q.Code)
	}
	if q.Nominal != 100 {
		t.Errorf("nominal = %d, want 100", q.Nominal)
	}
}

func TestRateUnknownCode(t *testing.T) {
	srv := feedServer(t, feedFixture)
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	_, err := client.Rate(context.Background(), "GBP")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Rate(GBP) error = %v, want ErrNotFound", err)
	}
}

func TestRateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	_, err := client.Rate(context.Background(), "USD")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Stage != "http" {
		t.Errorf("stage = %q, want http", fe.Stage)
	}
	if fe.Code() != "CBR_FETCH" {
		t.Errorf("Code() = %q, want CBR_FETCH", fe.Code())
	}
}

func TestRateMalformedFeed(t *testing.T) {
	srv := feedServer(t, "<ValCurs><Valute>")
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	_, err := client.Rate(context.Background(), "USD")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Stage != "parse" {
		t.Errorf("stage = %q, want parse", fe.Stage)
	}
}

func TestRateMissingNominal(t *testing.T) {
	fixture := `<?xml version="1.0" encoding="UTF-8"?>
<ValCurs Date="02.03.2025" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode>
    <CharCode>USD</CharCode>
    <Name>Доллар США</Name>
    <Value>92,5058</Value>
  </Valute>
</ValCurs>`
	srv := feedServer(t, fixture)
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	_, err := client.Rate(context.Background(), "USD")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Stage != "parse" {
		t.Errorf("stage = %q, want parse", fe.Stage)
	}
}

func TestRateMissingName(t *testing.T) {
	fixture := `<?xml version="1.0" encoding="UTF-8"?>
<ValCurs Date="02.03.2025" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode>
    <CharCode>USD</CharCode>
    <Nominal>1</Nominal>
    <Value>92,5058</Value>
  </Valute>
</ValCurs>`
	srv := feedServer(t, fixture)
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	_, err := client.Rate(context.Background(), "USD")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Stage != "parse" {
		t.Errorf("stage = %q, want parse", fe.Stage)
	}
}

func TestRateNetworkError(t *testing.T) {
	srv := feedServer(t, feedFixture)
	srv.Close()

	client := NewClient(WithURL(srv.URL))
	_, err := client.Rate(context.Background(), "USD")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.Stage != "network" {
		t.Errorf("stage = %q, want network", fe.Stage)
	}
}

func TestRateWindows1251Feed(t *testing.T) {
	raw := `<?xml version="1.0" encoding="windows-1251"?>
<ValCurs Date="02.03.2025" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode>
    <CharCode>USD</CharCode>
    <Nominal>1</Nominal>
    <Name>Доллар США</Name>
    <Value>92,5058</Value>
  </Valute>
</ValCurs>`

	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte(raw))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml; charset=windows-1251")
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	client := NewClient(WithURL(srv.URL))
	q, err := client.Rate(context.Background(), "usd")
	if err != nil {
		t.Fatalf("Rate(usd) error: %v", err)
	}
	if q.Name != "Доллар США" {
		t.Errorf("name = %q, want Доллар США", q.Name)
	}
	if !bytes.Equal([]byte(q.Code), []byte("USD")) {
		t.Errorf("code = %q, want USD", q.Code)
	}
}

func TestParseFeedValue(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"92,5058", 92.5058, true},
		{"100.25", 100.25, true},
		{" 61,9065 ", 61.9065, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := parseFeedValue(tc.raw)
		if tc.ok && err != nil {
			t.Errorf("parseFeedValue(%q) error: %v", tc.raw, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("parseFeedValue(%q) expected error", tc.raw)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("parseFeedValue(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
