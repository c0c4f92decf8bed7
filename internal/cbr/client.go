// Package cbr fetches official exchange rates from the Bank of Russia
// daily XML feed.
package cbr

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/kursbot/core/logger"
	"github.com/m3rciful/kursbot/internal/metrics"
	"log/slog"

	"golang.org/x/text/encoding/charmap"
)

// DefaultFeedURL is the daily rates endpoint of the Bank of Russia.
const DefaultFeedURL = "https://www.cbr.ru/scripts/XML_daily.asp"

const requestTimeout = 10 * time.Second

// ErrNotFound indicates the feed answered but carries no entry for the code.
var ErrNotFound = errors.New("currency code not found in feed")

// FetchError wraps transport, HTTP status and decode failures so callers can
// distinguish feed unavailability from an unknown currency code.
type FetchError struct {
	Stage string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("rate feed %s failed: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Code returns a stable identifier used in handler summary logs.
func (e *FetchError) Code() string { return "CBR_FETCH" }

// Quote is a single currency entry from the daily feed.
type Quote struct {
	Code    string
	Name    string
	Nominal int
	Value   float64
}

type feedDocument struct {
	XMLName xml.Name    `xml:"ValCurs"`
	Date    string      `xml:"Date,attr"`
	Entries []feedEntry `xml:"Valute"`
}

type feedEntry struct {
	CharCode string `xml:"CharCode"`
	Name     string `xml:"Name"`
	Nominal  int    `xml:"Nominal"`
	Value    string `xml:"Value"`
}

// Client queries the daily feed over HTTP.
type Client struct {
	url     string
	httpc   *http.Client
	metrics *metrics.Metrics
}

// Option customizes the Client.
type Option func(*Client)

// WithURL overrides the feed endpoint, mainly for tests.
func WithURL(url string) Option {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.url = url
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// NewClient builds a feed client with the default endpoint and request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url: DefaultFeedURL,
		httpc: &http.Client{
			Timeout: requestTimeout,
		},
		metrics: metrics.Registry("kursbot"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rate fetches the current quote for a currency code. The code is matched
// case-insensitively. ErrNotFound is returned when the feed has no such
// code; any other failure is reported as a *FetchError.
func (c *Client) Rate(ctx context.Context, code string) (Quote, error) {
	start := time.Now()
	q, err := c.rate(ctx, code)
	took := time.Since(start)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		var fe *FetchError
		if errors.As(err, &fe) {
			outcome = fe.Stage + "_error"
		} else {
			outcome = "error"
		}
	}
	c.metrics.RateLookups.WithLabelValues(outcome).Inc()
	c.metrics.RateLatency.WithLabelValues(outcome).Observe(took.Seconds())

	if err != nil && !errors.Is(err, ErrNotFound) {
		logger.CBR.Warn("rate fetch failed",
			slog.String("event", "fetch"),
			slog.String("code", strings.ToUpper(strings.TrimSpace(code))),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return q, err
	}

	if logger.ShouldSampleDebug() {
		attrs := []slog.Attr{
			slog.String("status", outcome),
			slog.String("code", strings.ToUpper(strings.TrimSpace(code))),
			slog.Int64("duration_ms", logger.RoundMS(took).Milliseconds()),
		}
		if err == nil {
			attrs = append(attrs,
				slog.Int("nominal", q.Nominal),
				slog.Float64("value", q.Value),
			)
		}
		logger.CBR.LogAttrs(ctx, slog.LevelDebug, "rate fetched", attrs...)
	}
	return q, err
}

func (c *Client) rate(ctx context.Context, code string) (Quote, error) {
	want := strings.ToUpper(strings.TrimSpace(code))
	if want == "" {
		return Quote{}, ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Quote{}, &FetchError{Stage: "network", Err: err}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Quote{}, &FetchError{Stage: "network", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Quote{}, &FetchError{Stage: "http", Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	doc, err := decodeFeed(resp.Body)
	if err != nil {
		return Quote{}, &FetchError{Stage: "parse", Err: err}
	}

	for _, entry := range doc.Entries {
		if strings.ToUpper(entry.CharCode) != want {
			continue
		}
		value, err := parseFeedValue(entry.Value)
		if err != nil {
			return Quote{}, &FetchError{Stage: "parse", Err: fmt.Errorf("bad value for %s: %w", want, err)}
		}
		if entry.Nominal <= 0 {
			return Quote{}, &FetchError{Stage: "parse", Err: fmt.Errorf("missing nominal for %s", want)}
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return Quote{}, &FetchError{Stage: "parse", Err: fmt.Errorf("missing name for %s", want)}
		}
		return Quote{
			Code:    want,
			Name:    name,
			Nominal: entry.Nominal,
			Value:   value,
		}, nil
	}

	return Quote{}, ErrNotFound
}

func decodeFeed(r io.Reader) (*feedDocument, error) {
	dec := xml.NewDecoder(r)
	// The feed declares windows-1251.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "windows-1251", "cp1251":
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		case "utf-8", "":
			return input, nil
		default:
			return nil, fmt.Errorf("unsupported charset: %s", charset)
		}
	}
	var doc feedDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// parseFeedValue parses the feed's decimal notation, which uses a comma
// as the decimal separator.
func parseFeedValue(raw string) (float64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
