// Package datasource fetches daily price history for A-share instruments.
// It defines the HistoryProvider interface, an EastMoney kline adapter and a
// caching decorator.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/seenimoa/stockinsight/pkg/models"
)

// HistoryProvider returns the most recent count daily bars for an instrument,
// ordered oldest first with unique dates. At least one bar is returned on success.
type HistoryProvider interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// DailyBars fetches up to count forward-adjusted daily bars for code.
	DailyBars(ctx context.Context, code string, count int) ([]models.DailyBar, error)
}

// --- Sentinel errors ---

// ErrNoData is returned when the source has no bars for the instrument.
var ErrNoData = errors.New("no data returned by data source")

// ErrInvalidCount is returned for a non-positive bar count.
var ErrInvalidCount = errors.New("bar count must be positive")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// doGet performs a GET request and returns the full response body. Responses
// with status >= 400 become *ErrHTTP.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	// Override/add custom headers.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
