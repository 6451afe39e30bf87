package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

const (
	// DefaultEastMoneyBaseURL serves the historical kline endpoint.
	DefaultEastMoneyBaseURL = "https://push2his.eastmoney.com"

	eastMoneyKLinePath = "/api/qt/stock/kline/get"
	eastMoneyReferer   = "https://quote.eastmoney.com/"

	// MaxBars is the largest history one request returns.
	MaxBars = 1000
)

// EastMoney fetches forward-adjusted daily klines from EastMoney.
type EastMoney struct {
	baseURL string
	client  *http.Client
}

// EastMoneyOption configures the EastMoney source.
type EastMoneyOption func(*EastMoney)

// WithBaseURL overrides the endpoint host (e.g., a test server).
func WithBaseURL(url string) EastMoneyOption {
	return func(e *EastMoney) {
		if url != "" {
			e.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) EastMoneyOption {
	return func(e *EastMoney) { e.client = client }
}

// WithTimeout sets the request timeout of the default client.
func WithTimeout(d time.Duration) EastMoneyOption {
	return func(e *EastMoney) {
		if d > 0 {
			e.client = &http.Client{Timeout: d}
		}
	}
}

// NewEastMoney creates an EastMoney source.
func NewEastMoney(opts ...EastMoneyOption) *EastMoney {
	e := &EastMoney{
		baseURL: DefaultEastMoneyBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *EastMoney) Name() string { return "EastMoney" }

// DailyBars fetches up to count daily bars (capped at MaxBars) for codes such
// as "SZ002366", "sh600519" or "600519".
func (e *EastMoney) DailyBars(ctx context.Context, code string, count int) ([]models.DailyBar, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	secid, err := utils.SecID(code)
	if err != nil {
		return nil, err
	}
	if count > MaxBars {
		count = MaxBars
	}

	url := fmt.Sprintf("%s%s?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56&klt=101&fqt=1&lmt=%d",
		e.baseURL, eastMoneyKLinePath, secid, count)
	body, err := doGet(ctx, e.client, url, map[string]string{"Referer": eastMoneyReferer})
	if err != nil {
		return nil, fmt.Errorf("eastmoney %s: %w", code, err)
	}
	return parseKlines(body, code)
}

// parseKlines decodes data.klines, where each entry is
// "date,open,close,high,low,volume". Malformed rows are skipped.
func parseKlines(body []byte, code string) ([]models.DailyBar, error) {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.IsArray() {
		return nil, fmt.Errorf("%w: no data.klines for %s", ErrNoData, code)
	}

	var bars []models.DailyBar
	klines.ForEach(func(_, v gjson.Result) bool {
		if bar, ok := parseKline(v.String()); ok {
			bars = append(bars, bar)
		}
		return true
	})
	bars = sortUnique(bars)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no klines for %s", ErrNoData, code)
	}
	return bars, nil
}

func parseKline(s string) (models.DailyBar, bool) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) < 6 {
		return models.DailyBar{}, false
	}
	date, err := utils.ParseDateCST(parts[0])
	if err != nil {
		return models.DailyBar{}, false
	}
	var prices [4]decimal.Decimal
	for i := range prices {
		d, err := decimal.NewFromString(strings.TrimSpace(parts[i+1]))
		if err != nil {
			return models.DailyBar{}, false
		}
		prices[i] = d
	}
	vol, err := decimal.NewFromString(strings.TrimSpace(parts[5]))
	if err != nil {
		return models.DailyBar{}, false
	}
	return models.DailyBar{
		Date:   date,
		Open:   prices[0],
		Close:  prices[1],
		High:   prices[2],
		Low:    prices[3],
		Volume: vol.IntPart(),
	}, true
}

// sortUnique orders bars by date and keeps the last bar of any repeated date.
func sortUnique(bars []models.DailyBar) []models.DailyBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
