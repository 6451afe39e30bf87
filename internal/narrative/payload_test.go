package narrative

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockinsight/internal/analysis/technical"
	"github.com/seenimoa/stockinsight/pkg/models"
)

// barsFromCloses builds a daily history with the given closes; the other prices are
// derived from the close.
func barsFromCloses(closes ...string) []models.DailyBar {
	bars := make([]models.DailyBar, len(closes))
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		cl := decimal.RequireFromString(c)
		bars[i] = models.DailyBar{
			Date:   day.AddDate(0, 0, i),
			Open:   cl.Sub(decimal.NewFromFloat(0.5)),
			High:   cl.Add(decimal.NewFromInt(1)),
			Low:    cl.Sub(decimal.NewFromInt(1)),
			Close:  cl,
			Volume: 1_000_000 + int64(i)*1000,
		}
	}
	return bars
}

func trendingBars(n int) []models.DailyBar {
	closes := make([]string, n)
	for i := range closes {
		closes[i] = decimal.NewFromFloat(20 + float64(i)*0.25).String()
	}
	return barsFromCloses(closes...)
}

func TestBuildPayloadStructure(t *testing.T) {
	bars := trendingBars(120)
	out, err := Build(bars, technical.Compute(bars))
	require.NoError(t, err)

	require.True(t, gjson.Valid(out))
	assert.True(t, strings.HasPrefix(out, "{\n  \"历史数据\": {\n    \""), "two-space indent")
	assert.False(t, strings.HasSuffix(out, "\n"))

	hist := strings.Index(out, `"历史数据"`)
	ind := strings.Index(out, `"技术指标"`)
	trend := strings.Index(out, `"市场趋势"`)
	assert.True(t, hist < ind && ind < trend, "top-level key order")

	doc := gjson.Parse(out)
	history := doc.Get("历史数据").Map()
	indicators := doc.Get("技术指标").Map()
	assert.Len(t, history, 90) // 60 recent + 30 sampled from 60 older
	assert.Len(t, indicators, 90)

	first := bars[0].DateKey()
	assert.Equal(t, "20.00", doc.Get("历史数据."+first+".收盘价").String())
	assert.Equal(t, "1,000,000", doc.Get("历史数据."+first+".成交量").String())
	assert.False(t, doc.Get("历史数据."+bars[1].DateKey()).Exists(), "odd older rows are skipped")
	assert.True(t, doc.Get("历史数据."+bars[61].DateKey()).Exists(), "recent window is complete")

	// Undefined indicator values render as nan.
	assert.Equal(t, "nan", doc.Get("技术指标."+first+".趋势指标.MA60").String())
	assert.Equal(t, "50.00", doc.Get("技术指标."+first+".摆动指标.RSI").String())
	last := bars[119].DateKey()
	assert.NotEqual(t, "nan", doc.Get("技术指标."+last+".趋势指标.MA60").String())
	for _, group := range []string{"趋势指标", "摆动指标", "布林带", "动向指标", "成交量指标", "动量指标", "其他指标"} {
		assert.True(t, doc.Get("技术指标."+last+"."+group).IsObject(), group)
	}
}

func TestBuildPayloadDatesChronological(t *testing.T) {
	bars := trendingBars(80)
	out, err := Build(bars, technical.Compute(bars))
	require.NoError(t, err)

	var keys []string
	gjson.Get(out, "历史数据").ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i])
	}
}

func TestMarketTrendShortHistory(t *testing.T) {
	bars := barsFromCloses("10", "11", "12.1")
	p, err := BuildPayload(bars, technical.Compute(bars))
	require.NoError(t, err)

	// Fewer than six rows: weekly and monthly fall back to the previous close.
	assert.Equal(t, "10.00%", p.Trend.Daily)
	assert.Equal(t, "10.00%", p.Trend.Weekly)
	assert.Equal(t, "10.00%", p.Trend.Monthly)
	assert.Equal(t, "12.10", p.Trend.Latest)
	assert.Equal(t, "13.10", p.Trend.High)
	assert.Equal(t, "9.00", p.Trend.Low)
	assert.Equal(t, "1,001,000", p.Trend.AvgVolume)
}

func TestMarketTrendLookbacks(t *testing.T) {
	closes := make([]string, 25)
	for i := range closes {
		closes[i] = "10"
	}
	closes[4] = "8"   // monthly base: 21st row from the end
	closes[19] = "16" // weekly base: 6th row from the end
	closes[23] = "19" // previous close
	closes[24] = "20"
	bars := barsFromCloses(closes...)

	p, err := BuildPayload(bars, technical.Compute(bars))
	require.NoError(t, err)
	assert.Equal(t, "5.26%", p.Trend.Daily)
	assert.Equal(t, "25.00%", p.Trend.Weekly)
	assert.Equal(t, "150.00%", p.Trend.Monthly)
}

func TestBuildPayloadDegenerate(t *testing.T) {
	one := barsFromCloses("10")
	_, err := BuildPayload(one, technical.Compute(one))
	assert.ErrorIs(t, err, models.ErrDegenerateInput)

	zero := barsFromCloses("10", "0", "11")
	_, err = BuildPayload(zero, technical.Compute(zero))
	assert.ErrorIs(t, err, models.ErrDegenerateInput)

	bars := barsFromCloses("10", "11", "12")
	_, err = BuildPayload(bars, technical.Compute(bars[:2]))
	assert.ErrorIs(t, err, models.ErrDegenerateInput)

	_, err = Build(bars, nil)
	assert.ErrorIs(t, err, models.ErrDegenerateInput)
}

func TestPayloadEncodeNoHTMLEscape(t *testing.T) {
	bars := barsFromCloses("10", "11")
	out, err := Build(bars, technical.Compute(bars))
	require.NoError(t, err)
	assert.Contains(t, out, "开盘价")
	assert.NotContains(t, out, `\u`)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded, 3)
}
