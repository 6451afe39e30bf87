package infra

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/seenimoa/stockinsight/internal/config"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache[[]int](time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", []int{1, 2})
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewCache[string](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Cleanup()
	assert.Zero(t, c.Len())
}

func TestRateLimiterUnlimited(t *testing.T) {
	rl := NewRateLimiter(0)
	assert.Nil(t, rl)
	assert.NoError(t, rl.Wait(context.Background()))
	assert.Equal(t, rate.Inf, rl.Limit())
}

func TestRateLimiterPacing(t *testing.T) {
	rl := NewRateLimiter(60)
	require.NotNil(t, rl)
	assert.InDelta(t, 1.0, float64(rl.Limit()), 1e-9)

	// The first token is immediate; the second cannot arrive before the deadline.
	require.NoError(t, rl.Wait(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("code", "600519").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", gjson.GetBytes(lines[0], "level").String())
	assert.Equal(t, "600519", gjson.GetBytes(lines[0], "code").String())
	assert.Equal(t, "shown", gjson.GetBytes(lines[0], "message").String())
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggingConfig{Level: "bogus", Format: "text"}, &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("code", "000001").Msg("fetched")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "fetched")
	assert.Contains(t, out, "code=000001")
	assert.False(t, gjson.Valid(out))
}
