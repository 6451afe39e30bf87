package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockinsight/pkg/models"
	"github.com/seenimoa/stockinsight/pkg/utils"
)

const klineBody = `{"rc":0,"data":{"code":"002366","market":0,"name":"融发核电","klines":[
"2024-03-04,10.00,10.50,10.80,9.90,123456",
"2024-03-01,9.80,10.00,10.10,9.70,100000",
"bad,row",
"2024-03-05,10.50,10.20,10.60,10.10,98765.0",
"2024-03-05,10.50,10.30,10.60,10.10,98766"
]}}`

func newKlineServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, eastMoneyKLinePath, r.URL.Path)
		assert.Equal(t, eastMoneyReferer, r.Header.Get("Referer"))
		assert.Equal(t, "101", r.URL.Query().Get("klt"))
		assert.Equal(t, "1", r.URL.Query().Get("fqt"))
		w.Write([]byte(body))
	}))
}

func TestEastMoneyDailyBars(t *testing.T) {
	var gotSecID, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecID = r.URL.Query().Get("secid")
		gotLimit = r.URL.Query().Get("lmt")
		w.Write([]byte(klineBody))
	}))
	defer server.Close()

	src := NewEastMoney(WithBaseURL(server.URL))
	bars, err := src.DailyBars(context.Background(), "SZ002366", 120)
	require.NoError(t, err)

	assert.Equal(t, "0.002366", gotSecID)
	assert.Equal(t, "120", gotLimit)

	// Sorted ascending, malformed row skipped, repeated date keeps the last entry.
	require.Len(t, bars, 3)
	assert.Equal(t, "2024-03-01", bars[0].DateKey())
	assert.Equal(t, "2024-03-04", bars[1].DateKey())
	assert.Equal(t, "2024-03-05", bars[2].DateKey())
	assert.Equal(t, "10.3", bars[2].Close.String())
	assert.Equal(t, int64(98766), bars[2].Volume)

	b := bars[1]
	assert.Equal(t, "10", b.Open.String())
	assert.Equal(t, "10.5", b.Close.String())
	assert.Equal(t, "10.8", b.High.String())
	assert.Equal(t, "9.9", b.Low.String())
	assert.Equal(t, int64(123456), b.Volume)
	assert.Equal(t, utils.CST.String(), b.Date.Location().String())
}

func TestEastMoneyRequestShape(t *testing.T) {
	server := newKlineServer(t, klineBody, nil)
	defer server.Close()

	_, err := NewEastMoney(WithBaseURL(server.URL+"/")).DailyBars(context.Background(), "600519", 5000)
	require.NoError(t, err)
}

func TestEastMoneySecIDAndCap(t *testing.T) {
	var secid, limit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secid, limit = r.URL.Query().Get("secid"), r.URL.Query().Get("lmt")
		w.Write([]byte(klineBody))
	}))
	defer server.Close()

	_, err := NewEastMoney(WithBaseURL(server.URL)).DailyBars(context.Background(), "sh600519", 5000)
	require.NoError(t, err)
	assert.Equal(t, "1.600519", secid)
	assert.Equal(t, "1000", limit)
}

func TestEastMoneyNoData(t *testing.T) {
	for _, body := range []string{
		`{"rc":0,"data":null}`,
		`{"rc":0,"data":{"klines":[]}}`,
		`{"rc":0,"data":{"klines":["garbage"]}}`,
		``,
	} {
		server := newKlineServer(t, body, nil)
		_, err := NewEastMoney(WithBaseURL(server.URL)).DailyBars(context.Background(), "000001", 10)
		server.Close()
		assert.ErrorIs(t, err, ErrNoData, body)
	}
}

func TestEastMoneyHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewEastMoney(WithBaseURL(server.URL)).DailyBars(context.Background(), "000001", 10)
	var httpErr *ErrHTTP
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "blocked")
}

func TestEastMoneyInvalidInput(t *testing.T) {
	src := NewEastMoney()
	_, err := src.DailyBars(context.Background(), "NOTACODE", 10)
	assert.ErrorIs(t, err, utils.ErrInvalidCode)

	_, err = src.DailyBars(context.Background(), "600519", 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestEastMoneyOptions(t *testing.T) {
	src := NewEastMoney(WithTimeout(3*time.Second), WithBaseURL(""))
	assert.Equal(t, DefaultEastMoneyBaseURL, src.baseURL)
	assert.Equal(t, 3*time.Second, src.client.Timeout)
	assert.Equal(t, "EastMoney", src.Name())

	custom := &http.Client{}
	assert.Same(t, custom, NewEastMoney(WithHTTPClient(custom)).client)
}

func TestCachedProvider(t *testing.T) {
	var hits int32
	server := newKlineServer(t, klineBody, &hits)
	defer server.Close()

	src := NewCached(NewEastMoney(WithBaseURL(server.URL)), time.Minute)
	assert.Equal(t, "EastMoney (cached)", src.Name())

	ctx := context.Background()
	first, err := src.DailyBars(ctx, "SZ002366", 120)
	require.NoError(t, err)
	second, err := src.DailyBars(ctx, "002366", 120)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "normalized code shares the cache entry")

	_, err = src.DailyBars(ctx, "002366", 60)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits), "count is part of the key")
}

func TestCachedDisabled(t *testing.T) {
	inner := NewEastMoney()
	assert.Same(t, inner, NewCached(inner, 0))
}

type failingProvider struct{ calls int }

func (f *failingProvider) Name() string { return "failing" }

func (f *failingProvider) DailyBars(context.Context, string, int) ([]models.DailyBar, error) {
	f.calls++
	return nil, ErrNoData
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	inner := &failingProvider{}
	src := NewCached(inner, time.Minute)
	for i := 0; i < 2; i++ {
		_, err := src.DailyBars(context.Background(), "000001", 10)
		assert.ErrorIs(t, err, ErrNoData)
	}
	assert.Equal(t, 2, inner.calls)
}

type stubProvider struct{ calls int }

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) DailyBars(context.Context, string, int) ([]models.DailyBar, error) {
	s.calls++
	return []models.DailyBar{{Volume: int64(s.calls)}}, nil
}

func TestCachedEvictsExpiredEntries(t *testing.T) {
	inner := &stubProvider{}
	src := NewCached(inner, time.Millisecond).(*Cached)
	ctx := context.Background()

	for _, code := range []string{"000001", "000002", "600519"} {
		_, err := src.DailyBars(ctx, code, 10)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 1, src.cache.Len(), "expired entries are dropped on the next store")
}
