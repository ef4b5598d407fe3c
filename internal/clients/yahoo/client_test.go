package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunmehra/folio/internal/cache"
)

func chartBody(price float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%g}}],"error":null}}`, price)
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New(0)
	t.Cleanup(c.Close)
	return c
}

func TestFetchBatchSuccess(t *testing.T) {
	prices := map[string]float64{"AAPL": 182.5, "MSFT": 410.0}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		price, ok := prices[symbol]
		require.True(t, ok, "unexpected symbol %s", symbol)
		fmt.Fprint(w, chartBody(price))
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute, WithBaseURL(srv.URL))

	results := client.FetchBatch(context.Background(), []string{"AAPL", "MSFT"})

	require.Len(t, results, 2)
	require.NotNil(t, results["AAPL"])
	assert.Equal(t, 182.5, *results["AAPL"])
	require.NotNil(t, results["MSFT"])
	assert.Equal(t, 410.0, *results["MSFT"])
}

func TestFetchBatchPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		if symbol == "BAD" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, chartBody(100))
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute,
		WithBaseURL(srv.URL),
		WithRetries(0),
	)

	results := client.FetchBatch(context.Background(), []string{"GOOD", "BAD"})

	require.Len(t, results, 2)
	require.NotNil(t, results["GOOD"], "one symbol's failure must not abort the batch")
	assert.Equal(t, 100.0, *results["GOOD"])
	assert.Nil(t, results["BAD"])
}

func TestFetchBatchRetriesThenAbandons(t *testing.T) {
	var attempts atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute,
		WithBaseURL(srv.URL),
		WithRetries(2),
		WithBackoffUnit(time.Millisecond),
	)

	results := client.FetchBatch(context.Background(), []string{"AAPL"})

	assert.Nil(t, results["AAPL"], "symbol abandons to nil after final failure")
	assert.Equal(t, int64(3), attempts.Load(), "initial attempt plus 2 retries")
}

func TestFetchBatchRecoversOnRetry(t *testing.T) {
	var attempts atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chartBody(55.5))
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute,
		WithBaseURL(srv.URL),
		WithRetries(2),
		WithBackoffUnit(time.Millisecond),
	)

	results := client.FetchBatch(context.Background(), []string{"AAPL"})

	require.NotNil(t, results["AAPL"])
	assert.Equal(t, 55.5, *results["AAPL"])
	assert.Equal(t, int64(2), attempts.Load())
}

func TestFetchBatchServesFromCache(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, chartBody(77))
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute, WithBaseURL(srv.URL))

	first := client.FetchBatch(context.Background(), []string{"AAPL"})
	require.NotNil(t, first["AAPL"])

	second := client.FetchBatch(context.Background(), []string{"AAPL"})
	require.NotNil(t, second["AAPL"])
	assert.Equal(t, 77.0, *second["AAPL"])

	assert.Equal(t, int64(1), requests.Load(), "second batch within TTL must skip the network")
}

func TestFetchBatchFailureIsNotCached(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chartBody(88))
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute,
		WithBaseURL(srv.URL),
		WithRetries(0),
	)

	first := client.FetchBatch(context.Background(), []string{"AAPL"})
	assert.Nil(t, first["AAPL"])

	second := client.FetchBatch(context.Background(), []string{"AAPL"})
	require.NotNil(t, second["AAPL"], "a failed symbol must be retried on the next batch")
	assert.Equal(t, 88.0, *second["AAPL"])
}

func TestFetchBatchMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":"no data"}}`)
	}))
	defer srv.Close()

	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute,
		WithBaseURL(srv.URL),
		WithRetries(0),
	)

	results := client.FetchBatch(context.Background(), []string{"AAPL"})
	assert.Nil(t, results["AAPL"])
}

func TestFetchBatchEmpty(t *testing.T) {
	quotes := newTestCache(t)
	client := NewClient(quotes, time.Minute)

	results := client.FetchBatch(context.Background(), nil)
	assert.Empty(t, results)
}
