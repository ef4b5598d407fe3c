package googlefin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunmehra/folio/internal/cache"
)

// quotePage builds a minimal Google Finance quote page with the given
// stats rows.
func quotePage(rows ...[2]string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><main>`)
	for _, row := range rows {
		fmt.Fprintf(&sb,
			`<div class="gyFHrc"><div class="mfs7Fc">%s</div><div class="P6K39c">%s</div></div>`,
			row[0], row[1])
	}
	sb.WriteString(`</main></body></html>`)
	return sb.String()
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New(0)
	t.Cleanup(c.Close)
	return c
}

func TestFetchOneExtractsPERatio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/quote/"))
		fmt.Fprint(w, quotePage(
			[2]string{"Market cap", "12.04T INR"},
			[2]string{"P/E ratio", "28.91"},
			[2]string{"Dividend yield", "1.10%"},
		))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	result := client.FetchOne(context.Background(), "NSE:HDFCBANK")

	require.NotNil(t, result.PERatio)
	assert.Equal(t, 28.91, *result.PERatio)
}

func TestFetchOneStripsThousandsSeparators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotePage([2]string{"P/E ratio", "1,204.50"}))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	result := client.FetchOne(context.Background(), "NSE:MRF")

	require.NotNil(t, result.PERatio)
	assert.Equal(t, 1204.50, *result.PERatio)
}

func TestFetchOneMissingRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotePage([2]string{"Market cap", "500B INR"}))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	result := client.FetchOne(context.Background(), "NSE:SUZLON")
	assert.Nil(t, result.PERatio, "page without a P/E row is confirmed absent, not an error")
}

func TestFetchOneMalformedValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quotePage([2]string{"P/E ratio", "—"}))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	result := client.FetchOne(context.Background(), "NSE:X")
	assert.Nil(t, result.PERatio)
}

func TestFetchOneTransportErrorYieldsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	// Must not panic or surface an error in any form.
	result := client.FetchOne(context.Background(), "NSE:X")
	assert.Nil(t, result.PERatio)
}

func TestFetchOneUnreachableHost(t *testing.T) {
	client := NewClient(newTestCache(t), WithBaseURL("http://127.0.0.1:1"))

	result := client.FetchOne(context.Background(), "NSE:X")
	assert.Nil(t, result.PERatio)
}

func TestFetchOneCachesResult(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, quotePage([2]string{"P/E ratio", "22.10"}))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	first := client.FetchOne(context.Background(), "NSE:INFY")
	require.NotNil(t, first.PERatio)

	second := client.FetchOne(context.Background(), "NSE:INFY")
	require.NotNil(t, second.PERatio)
	assert.Equal(t, 22.10, *second.PERatio)

	assert.Equal(t, int64(1), requests.Load(), "repeat fetch within TTL must be served from cache")
}

func TestFetchOneCachesConfirmedAbsent(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, quotePage([2]string{"Market cap", "1B INR"}))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	client.FetchOne(context.Background(), "NSE:X")
	client.FetchOne(context.Background(), "NSE:X")

	assert.Equal(t, int64(1), requests.Load(), "confirmed-absent results are cached too")
}

func TestFetchOneTransportErrorIsNotCached(t *testing.T) {
	var requests atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, quotePage([2]string{"P/E ratio", "15.00"}))
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	first := client.FetchOne(context.Background(), "NSE:X")
	assert.Nil(t, first.PERatio)

	second := client.FetchOne(context.Background(), "NSE:X")
	require.NotNil(t, second.PERatio, "transport failures must be retried on the next call")
	assert.Equal(t, 15.0, *second.PERatio)
}

func TestExtractPERatioNestedMarkup(t *testing.T) {
	// Real pages nest spans inside the value cell.
	page := `<html><body>
	<div class="gyFHrc"><div class="mfs7Fc"><span>P/E ratio</span></div><div class="P6K39c"><span>31</span><span>.25</span></div></div>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	client := NewClient(newTestCache(t), WithBaseURL(srv.URL))

	result := client.FetchOne(context.Background(), "NSE:X")
	require.NotNil(t, result.PERatio)
	assert.Equal(t, 31.25, *result.PERatio)
}
