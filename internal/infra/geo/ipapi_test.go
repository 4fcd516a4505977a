package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelaudit/internal/app/policies"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, timeout, 8, nil)
	require.NoError(t, err)
	return c, &hits
}

func TestClient_ResolvePublicIPAndCache(t *testing.T) {
	var outcomes []string
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"8.8.8.8","currency":"EUR"}`))
	}, time.Second)
	c.Observe = func(o string) { outcomes = append(outcomes, o) }

	loc, err := c.Resolve(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, policies.Locale{Currency: "EUR", Symbol: "€"}, loc)

	loc, err = c.Resolve(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "EUR", loc.Currency)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, []string{OutcomeOK, OutcomeHit}, outcomes)
}

func TestClient_PrivateAddressUsesSelfLookup(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/", r.URL.Path)
		_, _ = w.Write([]byte(`{"currency":"GBP"}`))
	}, time.Second)

	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "", "not-an-ip"} {
		loc, err := c.Resolve(context.Background(), ip)
		require.NoError(t, err, ip)
		assert.Equal(t, "£", loc.Symbol, ip)
	}
}

func TestClient_UnmappedCurrencyFallsBackToDollar(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"currency":"SEK"}`))
	}, time.Second)

	loc, err := c.Resolve(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, policies.Locale{Currency: "SEK", Symbol: "$"}, loc)
}

func TestClient_MissingCurrencyIsDefault(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"1.1.1.1"}`))
	}, time.Second)

	loc, err := c.Resolve(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, policies.DefaultLocale, loc)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
			},
		},
		{
			name: "error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":true,"reason":"Reserved IP Address"}`))
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"currency":`))
			},
		},
		{
			name: "slow upstream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler, 50*time.Millisecond)
			var outcome string
			c.Observe = func(o string) { outcome = o }

			loc, err := c.Resolve(context.Background(), "9.9.9.9")
			assert.ErrorIs(t, err, ErrLookupFailed)
			assert.Equal(t, policies.DefaultLocale, loc)
			assert.Equal(t, OutcomeError, outcome)
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	var c *Client
	loc, err := c.Resolve(context.Background(), "9.9.9.9")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, policies.DefaultLocale, loc)
}
