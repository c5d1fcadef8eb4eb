package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segfal/Lockdin/internal/shared/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewLocal(time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "a", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := l.Allow(ctx, "a", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "b", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "keys have separate budgets")
}

func TestLocalLimiterZeroLimit(t *testing.T) {
	ok, err := NewLocal(0).Allow(context.Background(), "a", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

type stubLimiter struct {
	ok  bool
	err error
	got string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int64, _ time.Duration) (bool, error) {
	s.got = key
	return s.ok, s.err
}

func TestLimitHTTP(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	byHeader := func(r *http.Request) string { return r.Header.Get("X-Client") }

	tests := []struct {
		name       string
		limiter    *stubLimiter
		client     string
		wantCode   int
		wantReason string
	}{
		{"allowed", &stubLimiter{ok: true}, "c1", http.StatusNoContent, ""},
		{"limited", &stubLimiter{ok: false}, "c1", http.StatusTooManyRequests, "rate_limited"},
		{"limiter error", &stubLimiter{err: assert.AnError}, "c1", http.StatusTooManyRequests, "rate_limiter_error"},
		{"no client", &stubLimiter{ok: true}, "", http.StatusBadRequest, "missing_client"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := LimitHTTP(tt.limiter, 5, time.Minute, byHeader, next)
			req := httptest.NewRequest(http.MethodPost, "/feed/posts/1/like", nil)
			if tt.client != "" {
				req.Header.Set("X-Client", tt.client)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantReason != "" {
				var apiErr httpx.APIError
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
				assert.Equal(t, tt.wantReason, apiErr.Reason)
			}
			if tt.client != "" {
				assert.Equal(t, tt.client, tt.limiter.got)
			}
		})
	}
}

func TestLimitHTTPWithLocalLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := LimitHTTP(NewLocal(time.Minute), 2, time.Minute, httpx.ClientIP, next)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
