package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedRequest(t *testing.T, handler echo.HandlerFunc, remoteAddr, xff string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler(c))
	return rec
}

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	limiter := NewIPRateLimiter(3, time.Minute)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 3; i++ {
		rec := rateLimitedRequest(t, handler, "203.0.113.100:12345", "")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := rateLimitedRequest(t, handler, "203.0.113.100:12345", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_BucketsPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		rec := rateLimitedRequest(t, handler, "203.0.113.100:12345", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// a different client still has a full bucket
	rec := rateLimitedRequest(t, handler, "203.0.113.200:12345", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// the first client's bucket is exhausted
	rec = rateLimitedRequest(t, handler, "203.0.113.100:12345", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_KeysOnForwardedClientBehindProxy(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// two different clients through the same trusted load balancer must not
	// share a bucket
	for i := 0; i < 2; i++ {
		rec := rateLimitedRequest(t, handler, "10.0.0.1:12345", "203.0.113.100")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := rateLimitedRequest(t, handler, "10.0.0.1:12345", "203.0.113.200")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = rateLimitedRequest(t, handler, "10.0.0.1:12345", "203.0.113.100")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_IgnoresSpoofedHeaderFromPublicPeer(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// rotating X-Forwarded-For from an untrusted peer must not reset the
	// bucket: all three land on the real peer address
	rateLimitedRequest(t, handler, "203.0.113.50:12345", "1.2.3.4")
	rateLimitedRequest(t, handler, "203.0.113.50:12345", "5.6.7.8")

	rec := rateLimitedRequest(t, handler, "203.0.113.50:12345", "9.10.11.12")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewIPRateLimiter(5, 10*time.Millisecond)
	handler := limiter.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rateLimitedRequest(t, handler, "203.0.113.100:12345", "")

	limiter.mu.Lock()
	_, exists := limiter.limiters["203.0.113.100"]
	limiter.mu.Unlock()
	assert.True(t, exists)

	// after two idle windows the sweep drops the bucket
	assert.Eventually(t, func() bool {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		_, exists := limiter.limiters["203.0.113.100"]
		return !exists
	}, time.Second, 10*time.Millisecond)
}

func TestNewRateLimiterConfig(t *testing.T) {
	config := NewRateLimiterConfig()

	assert.NotNil(t, config.SurveyCreation)
	assert.NotNil(t, config.VoteSubmission)
	assert.NotNil(t, config.Export)
	assert.NotNil(t, config.GeneralAPI)
}

func TestReadRoutesAreRateLimited(t *testing.T) {
	q := newMockQueries()
	seedSurvey(q)
	e := echo.New()
	SetupRoutes(e, NewHandlers(q, &mockEngine{}), NewHealthHandlers(okPinger{}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys/color-poll", nil)
		req.RemoteAddr = "203.0.113.100:12345"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 60; i++ {
		rec := send()
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
