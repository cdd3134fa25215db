package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applySecurityHeaders(t *testing.T, handler echo.HandlerFunc, mutate func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	return rec, SecurityHeadersMiddleware()(handler)(c)
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestSecurityHeaders(t *testing.T) {
	rec, err := applySecurityHeaders(t, okHandler, nil)
	require.NoError(t, err)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "connect-src 'self'")
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	rec, err := applySecurityHeaders(t, okHandler, func(req *http.Request) {
		req.URL.Scheme = "https"
	})
	require.NoError(t, err)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))

	rec, err = applySecurityHeaders(t, okHandler, nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_SetEvenWhenHandlerErrors(t *testing.T) {
	rec, err := applySecurityHeaders(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	}, nil)
	require.Error(t, err)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestSecurityHeaders_HandlerValueWins(t *testing.T) {
	rec, err := applySecurityHeaders(t, func(c echo.Context) error {
		c.Response().Header().Set("X-Frame-Options", "SAMEORIGIN")
		return c.NoContent(http.StatusOK)
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}
