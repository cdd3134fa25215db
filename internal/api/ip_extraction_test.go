package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func clientIPFor(remoteAddr, xff string) string {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return getClientIP(c)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		expected   string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.100:12345",
			expected:   "203.0.113.100",
		},
		{
			name:       "spoofed header from public peer is ignored",
			remoteAddr: "203.0.113.100:12345",
			xff:        "1.2.3.4, 5.6.7.8",
			expected:   "203.0.113.100",
		},
		{
			name:       "spoofed localhost from public peer is ignored",
			remoteAddr: "203.0.113.50:12345",
			xff:        "127.0.0.1",
			expected:   "203.0.113.50",
		},
		{
			name:       "header honored behind private proxy",
			remoteAddr: "10.0.0.1:12345",
			xff:        "203.0.113.100",
			expected:   "203.0.113.100",
		},
		{
			name:       "header honored behind IPv6 loopback",
			remoteAddr: "[::1]:12345",
			xff:        "203.0.113.100",
			expected:   "203.0.113.100",
		},
		{
			name:       "rightmost untrusted hop wins",
			remoteAddr: "10.0.0.1:12345",
			xff:        "203.0.113.100, 198.51.100.50",
			expected:   "198.51.100.50",
		},
		{
			name:       "trusted hops are skipped",
			remoteAddr: "10.0.0.2:12345",
			xff:        "203.0.113.100, 10.0.0.1",
			expected:   "203.0.113.100",
		},
		{
			name:       "fully internal chain uses leftmost entry",
			remoteAddr: "10.0.0.2:12345",
			xff:        "192.168.1.100, 10.0.0.1",
			expected:   "192.168.1.100",
		},
		{
			name:       "empty header falls back to peer",
			remoteAddr: "10.0.0.1:12345",
			xff:        "",
			expected:   "10.0.0.1",
		},
		{
			name:       "garbage entries are skipped",
			remoteAddr: "10.0.0.1:12345",
			xff:        "not-an-ip, 203.0.113.100",
			expected:   "203.0.113.100",
		},
		{
			name:       "trailing commas are tolerated",
			remoteAddr: "10.0.0.1:12345",
			xff:        "203.0.113.100,,,",
			expected:   "203.0.113.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientIPFor(tt.remoteAddr, tt.xff))
		})
	}
}

func TestParseIP(t *testing.T) {
	assert.Equal(t, "203.0.113.100", parseIP("203.0.113.100:8080"))
	assert.Equal(t, "203.0.113.100", parseIP("203.0.113.100"))
	assert.Equal(t, "::1", parseIP("[::1]:8080"))
	assert.Equal(t, "", parseIP("not-an-ip"))
	assert.Equal(t, "", parseIP(""))
}
