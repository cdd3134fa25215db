package api

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"
)

// X-Forwarded-For is only honored when the direct peer is inside one of
// these ranges; anyone else can put whatever they like in the header.
var trustedProxyNets = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, len(cidrs))
	for i, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("bad trusted proxy CIDR " + cidr + ": " + err.Error())
		}
		nets[i] = ipNet
	}
	return nets
}

func isTrustedProxy(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range trustedProxyNets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// parseIP normalizes "host:port" or a bare address to a validated IP
// string, or "" if it is not one
func parseIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// getClientIP resolves the client address used for voter sessions and rate
// limit buckets. Proxies append to X-Forwarded-For, so only the entries our
// own proxies added can be believed: walking right to left, the first IP
// outside the trusted ranges is the client (or the nearest proxy we cannot
// vouch for). When the direct peer is untrusted the header is ignored
// entirely, which is what defeats spoofed entries.
func getClientIP(c echo.Context) string {
	remoteIP := parseIP(c.Request().RemoteAddr)
	if !isTrustedProxy(remoteIP) {
		return remoteIP
	}

	xff := c.Request().Header.Get("X-Forwarded-For")
	if xff == "" {
		return remoteIP
	}

	hops := strings.Split(xff, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip := parseIP(hops[i])
		if ip != "" && !isTrustedProxy(ip) {
			return ip
		}
	}

	// the whole chain is internal: the leftmost entry is the originator
	for _, hop := range hops {
		if ip := parseIP(hop); ip != "" {
			return ip
		}
	}

	return remoteIP
}
