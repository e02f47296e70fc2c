package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Headers checked before X-Forwarded-For entries and X-Real-IP.
var singleValueHeaders = []string{"CF-Connecting-IP"}

// GetIP returns the normalised client address of r, or "" when none of the
// sources holds a valid one.
func GetIP(r *http.Request) string {
	for _, h := range singleValueHeaders {
		if ip := parse(r.Header.Get(h)); ip != "" {
			return ip
		}
	}

	for entry := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := parse(entry); ip != "" {
			return ip
		}
	}

	if ip := parse(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parse(r.RemoteAddr)
	}
	return parse(host)
}

func parse(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	// IPv4-mapped IPv6 addresses are reported in their IPv4 form.
	return addr.Unmap().String()
}
