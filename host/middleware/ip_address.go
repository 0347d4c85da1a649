package middleware

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	"github.com/xy-planning-network/switchyard"
)

// UnknownIPAddress stands in for a client whose address no proxy header reveals.
const UnknownIPAddress = "0.0.0.0"

// proxyHeaders lists the headers searched for a client address, in order.
var proxyHeaders = []string{"X-Forwarded-For", "X-Real-Ip"}

// sharedPrefixes are non-public IPv4 ranges netip does not already classify.
var sharedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

// InjectIPAddress stores the client address GetIPAddress finds
// in the request's context under switchyard.IPAddrKey.
func InjectIPAddress() Adapter {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), switchyard.IPAddrKey, GetIPAddress(r.Header))
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIPAddress finds the client address in the X-Forwarded-For or X-Real-Ip header.
//
// Each header is read right to left, so the first public address found
// is the one the outermost trusted proxy saw.
// Without one, GetIPAddress returns UnknownIPAddress.
func GetIPAddress(hm http.Header) string {
	for _, name := range proxyHeaders {
		hops := strings.Split(hm.Get(name), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil || !isPublic(addr) {
				continue
			}

			return addr.String()
		}
	}

	return UnknownIPAddress
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}

	for _, p := range sharedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}

	return true
}
