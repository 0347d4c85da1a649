package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// ForceHTTPS permanently redirects plain HTTP requests to base's host over HTTPS,
// keeping the path and query.
//
// A request counts as HTTPS when it arrived over TLS
// or a proxy terminating TLS says so in X-Forwarded-Proto or Forwarded.
func ForceHTTPS(base *url.URL) Adapter {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS != nil || forwardedHTTPS(r.Header) {
				handler.ServeHTTP(w, r)
				return
			}

			host := r.Host
			if base != nil && base.Host != "" {
				host = base.Host
			}

			target := url.URL{Scheme: "https", Host: host, Path: r.URL.Path, RawPath: r.URL.RawPath, RawQuery: r.URL.RawQuery}
			http.Redirect(w, r, target.String(), http.StatusPermanentRedirect)
		})
	}
}

// forwardedHTTPS reads X-Forwarded-Proto, then the RFC 7239 Forwarded header.
func forwardedHTTPS(hm http.Header) bool {
	if proto := hm.Get("X-Forwarded-Proto"); proto != "" {
		return strings.EqualFold(proto, "https")
	}

	for _, elem := range strings.Split(hm.Get("Forwarded"), ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(elem), "=")
		if ok && strings.EqualFold(k, "proto") {
			return strings.EqualFold(strings.Trim(v, `"`), "https")
		}
	}

	return false
}
