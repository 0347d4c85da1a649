package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard/host/middleware"
)

func teapotHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestForceHTTPS(t *testing.T) {
	base := &url.URL{Scheme: "https", Host: "api.example.com"}

	for _, tc := range []struct {
		name     string
		target   string
		header   http.Header
		base     *url.URL
		status   int
		location string
	}{
		{"http", "http://example.com/books?order=year", nil, nil, http.StatusPermanentRedirect, "https://example.com/books?order=year"},
		{"http-base", "http://example.com/books/1", nil, base, http.StatusPermanentRedirect, "https://api.example.com/books/1"},
		{"escaped", "http://example.com/books/a%2Fb", nil, base, http.StatusPermanentRedirect, "https://api.example.com/books/a%2Fb"},
		{"https", "https://example.com/books", nil, base, http.StatusTeapot, ""},
		{"proxied", "http://example.com/books", http.Header{"X-Forwarded-Proto": {"HTTPS"}}, base, http.StatusTeapot, ""},
		{"proxied-http", "http://example.com/books", http.Header{"X-Forwarded-Proto": {"http"}}, nil, http.StatusPermanentRedirect, "https://example.com/books"},
		{"forwarded", "http://example.com/books", http.Header{"Forwarded": {`for=192.0.2.60;proto="https";by=203.0.113.43`}}, base, http.StatusTeapot, ""},
		{"forwarded-http", "http://example.com/books", http.Header{"Forwarded": {"proto=http"}}, base, http.StatusPermanentRedirect, "https://api.example.com/books"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			for k, vs := range tc.header {
				r.Header[k] = vs
			}
			w := httptest.NewRecorder()

			// Act
			middleware.ForceHTTPS(tc.base)(teapotHandler()).ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.location, w.Header().Get("Location"))
		})
	}
}

func TestCORS(t *testing.T) {
	for _, tc := range []struct {
		name   string
		origin string
		allow  string
	}{
		{"allowed", "https://app.example.com", "https://app.example.com"},
		{"other", "https://evil.example.com", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			r := httptest.NewRequest(http.MethodGet, "/books", nil)
			r.Header.Set("Origin", tc.origin)
			w := httptest.NewRecorder()

			// Act
			middleware.CORS("https://app.example.com", "X-Switchyard-Type")(teapotHandler()).ServeHTTP(w, r)

			// Assert
			require.Equal(t, http.StatusTeapot, w.Code)
			require.Equal(t, tc.allow, w.Header().Get("Access-Control-Allow-Origin"))
			if tc.allow != "" {
				require.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Switchyard-Type")
			}
		})
	}
}
