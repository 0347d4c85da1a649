package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/host/middleware"
)

func TestChain(t *testing.T) {
	// Arrange
	var order []string
	mark := func(name string) middleware.Adapter {
		return func(h http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				h.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") })

	// Act
	middleware.Chain(final, mark("first"), middleware.NoopAdapter, mark("second")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// Assert
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestRequestID(t *testing.T) {
	for _, tc := range []struct {
		name   string
		header string
		reused bool
	}{
		{"fresh", "", false},
		{"malformed", "not-a-uuid", false},
		{"reused", "8f2d5a4e-0b7c-4f5f-9a51-2c1f3e0d6b7a", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
			if tc.header != "" {
				r.Header.Set(middleware.RequestIDHeader, tc.header)
			}

			var actual string

			// Act
			middleware.RequestID()(http.HandlerFunc(func(wx http.ResponseWriter, rx *http.Request) {
				val, ok := rx.Context().Value(switchyard.RequestIDKey).(string)
				require.True(t, ok)
				actual = val
			})).ServeHTTP(w, r)

			// Assert
			require.NotZero(t, actual)
			require.Equal(t, actual, w.Header().Get(middleware.RequestIDHeader))
			if tc.reused {
				require.Equal(t, tc.header, actual)
			} else {
				require.NotEqual(t, tc.header, actual)
			}
		})
	}
}

func TestGetIPAddress(t *testing.T) {
	for _, tc := range []struct {
		name     string
		header   http.Header
		expected string
	}{
		{"none", http.Header{}, "0.0.0.0"},
		{"forwarded", http.Header{"X-Forwarded-For": {"8.8.8.8"}}, "8.8.8.8"},
		{"rightmost-public", http.Header{"X-Forwarded-For": {"1.1.1.1, 8.8.4.4, 10.0.0.3"}}, "8.8.4.4"},
		{"private-only", http.Header{"X-Forwarded-For": {"192.168.1.1"}}, "0.0.0.0"},
		{"real-ip", http.Header{"X-Real-Ip": {"9.9.9.9"}}, "9.9.9.9"},
		{"shared", http.Header{"X-Forwarded-For": {"100.64.1.1"}}, "0.0.0.0"},
		{"ipv6", http.Header{"X-Forwarded-For": {"2001:4860:4860::8888, fd00::1"}}, "2001:4860:4860::8888"},
		{"garbage", http.Header{"X-Real-Ip": {"not-an-ip"}}, "0.0.0.0"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, middleware.GetIPAddress(tc.header))
		})
	}
}

func TestInjectIPAddress(t *testing.T) {
	// Arrange
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-Ip", "9.9.9.9")

	var actual any

	// Act
	middleware.InjectIPAddress()(http.HandlerFunc(func(_ http.ResponseWriter, rx *http.Request) {
		actual = rx.Context().Value(switchyard.IPAddrKey)
	})).ServeHTTP(httptest.NewRecorder(), r)

	// Assert
	require.Equal(t, "9.9.9.9", actual)
}

func TestReportPanic(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })

	// Act
	require.NotPanics(t, func() {
		middleware.ReportPanic(switchyard.Testing, nil)(h).ServeHTTP(w, r)
	})

	// Assert
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
