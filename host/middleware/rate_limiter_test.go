package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard/host/middleware"
	"golang.org/x/time/rate"
)

func TestVisitorFetch(t *testing.T) {
	t.Run("Serial", func(t *testing.T) {
		// Arrange
		vs := middleware.NewVisitors(5, 20)

		// Act
		v1 := vs.Fetch("127.0.0.1")
		time.Sleep(1 * time.Millisecond)
		v2 := vs.Fetch("127.0.0.1")

		// Assert
		require.Equal(t, v1.Limiter, v2.Limiter)
		require.True(t, v1.LastSeen.Before(v2.LastSeen))
	})

	t.Run("Concurrent", func(t *testing.T) {
		// Arrange
		var wg sync.WaitGroup
		vs := middleware.NewVisitors(5, 20)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				// Act
				assert.NotPanics(t, func() { vs.Fetch("127.0.0.1") })
			}()
		}

		wg.Wait()
	})
}

func TestRateLimit(t *testing.T) {
	// Arrange
	h := middleware.RateLimit(middleware.NewVisitors(0, 2))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	var codes []int

	// Act
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-Ip", "8.8.8.8")
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}

	// Assert
	require.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitRetryAfter(t *testing.T) {
	// Arrange
	vs := middleware.NewVisitors(rate.Every(time.Minute), 1)
	h := middleware.RateLimit(vs)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }),
	)

	send := func(ip string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Real-Ip", ip)
		h.ServeHTTP(w, r)
		return w
	}

	// Act
	first := send("8.8.8.8")
	second := send("8.8.8.8")
	other := send("9.9.9.9")

	// Assert
	require.Equal(t, http.StatusNoContent, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "60", second.Header().Get("Retry-After"))
	require.Equal(t, http.StatusNoContent, other.Code)
	require.Equal(t, 2, vs.Len())
}

func TestRateLimitNil(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()

	// Act
	middleware.RateLimit(nil)(teapotHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)
}
