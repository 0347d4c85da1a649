package middleware_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/switchyard/host/middleware"
)

// countingHandler creates a resource for every request it serves.
func countingHandler(n *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		id := n.Add(1)
		w.Header().Set("Location", "/books/"+strconv.Itoa(int(id)))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"created":true}`))
	})
}

func post(target, key, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if key != "" {
		r.Header.Set(middleware.IdempotencyHeader, key)
	}

	return r
}

func TestIdempotent(t *testing.T) {
	// Arrange
	var n atomic.Int32
	cache := middleware.NewIdemResMap()
	handler := middleware.Idempotent(cache)(countingHandler(&n))

	// Act
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, post("/books", "key-1", `{"title":"Dune"}`))

	// Assert
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "/books/1", w.Header().Get("Location"))
	require.Equal(t, int32(1), n.Load())

	v, ok := cache.Get(context.Background(), "key-1")
	require.True(t, ok)
	sum := sha256.Sum256([]byte(`{"title":"Dune"}`))
	require.Equal(t, sum[:], v.Req)
	require.Equal(t, http.StatusCreated, v.Status)
	require.Equal(t, "/books", v.URI)
	require.Equal(t, `{"created":true}`, v.Body.String())

	for _, tc := range []struct {
		name     string
		r        *http.Request
		status   int
		location string
		created  int32
	}{
		{"replay", post("/books", "key-1", `{"title":"Dune"}`), http.StatusCreated, "/books/1", 1},
		{"other-uri", post("/authors", "key-1", `{"title":"Dune"}`), http.StatusUnprocessableEntity, "", 1},
		{"other-body", post("/books", "key-1", `{"title":"Kindred"}`), http.StatusUnprocessableEntity, "", 1},
		{"new-key", post("/books", "key-2", `{"title":"Dune"}`), http.StatusCreated, "/books/2", 2},
		{"no-key", post("/books", "", `{"title":"Dune"}`), http.StatusCreated, "/books/3", 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, tc.r)

			// Assert
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.location, w.Header().Get("Location"))
			require.Equal(t, tc.created, n.Load())
		})
	}
}

func TestIdempotentInFlight(t *testing.T) {
	// Arrange
	cache := middleware.NewIdemResMap()
	sum := sha256.Sum256(nil)
	cache.Set(context.Background(), "key", middleware.NewIdemRes("/books", sum[:]))

	var n atomic.Int32
	w := httptest.NewRecorder()

	// Act
	middleware.Idempotent(cache)(countingHandler(&n)).ServeHTTP(w, post("/books", "key", ""))

	// Assert
	require.Equal(t, http.StatusConflict, w.Code)
	require.Zero(t, n.Load())
}

func TestIdempotentNilCache(t *testing.T) {
	// Arrange
	var n atomic.Int32
	handler := middleware.Idempotent(nil)(countingHandler(&n))

	// Act
	handler.ServeHTTP(httptest.NewRecorder(), post("/books", "key", "{}"))
	handler.ServeHTTP(httptest.NewRecorder(), post("/books", "key", "{}"))

	// Assert
	require.Equal(t, int32(2), n.Load())
}

func TestIdemResGob(t *testing.T) {
	// Arrange
	ir := middleware.NewIdemRes("/books", []byte("sum"))
	ir.Body.WriteString(`{"uri":"content://world.switchyard.library/books/1"}`)
	ir.Header.Set("Location", "/books/1")
	ir.Status = http.StatusCreated

	// Act
	b, err := ir.GobEncode()
	require.Nil(t, err)

	actual := new(middleware.IdemRes)
	err = actual.GobDecode(b)

	// Assert
	require.Nil(t, err)
	require.Equal(t, ir.Body.Bytes(), actual.Body.Bytes())
	require.Equal(t, ir.Header, actual.Header)
	require.Equal(t, ir.Req, actual.Req)
	require.Equal(t, ir.Status, actual.Status)
	require.Equal(t, ir.URI, actual.URI)
	require.NotNil(t, actual.GobDecode(bytes.Repeat([]byte{0xff}, 4)))
}

func TestIdemResRedis(t *testing.T) {
	raw := os.Getenv("REDIS_URL")
	if raw == "" {
		t.Skip("REDIS_URL is not set")
	}

	// Arrange
	opts, err := redis.ParseURL(raw)
	require.Nil(t, err)

	client := redis.NewClient(opts)
	defer client.Close()

	cache := middleware.NewRedisCache(client, "switchyard-test:")
	key := uuid.NewString()
	ir := middleware.NewIdemRes("/books", []byte("sum"))
	ir.Status = http.StatusCreated

	// Act
	_, ok := cache.Get(context.Background(), key)
	cache.Set(context.Background(), key, ir)
	actual, found := cache.Get(context.Background(), key)

	// Assert
	require.False(t, ok)
	require.True(t, found)
	require.Equal(t, http.StatusCreated, actual.Status)
	require.Nil(t, client.Del(context.Background(), "switchyard-test:"+key).Err())
}
