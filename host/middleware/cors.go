package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS lets browser clients at origin call the Host.
// Preflight requests are answered before reaching the router.
//
// exposed lists response headers beyond Location, WWW-Authenticate and RequestIDHeader
// that scripts may read.
func CORS(origin string, exposed ...string) Adapter {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{origin}),
		handlers.AllowedMethods([]string{
			http.MethodDelete,
			http.MethodGet,
			http.MethodHead,
			http.MethodPatch,
			http.MethodPost,
			http.MethodPut,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", IdempotencyHeader, RequestIDHeader}),
		handlers.ExposedHeaders(append([]string{"Location", "WWW-Authenticate", RequestIDHeader}, exposed...)),
		handlers.MaxAge(600),
	)
}
