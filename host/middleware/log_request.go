package middleware

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/logger"
)

// LogRequest logs the request's method, requested URL, and originating IP address
// using the enclosed implementation of logger.Logger.
//
// if logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uri := r.URL.Path
			if query := r.URL.Query().Encode(); query != "" {
				uri += "?" + query
			}

			strs := []string{r.Method, uri}
			if ip, ok := r.Context().Value(switchyard.IPAddrKey).(string); ok {
				strs = append([]string{ip}, strs...)
			}

			data := make(map[string]any)
			if id, ok := r.Context().Value(switchyard.RequestIDKey).(string); ok {
				data["request_id"] = id
			}

			ls.Info(strings.Join(strs, " "), &logger.LogContext{Data: data})
			h.ServeHTTP(w, r)
		})
	}
}

// AccessLog writes an Apache Combined Log Format line to out for every request.
//
// If out is nil, NoopAdapter returns and this middleware does nothing.
func AccessLog(out io.Writer) Adapter {
	if out == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return handlers.CombinedLoggingHandler(out, h)
	}
}
