package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/handlers"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/logger"
)

// ReportPanic recovers panics, responding 500 Internal Server Error.
//
// Outside of development, panics are first reported to Sentry.
func ReportPanic(env switchyard.Environment, l logger.Logger) Adapter {
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(panicLogger{l}))
	if env.IsDevelopment() || env.IsTesting() {
		return recovery
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: true,
	})

	return func(h http.Handler) http.Handler {
		return recovery(sh.Handle(h))
	}
}

// panicLogger adapts a logger.Logger to handlers.RecoveryHandlerLogger.
type panicLogger struct {
	l logger.Logger
}

func (pl panicLogger) Println(args ...any) {
	if pl.l == nil {
		return
	}

	pl.l.Error("recovered from panic", &logger.LogContext{Data: map[string]any{"panic": args}})
}
