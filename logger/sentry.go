package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// flushTimeout bounds how long Fatal waits for queued events to reach Sentry.
const flushTimeout = 2 * time.Second

// A SentryLogger writes logs through a SkipLogger
// and ships errors in warnings and above to Sentry.
type SentryLogger struct {
	l SkipLogger
}

// NewSentryLogger constructs a SentryLogger based off the provided YardLogger.
func NewSentryLogger(yl *YardLogger, dsn string) Logger {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: yl.env,
	})
	if err != nil {
		err = fmt.Errorf("unable to init Sentry: %s", err)
		yl.Error(err.Error(), nil)
		return yl
	}

	return &SentryLogger{l: yl.AddSkip(1 + yl.Skip())}
}

// AddSkip replaces the current number of frames to scroll back
// when logging a message.
func (sl *SentryLogger) AddSkip(i int) SkipLogger { return &SentryLogger{l: sl.l.AddSkip(i)} }

// Debug writes a debug log.
func (sl *SentryLogger) Debug(msg string, ctx *LogContext) { sl.l.Debug(msg, ctx) }

// Error writes an error log and sends it to Sentry.
func (sl *SentryLogger) Error(msg string, ctx *LogContext) {
	if sl.l.LogLevel() > LogLevelError {
		return
	}

	sl.l.Error(msg, ctx)
	sl.send(sentry.LevelError, ctx)
}

// Fatal writes a fatal log and sends it to Sentry,
// waiting for queued events to go out since the caller is about to exit.
func (sl *SentryLogger) Fatal(msg string, ctx *LogContext) {
	if sl.l.LogLevel() > LogLevelFatal {
		return
	}

	sl.l.Fatal(msg, ctx)
	sl.send(sentry.LevelFatal, ctx)
	sentry.Flush(flushTimeout)
}

// Info writes an info log.
func (sl *SentryLogger) Info(msg string, ctx *LogContext) { sl.l.Info(msg, ctx) }

// Warn writes a warning log and sends it to Sentry.
func (sl *SentryLogger) Warn(msg string, ctx *LogContext) {
	if sl.l.LogLevel() > LogLevelWarn {
		return
	}

	sl.l.Warn(msg, ctx)
	sl.send(sentry.LevelWarning, ctx)
}

// LogLevel returns the LogLevel set for the SentryLogger.
func (sl *SentryLogger) LogLevel() LogLevel { return sl.l.LogLevel() }

// Skip returns the current amount of frames to scroll back
// when logging a message.
func (sl *SentryLogger) Skip() int { return sl.l.Skip() }

// send ships the LogContext.Error to Sentry,
// including any additional data from LogContext.
func (sl *SentryLogger) send(level sentry.Level, ctx *LogContext) {
	if ctx == nil || ctx.Error == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if ctx.Request != nil {
			scope.SetRequest(ctx.Request)
		}

		if ctx.Data != nil {
			scope.SetExtra("data", ctx.Data)
		}

		if ctx.Table != "" {
			scope.SetTag("table", ctx.Table)
			scope.SetFingerprint([]string{"{{ default }}", ctx.Table})
		}

		if ctx.URI != nil {
			scope.SetExtra("uri", ctx.URI.String())
		}

		scope.SetLevel(level)
		sentry.CaptureException(ctx.Error)
	})
}
