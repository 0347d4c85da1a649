/*
Package logger provides leveled logging to a switchyard host by defining the required behavior in [Logger]
and providing an implementation of it with [YardLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
An implementation of Logger may be initialized at a certain [LogLevel]
and only emit messages at or above that level of importance.
For example, [YardLogger] initialized with [LogLevelWarn]
only produces messages from [*YardLogger.Warn], [*YardLogger.Error], and [*YardLogger.Fatal].

Log messages emitted by [YardLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2026/04/28 15:55:21 [DEBUG] switchyard/router/router.go:88 'registered handler' log_context: {"table":"books"}

The log context is a JSON-encoded [LogContext].

# SentryLogger

When SENTRY_DSN is set, [New] wraps the [YardLogger] in a [SentryLogger]
which also ships the [LogContext.Error] of warnings and above to Sentry.
*/
package logger
