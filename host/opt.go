package host

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/host/auth"
	"github.com/xy-planning-network/switchyard/host/middleware"
	"github.com/xy-planning-network/switchyard/logger"
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
	"golang.org/x/time/rate"
)

// An Option configures a *Host either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some Options require data in others and thus an OptFollowup can be returned
// in order to be called at a later time when that data is available.
//
// WithAuthority is an example of the first.
// An unexported field on the passed in *Host is updated with the enclosed value.
//
// The default router is an example of the second:
// it needs the authority, logger and notifier, whichever options set them.
type Option func(h *Host) (OptFollowup, error)
type OptFollowup func() error

// WithAccessLog writes a combined log format line to w for every request the Host serves.
func WithAccessLog(w io.Writer) Option {
	return func(h *Host) (OptFollowup, error) {
		h.accessLog = w
		return nil, nil
	}
}

// WithAuth requires requests to the Host's tables to authenticate with s.
func WithAuth(s *auth.Service) Option {
	return func(h *Host) (OptFollowup, error) {
		h.auth = s
		h.debug(fmt.Sprintf("using auth %T", s))

		return nil, nil
	}
}

// WithAuthority sets the namespace the Host routes within.
func WithAuthority(authority string) Option {
	return func(h *Host) (OptFollowup, error) {
		if authority == "" {
			return nil, fmt.Errorf("%w: empty authority", switchyard.ErrNotValid)
		}

		h.authority = authority
		h.debug(fmt.Sprintf("using authority %s", authority))

		return nil, nil
	}
}

// WithContext sets the context.Context the Host's web server and listeners run under.
func WithContext(ctx context.Context) Option {
	return func(h *Host) (OptFollowup, error) {
		if h.cancel != nil {
			h.cancel()
		}

		h.ctx, h.cancel = context.WithCancel(ctx)
		h.debug(fmt.Sprintf("using context %T", ctx))

		return nil, nil
	}
}

// WithDB sets the storage handle passed to every table handler.
//
// WithDB assumes a connection has already been established
// and does not run any migrations.
func WithDB(db *store.DB) Option {
	return func(h *Host) (OptFollowup, error) {
		h.db = db
		h.debug(fmt.Sprintf("using db %T", db))

		return nil, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the ENVIRONMENT environment variable a valid Environment.
//
// If both fail, the default Environment is set to Development.
func WithEnv(envVar string) Option {
	return func(h *Host) (OptFollowup, error) {
		e := switchyard.Environment(envVar)
		if err := e.Valid(); err != nil {
			e = switchyard.EnvVarOrEnv(environmentEnvVar, switchyard.Development)
		}

		h.env = e
		h.debug(fmt.Sprintf("using env %s", e))

		return nil, nil
	}
}

// WithHandlers adds table handlers the Host registers with its Router.
func WithHandlers(handlers ...router.Handler[*store.DB]) Option {
	return func(h *Host) (OptFollowup, error) {
		h.handlers = append(h.handlers, handlers...)

		return nil, nil
	}
}

// WithIdempotencyCache sets where responses to POST requests
// carrying an Idempotency-Key header are kept for replay.
func WithIdempotencyCache(c middleware.IdempotencyCacher) Option {
	return func(h *Host) (OptFollowup, error) {
		h.idempotency = c
		h.debug(fmt.Sprintf("using idempotency cache %T", c))

		return nil, nil
	}
}

// WithLogger sets the logger.Logger the Host and its Router log with.
func WithLogger(l logger.Logger) Option {
	return func(h *Host) (OptFollowup, error) {
		h.l = l
		h.debug(fmt.Sprintf("using logger %T", l))

		return nil, nil
	}
}

// WithMigrations adds migrations run when the Host connects to its database.
// WithMigrations has no effect alongside WithDB.
func WithMigrations(migrations ...store.Migration) Option {
	return func(h *Host) (OptFollowup, error) {
		h.migrations = append(h.migrations, migrations...)

		return nil, nil
	}
}

// WithNotifier sets the Broadcaster changes flow through.
func WithNotifier(b Broadcaster) Option {
	return func(h *Host) (OptFollowup, error) {
		h.notifier = b
		h.debug(fmt.Sprintf("using notifier %T", b))

		return nil, nil
	}
}

// WithRateLimit limits each client IP address to limit requests every second
// with bursts of up to burst.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(h *Host) (OptFollowup, error) {
		if burst < 1 {
			return nil, fmt.Errorf("%w: rate limit burst must be positive", switchyard.ErrNotValid)
		}

		h.visitors = middleware.NewVisitors(limit, burst)

		return nil, nil
	}
}

// WithServer sets the *http.Server Guide runs.
func WithServer(s *http.Server) Option {
	return func(h *Host) (OptFollowup, error) {
		h.srv = s
		h.debug(fmt.Sprintf("using server at %s", s.Addr))

		return nil, nil
	}
}

func (h *Host) debug(msg string) {
	if h.l != nil {
		h.l.Debug(msg, nil)
	}
}
