package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/host/auth"
	"github.com/xy-planning-network/switchyard/host/middleware"
	"github.com/xy-planning-network/switchyard/host/req"
	"github.com/xy-planning-network/switchyard/logger"
	"github.com/xy-planning-network/switchyard/notify"
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
)

// A Broadcaster carries changes from the Router to the cursors watching for them.
//
// Both *notify.Resolver and *notify.RedisBroadcaster are Broadcasters.
type Broadcaster interface {
	router.Notifier
	notify.Registrar
}

// A listener relays changes made elsewhere until ctx is done.
type listener interface {
	Listen(ctx context.Context) error
}

// A Host owns the storage handle, the Router dispatching to table handlers
// and the HTTP surface exposing them.
type Host struct {
	accessLog   io.Writer
	auth        *auth.Service
	authority   string
	ctx         context.Context
	cancel      context.CancelFunc
	db          *store.DB
	env         switchyard.Environment
	handlers    []router.Handler[*store.DB]
	idempotency middleware.IdempotencyCacher
	l           logger.Logger
	migrations  []store.Migration
	notifier    Broadcaster
	parser      *req.Parser
	router      *router.Router[*store.DB]
	srv         *http.Server
	url         *url.URL
	visitors    *middleware.Visitors
}

// New constructs a Host from the provided options.
// Default options are applied first followed by the options passed into New.
// Options supplied to New overwrite default configurations.
func New(opts ...Option) (*Host, error) {
	h := &Host{parser: req.NewParser()}
	followups := make([]OptFollowup, 0)

	// NOTE: calling an option configures the *Host under construction.
	// Some options require data from other options.
	// These options, therefore, must delay configuring the *Host
	// until either (1) user supplied Options or (2) default Options
	// configure the *Host first.
	// They return an OptFollowup to be called after the initial set of options are run.
	for _, opt := range append(defaultOpts(), opts...) {
		fn, err := opt(h)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", switchyard.ErrBadConfig, err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			return nil, fmt.Errorf("%w: %s", switchyard.ErrBadConfig, err)
		}
	}

	return h, nil
}

func (h *Host) Authority() string                 { return h.authority }
func (h *Host) DB() *store.DB                     { return h.db }
func (h *Host) Env() switchyard.Environment       { return h.env }
func (h *Host) Logger() logger.Logger             { return h.l }
func (h *Host) Notifier() Broadcaster             { return h.notifier }
func (h *Host) Router() *router.Router[*store.DB] { return h.router }

// URI constructs a URI under the Host's authority.
func (h *Host) URI(segments ...string) switchyard.URI {
	return switchyard.NewURI(h.authority, segments...)
}

// Register adds handler to the Host's Router.
func (h *Host) Register(handler router.Handler[*store.DB]) error { return h.router.Register(handler) }

// Deregister removes handler from the Host's Router.
func (h *Host) Deregister(handler router.Handler[*store.DB]) error {
	return h.router.Deregister(handler)
}

// Type returns the MIME type for uri.
func (h *Host) Type(uri switchyard.URI) (string, error) { return h.router.Type(uri) }

// Insert adds values to the table uri names, returning the URI of the new record.
func (h *Host) Insert(ctx context.Context, uri switchyard.URI, values switchyard.Values) (switchyard.URI, error) {
	return h.router.Insert(ctx, h.db, uri, values)
}

// Delete removes the records uri and sel address.
func (h *Host) Delete(ctx context.Context, uri switchyard.URI, sel switchyard.Selection) (int64, error) {
	return h.router.Delete(ctx, h.db, uri, sel)
}

// Update sets values on the records uri and sel address.
func (h *Host) Update(ctx context.Context, uri switchyard.URI, values switchyard.Values, sel switchyard.Selection) (int64, error) {
	return h.router.Update(ctx, h.db, uri, values, sel)
}

// Query reads columns from the records uri and sel address.
func (h *Host) Query(ctx context.Context, uri switchyard.URI, columns []string, sel switchyard.Selection, sortOrder string) (router.Cursor, error) {
	return h.router.Query(ctx, h.db, uri, columns, sel, sortOrder)
}

// Guide begins the web server.
//
// These, and (*Host).Shutdown, stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
//
// If the Host's Broadcaster listens for changes from other processes,
// Guide starts it listening, too.
func (h *Host) Guide() error {
	ctx, stop := signal.NotifyContext(
		h.ctx,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer stop()

	if ln, ok := h.notifier.(listener); ok {
		go func() {
			h.l.Info("listening for changes from other processes", nil)
			if err := ln.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				h.l.Error(err.Error(), &logger.LogContext{Error: err})
			}
		}()
	}

	h.srv.Handler = h.Handler()
	srvErr := make(chan error, 1)
	go func() {
		h.l.Info(fmt.Sprintf("running web server at %s", h.srv.Addr), nil)
		if err := h.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			srvErr <- fmt.Errorf("could not listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		h.l.Info("received shutdown signal", nil)
		return h.Shutdown()

	case err := <-srvErr:
		h.l.Error(err.Error(), &logger.LogContext{Error: err})
		return err
	}
}

// Shutdown shutdowns the web server.
func (h *Host) Shutdown() error {
	defer h.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.l.Info("shutting down web server", nil)
	err := h.srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	h.l.Info("web server shutdown successfully", nil)
	return nil
}
