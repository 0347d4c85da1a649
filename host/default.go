package host

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/host/auth"
	"github.com/xy-planning-network/switchyard/host/middleware"
	"github.com/xy-planning-network/switchyard/logger"
	"github.com/xy-planning-network/switchyard/notify"
	"github.com/xy-planning-network/switchyard/router"
	"github.com/xy-planning-network/switchyard/store"
	"golang.org/x/time/rate"
)

const (
	// Auth defaults
	jwtKeyEnvVar       = "JWT_SIGNING_KEY"
	googleClientEnvVar = "GOOGLE_CLIENT_ID"
	googleSecretEnvVar = "GOOGLE_CLIENT_SECRET"
	googleEmailsEnvVar = "GOOGLE_ALLOWED_EMAILS"

	// Authority defaults
	authorityEnvVar  = "SWITCHYARD_AUTHORITY"
	DefaultAuthority = "localhost.switchyard"

	// Base URL defaults
	BaseURLEnvVar  = "BASE_URL"
	DefaultBaseURL = "http://localhost:3000"

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar = "LOG_LEVEL"

	// Database defaults
	dbDialectEnvVar  = "DATABASE_DIALECT"
	dbDebugEnvVar    = "DATABASE_DEBUG"
	dbHostEnvVar     = "DATABASE_HOST"
	defaultDBHost    = "localhost"
	dbNameEnvVar     = "DATABASE_NAME"
	dbPassEnvVar     = "DATABASE_PASSWORD"
	dbPortEnvVar     = "DATABASE_PORT"
	defaultDBPort    = "5432"
	dbSSLModeEnvVar  = "DATABASE_SSLMODE"
	defaultDBSSLMode = "prefer"
	dbURLEnvVar      = "DATABASE_URL"
	dbUserEnvVar     = "DATABASE_USER"

	// Change broadcasting defaults
	redisURLEnvVar     = "REDIS_URL"
	redisChannelEnvVar = "REDIS_CHANNEL"
	idempotencyPrefix  = "switchyard:idempotency:"

	// Rate limit defaults
	rateLimitEnvVar      = "RATE_LIMIT"
	rateLimitBurstEnvVar = "RATE_LIMIT_BURST"

	// Web server defaults
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Second
)

// defaultOpts configures a *Host from environment variables,
// deferring to followups anything another Option may have already set.
func defaultOpts() []Option {
	return []Option{
		WithContext(context.Background()),
		WithEnv(""),
		func(h *Host) (OptFollowup, error) {
			h.authority = switchyard.EnvVarOrString(authorityEnvVar, DefaultAuthority)
			h.url = switchyard.EnvVarOrURL(BaseURLEnvVar, DefaultBaseURL)
			if h.url == nil {
				return nil, fmt.Errorf("%w: %s is not a valid URL", switchyard.ErrNotValid, os.Getenv(BaseURLEnvVar))
			}

			return nil, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				if h.l == nil {
					h.l = defaultLogger(h.env)
				}
				return nil
			}, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				if h.db != nil {
					return nil
				}

				db, err := store.Connect(NewStoreConfig(h.env), h.migrations, h.env)
				if err != nil {
					return err
				}

				if switchyard.EnvVarOrBool(dbDebugEnvVar, false) {
					db = db.Debug()
				}

				h.db = db
				return nil
			}, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				if h.notifier != nil && h.idempotency != nil {
					return nil
				}

				client, err := defaultRedis()
				if err != nil {
					return err
				}

				if h.notifier == nil {
					h.notifier = defaultNotifier(client, h.l)
				}

				if h.idempotency == nil {
					h.idempotency = defaultIdempotencyCache(client)
				}

				return nil
			}, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				if h.auth != nil {
					return nil
				}

				s, err := defaultAuth()
				if err != nil {
					return err
				}

				h.auth = s
				return nil
			}, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				h.router = router.New[*store.DB](h.authority, h.notifier, router.WithLogger(h.l))
				return h.router.RegisterAll(h.handlers...)
			}, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				if h.visitors != nil {
					return nil
				}

				limit := switchyard.EnvVarOrInt(rateLimitEnvVar, 0)
				if limit <= 0 {
					return nil
				}

				burst := switchyard.EnvVarOrInt(rateLimitBurstEnvVar, limit)
				if burst < 1 {
					return fmt.Errorf("%w: %s must be positive", switchyard.ErrNotValid, rateLimitBurstEnvVar)
				}

				h.visitors = middleware.NewVisitors(rate.Limit(limit), burst)
				return nil
			}, nil
		},
		func(h *Host) (OptFollowup, error) {
			return func() error {
				if h.srv == nil {
					h.srv = defaultServer(h.ctx, h.url)
				}
				return nil
			}, nil
		},
	}
}

// NewStoreConfig constructs a *store.CxnConfig appropriate to the given environment.
// Confer the DATABASE env vars for usage.
func NewStoreConfig(env switchyard.Environment) *store.CxnConfig {
	dialect := store.Dialect(strings.ToLower(switchyard.EnvVarOrString(dbDialectEnvVar, store.Postgres.String())))

	if raw := os.Getenv(dbURLEnvVar); raw != "" {
		return &store.CxnConfig{Dialect: dialect, IsTestDB: env.IsTesting(), URL: raw}
	}

	return &store.CxnConfig{
		Dialect:  dialect,
		Host:     switchyard.EnvVarOrString(dbHostEnvVar, defaultDBHost),
		IsTestDB: env.IsTesting(),
		Name:     os.Getenv(dbNameEnvVar),
		Password: os.Getenv(dbPassEnvVar),
		Port:     switchyard.EnvVarOrString(dbPortEnvVar, defaultDBPort),
		SSLMode:  switchyard.EnvVarOrString(dbSSLModeEnvVar, defaultDBSSLMode),
		User:     os.Getenv(dbUserEnvVar),
	}
}

// defaultLogger constructs a logger.Logger configured by the LOG_LEVEL env var.
func defaultLogger(env switchyard.Environment) logger.Logger {
	return logger.New(
		logger.WithEnv(env.String()),
		logger.WithLevel(envVarOrLogLevel(logLevelEnvVar, logger.LogLevelInfo)),
	)
}

// defaultRedis constructs a *redis.Client when REDIS_URL is set.
func defaultRedis() (*redis.Client, error) {
	raw := os.Getenv(redisURLEnvVar)
	if raw == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", switchyard.ErrNotValid, redisURLEnvVar, err)
	}

	return redis.NewClient(opts), nil
}

// defaultNotifier constructs a *notify.RedisBroadcaster when client is set
// and a *notify.Resolver otherwise.
func defaultNotifier(client *redis.Client, l logger.Logger) Broadcaster {
	if client == nil {
		return notify.NewResolver()
	}

	channel := switchyard.EnvVarOrString(redisChannelEnvVar, notify.DefaultChannel)
	l.Debug(fmt.Sprintf("broadcasting changes on redis channel %s", channel), nil)

	return notify.NewRedisBroadcaster(client, channel, notify.NewResolver(), l)
}

// defaultIdempotencyCache constructs a middleware.IdemResRedis when client is set
// and a *middleware.IdemResMap otherwise.
func defaultIdempotencyCache(client *redis.Client) middleware.IdempotencyCacher {
	if client == nil {
		return middleware.NewIdemResMap()
	}

	return middleware.NewRedisCache(client, idempotencyPrefix)
}

// defaultAuth constructs an *auth.Service when JWT_SIGNING_KEY is set.
// Google access tokens are accepted, too, when GOOGLE_CLIENT_ID is set.
func defaultAuth() (*auth.Service, error) {
	key := os.Getenv(jwtKeyEnvVar)
	if key == "" {
		return nil, nil
	}

	var g *auth.GoogleConfig
	if id := os.Getenv(googleClientEnvVar); id != "" {
		g = &auth.GoogleConfig{
			ClientID:     id,
			ClientSecret: os.Getenv(googleSecretEnvVar),
			Emails:       strings.Split(os.Getenv(googleEmailsEnvVar), ","),
		}
	}

	return auth.NewService(key, g)
}

// defaultServer constructs a default [*http.Server] listening on the port of base.
func defaultServer(ctx context.Context, base *url.URL) *http.Server {
	port := base.Port()
	if port == "" {
		port = "80"
		if base.Scheme == "https" {
			port = "443"
		}
	}

	srv := &http.Server{
		Addr:         ":" + port,
		IdleTimeout:  switchyard.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		ReadTimeout:  switchyard.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		WriteTimeout: switchyard.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}

// envVarOrLogLevel gets the environment variable for the provided key,
// creates a logger.LogLevel from the retrieved value,
// or returns the provided default logger.LogLevel if the value is an unknown logger.LogLevel.
func envVarOrLogLevel(key string, def logger.LogLevel) logger.LogLevel {
	if level := logger.NewLogLevel(strings.ToUpper(os.Getenv(key))); level != logger.LogLevelUnk {
		return level
	}

	return def
}
