/*
Package host runs a switchyard Router behind an HTTP server with sane defaults.

# Host

The main entrypoint to package host is the [Host] type.
A [Host] ought to be constructed with [New] using the table handlers it serves:

	h, err := host.New(
		host.WithAuthority(library.Authority),
		host.WithHandlers(library.NewBooks(), library.NewAuthors()),
		host.WithMigrations(library.Migrations()...),
	)

[*Host.Guide] begins the web server.
By default, [*Host.Guide] listens on the port of [DefaultBaseURL] (localhost:3000).
Stop that web server with [*Host.Shutdown],
cancel the context.Context passed to [WithContext],
or send a signal [*Host.Guide] listens for.

The routes [*Host.Handler] serves map request paths onto URIs under the Host's authority.
Cf. [*Host.Handler] for the methods each operation answers to.

# Configuration

A developer configures a Host through environment variables
and by passing [Option] values to [New].
Options passed to [New] replace whatever the environment configures.

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - BASE_URL: the base URL the application runs on; default: http://localhost:3000
  - DATABASE_DEBUG: whether to log every SQL statement; default: false
  - DATABASE_DIALECT: the SQL dialect to connect with, postgres or sqlite; default: postgres
  - DATABASE_HOST: the host the database is running on; default: localhost
  - DATABASE_NAME: the name of the database; for sqlite, the path to the database file
  - DATABASE_PASSWORD: the password for authenticating a connection to the database
  - DATABASE_PORT: the port the database is listening on; default: 5432
  - DATABASE_SSLMODE: the sslmode for connecting to postgres; default: prefer
  - DATABASE_URL: the fully-qualified connection string for connecting to the database; replaces all other DATABASE_* env vars except DATABASE_DIALECT
  - DATABASE_USER: the user for authenticating a connection to the database
  - ENVIRONMENT: the environment the application is running in; cf. [switchyard.Environment]
  - GOOGLE_ALLOWED_EMAILS: a comma-separated list of emails, or "@domain" entries, Google access tokens must belong to
  - GOOGLE_CLIENT_ID: the Google OAuth client ID; when set alongside JWT_SIGNING_KEY, Google access tokens authenticate, too
  - GOOGLE_CLIENT_SECRET: the Google OAuth client secret
  - JWT_SIGNING_KEY: the HS256 key JWTs are signed with; when set, requests to tables must authenticate
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - RATE_LIMIT: the requests per second each client IP address may make; default: unlimited
  - RATE_LIMIT_BURST: the requests each client IP address may burst to; default: RATE_LIMIT
  - REDIS_URL: a redis URL, cf. [redis.ParseURL]; when set, changes broadcast to and idempotent responses are shared with every Host using it
  - REDIS_CHANNEL: the redis channel changes broadcast on; default: [notify.DefaultChannel]
  - SENTRY_DSN: the DSN for reporting errors and panics to Sentry
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for writing HTTP responses; default: 5s
  - SWITCHYARD_AUTHORITY: the namespace the Host routes within; default: localhost.switchyard
*/
package host
