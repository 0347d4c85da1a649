package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/urfave/cli/v2"
	"github.com/xy-planning-network/switchyard"
	"github.com/xy-planning-network/switchyard/example/library"
	"github.com/xy-planning-network/switchyard/host"
	"github.com/xy-planning-network/switchyard/host/auth"
)

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:           "library",
		Usage:          "serve the library tables over HTTP",
		Writer:         out,
		ErrWriter:      out,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the web server until interrupted",
				Action: cmdServe,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "access-log",
						Usage: "write a combined log format line per request to stdout",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Run migrations that have not yet run",
				Action: cmdMigrate,
			},
			{
				Name:      "import",
				Usage:     "Add the books a YAML catalog lists",
				ArgsUsage: "<catalog.yaml>",
				Action:    cmdImport,
			},
			{
				Name:   "token",
				Usage:  "Sign a token granting operations on tables",
				Action: cmdToken,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "key",
						Usage:    "the HS256 signing key",
						EnvVars:  []string{"JWT_SIGNING_KEY"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "sub",
						Usage:    "who the token is issued to",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "ops",
						Usage: "the operations the token grants",
						Value: cli.NewStringSlice(switchyard.Query.String()),
					},
					&cli.StringSliceFlag{
						Name:  "tables",
						Usage: "the tables the token grants operations on; all when unset",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "how long the token is valid for",
						Value: 24 * time.Hour,
					},
				},
			},
		},
	}
}

// newHost constructs a *host.Host serving the library tables,
// returning the Books handler for importing into.
func newHost(opts ...host.Option) (*host.Host, *library.Books, error) {
	books := library.NewBooks()
	defaults := []host.Option{
		host.WithAuthority(library.Authority),
		host.WithHandlers(library.NewAuthors(), books),
		host.WithMigrations(library.Migrations()...),
	}

	h, err := host.New(append(defaults, opts...)...)
	if err != nil {
		return nil, nil, err
	}

	return h, books, nil
}

func cmdServe(c *cli.Context) error {
	var opts []host.Option
	if c.Bool("access-log") {
		opts = append(opts, host.WithAccessLog(c.App.Writer))
	}

	h, _, err := newHost(opts...)
	if err != nil {
		return err
	}

	return h.Guide()
}

func cmdMigrate(c *cli.Context) error {
	if _, _, err := newHost(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(c.App.Writer, "migrations up to date")
	return err
}

func cmdImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("%w: import takes one catalog file", switchyard.ErrMissingData)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := library.ParseCatalog(f)
	if err != nil {
		return err
	}

	h, books, err := newHost()
	if err != nil {
		return err
	}

	uris, err := books.Import(c.Context, h.DB(), h.Notifier(), catalog.Records())
	if err != nil {
		return err
	}

	for _, uri := range uris {
		if _, err := fmt.Fprintln(c.App.Writer, uri); err != nil {
			return err
		}
	}

	return nil
}

func cmdToken(c *cli.Context) error {
	svc, err := auth.NewService(c.String("key"), nil)
	if err != nil {
		return err
	}

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.String("sub"),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.Duration("ttl"))),
		},
		Tables: c.StringSlice("tables"),
	}

	for _, raw := range c.StringSlice("ops") {
		op := switchyard.Operation(raw)
		if err := op.Valid(); err != nil {
			return err
		}
		claims.Operations = append(claims.Operations, op)
	}

	token, err := svc.Sign(claims)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}
