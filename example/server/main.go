/*
Package main serves the library tables over HTTP.

Configure it with the environment variables package host documents, e.g.:

	DATABASE_DIALECT=sqlite DATABASE_NAME=library.db go run ./example/server serve

Besides serve, it can run migrations, import a YAML catalog of books
and sign tokens for clients when JWT_SIGNING_KEY is set.
*/
package main

import (
	"os"

	"github.com/xy-planning-network/switchyard/logger"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.New().Fatal(err.Error(), &logger.LogContext{Error: err})
		os.Exit(1)
	}
}
