package switchyard

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// An Environment names where a Host runs.
// Environments change defaults such as log coloring, CORS and HTTPS redirects.
type Environment string

const (
	Development Environment = "DEVELOPMENT"
	Production  Environment = "PRODUCTION"
	Staging     Environment = "STAGING"
	Testing     Environment = "TESTING"
)

func (e Environment) String() string { return string(e) }

// Valid implements Enumerable.
func (e Environment) Valid() error {
	switch e {
	case Development, Production, Staging, Testing:
		return nil
	default:
		return fmt.Errorf("%w: unknown environment %q", ErrNotValid, string(e))
	}
}

func (e Environment) IsDevelopment() bool { return e == Development }

func (e Environment) IsTesting() bool { return e == Testing }

// envVarOr parses the value of the environment variable key with parse.
// An unset, empty or unparseable value yields def.
func envVarOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}

	val, err := parse(raw)
	if err != nil {
		return def
	}

	return val
}

// EnvVarOrBool reads key as a bool, accepting whatever strconv.ParseBool does.
func EnvVarOrBool(key string, def bool) bool { return envVarOr(key, def, strconv.ParseBool) }

// EnvVarOrDuration reads key as a time.Duration, e.g. "30s".
func EnvVarOrDuration(key string, def time.Duration) time.Duration {
	return envVarOr(key, def, time.ParseDuration)
}

// EnvVarOrEnv reads key as an Environment, ignoring case.
func EnvVarOrEnv(key string, def Environment) Environment {
	return envVarOr(key, def, func(raw string) (Environment, error) {
		env := Environment(strings.ToUpper(raw))
		return env, env.Valid()
	})
}

// EnvVarOrInt reads key as an int.
func EnvVarOrInt(key string, def int) int { return envVarOr(key, def, strconv.Atoi) }

// EnvVarOrString reads key, returning def when it is unset or empty.
func EnvVarOrString(key, def string) string {
	return envVarOr(key, def, func(raw string) (string, error) { return raw, nil })
}

// EnvVarOrURL reads key as an absolute URL.
// If neither key nor def parse, EnvVarOrURL returns nil.
func EnvVarOrURL(key, def string) *url.URL {
	defURL, err := url.ParseRequestURI(def)
	if err != nil {
		defURL = nil
	}

	return envVarOr(key, defURL, url.ParseRequestURI)
}
