package router

import "github.com/xy-planning-network/switchyard/logger"

type config struct {
	l logger.Logger
}

// An Option configures a Router when constructing a new one.
type Option func(*config)

// WithLogger sets the logger.Logger the Router uses.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}
