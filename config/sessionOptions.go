package config

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// An option configuring a search session
type SessionOpt interface {
	SessionOpt()
}

// Configures the knobs used by the session.

// Default value is an empty Config, i.e. every knob has its default value.
type ConfigOption struct {
	C *Config
}

func (co ConfigOption) SessionOpt() {}

// Configures the logger used by the components of the session.

// Default value is a logger built from the log.* knobs writing to stderr.
type LoggerOption struct {
	L *slog.Logger
}

func (lo LoggerOption) SessionOpt() {}

// Configures where log output is written when no LoggerOption is given.

// Default value is stderr.
type LogWriterOption struct {
	W io.Writer
}

func (lwo LogWriterOption) SessionOpt() {}

// Configures the prometheus registerer that the session metrics are registered with.

// Default value is a new private registry.
type RegistererOption struct {
	R prometheus.Registerer
}

func (ro RegistererOption) SessionOpt() {}
