// Package session ties the components of one search together.
//
// A session owns the caches that are shared by all states of a search, i.e.
// the allocation context pool. Init has to be called before the first state
// is built and Reset once the search is done.
package session

import (
	"io"
	"log/slog"

	"bytemc/allocation"
	"bytemc/choice"
	"bytemc/classes"
	"bytemc/config"
	"bytemc/heap"
	"bytemc/kernel"
	"bytemc/logging"
	"bytemc/metrics"
	"bytemc/scheduler"
	"bytemc/serialize"
	"bytemc/state"
	"bytemc/statics"
	"bytemc/thread"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type Session struct {
	ID      uuid.UUID
	Config  *config.Config
	Log     *slog.Logger
	Metrics *metrics.Metrics
	// The registry of the metrics if the session created it, otherwise nil
	Registry *prometheus.Registry

	pool *allocation.Pool
}

// Create a session configured by the provided options.
//
// Possible options are:
//
// config.ConfigOption - the knobs of the search.
// Default value is an empty Config.
//
// config.LoggerOption - the logger used by all components.
// Default value is built from the log.* knobs.
//
// config.LogWriterOption - where the default logger writes.
// Default value is stderr.
//
// config.RegistererOption - where the metrics are registered.
// Default value is a new registry, available as Registry.
func New(opts ...config.SessionOpt) (*Session, error) {
	var (
		cfg    = config.New(nil)
		logger *slog.Logger
		w      io.Writer
		reg    prometheus.Registerer
	)
	for _, opt := range opts {
		switch t := opt.(type) {
		case config.ConfigOption:
			cfg = t.C
		case config.LoggerOption:
			logger = t.L
		case config.LogWriterOption:
			w = t.W
		case config.RegistererOption:
			reg = t.R
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		var err error
		if logger, err = logging.New(cfg, w); err != nil {
			return nil, err
		}
	}

	s := &Session{
		ID:     uuid.New(),
		Config: cfg,
		pool:   allocation.NewPool(),
	}
	if reg == nil {
		s.Registry = prometheus.NewRegistry()
		reg = s.Registry
	}
	s.Log = logger.With("session", s.ID.String())
	s.Metrics = metrics.New(reg)
	return s, nil
}

// Initialize the caches of the session
func (s *Session) Init() {
	s.pool.Init()
	s.Log.Info("Session started")
}

// Release the caches of the session. States built by the session must not be used afterwards
func (s *Session) Reset() {
	s.Log.Info("Session finished",
		"executionContexts", s.pool.NumExecutionContexts(),
		"allocationContexts", s.pool.NumAllocationContexts(),
	)
	s.pool.Reset()
}

func (s *Session) Pool() *allocation.Pool {
	return s.pool
}

// Create an empty program state with the system class loader.
// Allocations, collections and snapshots are reported to the session metrics.
func (s *Session) NewKernelState(provider classes.Provider) *kernel.KernelState {
	h := heap.New(s.pool, provider, s.Config, s.Log.With("component", "heap"))
	h.AddListener(s.Metrics)
	loaders := statics.NewClassLoaderList()
	loaders.Add(statics.NewClassLoader(0, "system"))
	ks := kernel.New(h, thread.NewList(), loaders, s.Log.With("component", "kernel"))
	ks.AddObserver(s.Metrics)
	return ks
}

func (s *Session) NewSystemState() *state.SystemState {
	return state.New()
}

// Create the scheduler factory for ks and ss.
// With cg.randomize_choices the candidate threads are shuffled based on cg.seed.
func (s *Session) NewSchedulerFactory(ks *kernel.KernelState, ss *state.SystemState) *scheduler.DefaultFactory {
	f := scheduler.NewDefaultFactory(s.Config, ks.Threads(), ss)
	f.AddObserver(s.Metrics)
	if s.Config.Bool(config.RandomizeChoices, false) {
		f.AddFilter(scheduler.ShuffleFilter(s.Config.Int64(config.Seed, 42)))
	}
	return f
}

// Create the randomizer for data choices
func (s *Session) NewRandomizer() *choice.Randomizer {
	return choice.NewRandomizer(s.Config)
}

func (s *Session) NewSerializer() *serialize.Serializer {
	return serialize.New(s.Config)
}
