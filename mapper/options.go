package mapper

import (
	"runtime"

	"go.uber.org/zap"

	"rowmapper/binding"
	"rowmapper/creator"
	"rowmapper/handler"
	"rowmapper/options"
)

type settings struct {
	reg      *handler.Registry
	cfg      binding.Config
	creators []creator.Candidate
	logger   *zap.Logger
	flags    options.FlagEnum
	workers  int
}

// Option configures a Reader, a Writer or a Dynamic mapper.
type Option func(*settings)

// WithRegistry replaces the default handler registry.
func WithRegistry(reg *handler.Registry) Option {
	return func(s *settings) {
		s.reg = reg
	}
}

// WithConfig overlays explicit field metadata on the struct tags.
func WithConfig(cfg binding.Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithCreators declares the constructors and factories able to create the record.
// Without any the record starts from its zero value.
func WithCreators(candidates ...creator.Candidate) Option {
	return func(s *settings) {
		s.creators = append(s.creators, candidates...)
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithFlags sets the behaviour flags.
func WithFlags(flags options.FlagEnum) Option {
	return func(s *settings) {
		s.flags = flags
	}
}

// WithWorkers sets the number of goroutines used by batch operations. Values below one
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		reg:    handler.Default(),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.workers < 1 {
		s.workers = runtime.GOMAXPROCS(0)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return s
}

type call struct {
	defaults map[string]string
}

// CallOption adjusts a single Read or Write call.
type CallOption func(*call)

// WithDefaults supplies call-site defaults keyed by column. They win over every
// declared default.
func WithDefaults(defaults map[string]string) CallOption {
	return func(c *call) {
		c.defaults = defaults
	}
}

func newCall(opts []CallOption) call {
	var c call
	for _, opt := range opts {
		opt(&c)
	}

	return c
}
