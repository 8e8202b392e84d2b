package resolution

import "github.com/rs/zerolog"

type Option func(*options)

type options struct {
	modules []*Module
	logger  zerolog.Logger
}

// WithModules replaces the default modules, the registered ones plus Self.
func WithModules(modules ...*Module) Option {
	return func(o *options) {
		o.modules = append(o.modules, modules...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) resolveModules() []*Module {
	if len(o.modules) == 0 {
		return defaultModules()
	}
	return distinctModules(o.modules)
}
