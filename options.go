package atomstore

import "log/slog"

type options struct {
	capStructures int
	capAtoms      int
	maxBytes      int64
	logger        *Logger
}

// Option configures Storage constructor behavior.
type Option func(*options)

// WithCapacity pre-sizes the container for the expected number of structures
// and total atoms. This is a performance hint, not a hard bound: the
// container still grows past it.
func WithCapacity(structures, atoms int) Option {
	return func(o *options) {
		if structures > 0 {
			o.capStructures = structures
		}
		if atoms > 0 {
			o.capAtoms = atoms
		}
	}
}

// WithMaxBytes sets an approximate upper bound on the memory held by the
// container's buffers. Growth that would exceed the budget fails with
// ErrAllocation. Zero (the default) disables the budget.
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		o.maxBytes = n
	}
}

// WithLogger configures structured logging for ingestion, growth and
// persistence events. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		capStructures: 1,
		capAtoms:      1,
		logger:        NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
