package msci

import (
	"log/slog"

	"github.com/jl2922/msci/parallel"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	exec             *parallel.ExecContext
}

// Option configures System constructor behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := msci.NewJSONLogger(slog.LevelInfo)
//	sys := msci.New(cfg, msci.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
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

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &msci.BasicMetricsCollector{}
//	sys := msci.New(cfg, msci.WithMetricsCollector(metrics))
//	// ... use sys ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithExecContext configures the execution context the System runs under:
// rank, rank count, thread count, and the transport used for snapshot
// replication. The default is a single-rank context with loopback transport.
func WithExecContext(exec *parallel.ExecContext) Option {
	return func(o *options) {
		o.exec = exec
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.exec == nil {
		o.exec = parallel.New()
	}
	return o
}
