package blink

import "github.com/tiexiw/blink/types"

// Option configures an Assigner with optional dependencies.
type Option func(*assignerOptions)

// assignerOptions holds optional Assigner configuration.
type assignerOptions struct {
	repartitioner types.OperatorStateRepartitioner
	logger        types.Logger
	metrics       types.MetricsCollector
	onDiagnostic  func(types.Diagnostic)
}

// WithRepartitioner sets a custom operator-state repartitioner.
//
// The default is redistribute.NewRoundRobin(). Custom repartitioners must be
// deterministic; the produced mapping is observable across restarts.
//
// Parameters:
//   - r: OperatorStateRepartitioner implementation
//
// Returns:
//   - Option: Functional option for NewAssigner
func WithRepartitioner(r types.OperatorStateRepartitioner) Option {
	return func(o *assignerOptions) {
		o.repartitioner = r
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (see internal/logging for slog adapters)
//
// Returns:
//   - Option: Functional option for NewAssigner
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	assigner, err := blink.NewAssigner(cfg, meta, topo, snk, blink.WithLogger(logger))
func WithLogger(logger types.Logger) Option {
	return func(o *assignerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewAssigner
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "blink")
//	assigner, err := blink.NewAssigner(cfg, meta, topo, snk, blink.WithMetrics(collector))
func WithMetrics(metrics types.MetricsCollector) Option {
	return func(o *assignerOptions) {
		o.metrics = metrics
	}
}

// WithDiagnosticHandler sets a callback invoked for every diagnostic the
// reassignment emits (overridden max parallelism, skipped non-restored
// state). Diagnostics are also retained on the Assigner and readable via
// Diagnostics() after the run.
//
// Parameters:
//   - fn: Callback receiving each diagnostic as it is recorded
//
// Returns:
//   - Option: Functional option for NewAssigner
func WithDiagnosticHandler(fn func(types.Diagnostic)) Option {
	return func(o *assignerOptions) {
		o.onDiagnostic = fn
	}
}
