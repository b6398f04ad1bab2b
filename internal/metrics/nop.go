package metrics

import "github.com/tiexiw/blink/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external metrics
// collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// AssignerMetrics implementation

// RecordAssignmentDuration discards the metric.
func (n *NopMetrics) RecordAssignmentDuration(_ /* seconds */ float64, _ /* success */ bool) {
	// No-op
}

// RecordVertexAssigned discards the metric.
func (n *NopMetrics) RecordVertexAssigned(_ /* operators */, _ /* subtasks */ int) {
	// No-op
}

// RecordSnapshotSubmitted discards the metric.
func (n *NopMetrics) RecordSnapshotSubmitted() {
	// No-op
}

// RecordDiagnostic discards the metric.
func (n *NopMetrics) RecordDiagnostic(_ /* kind */ string) {
	// No-op
}

// RedistributionMetrics implementation

// RecordKeyedHandlesAssigned discards the metric.
func (n *NopMetrics) RecordKeyedHandlesAssigned(_ /* count */ int) {
	// No-op
}

// RecordOperatorHandlesAssigned discards the metric.
func (n *NopMetrics) RecordOperatorHandlesAssigned(_ /* count */ int) {
	// No-op
}
