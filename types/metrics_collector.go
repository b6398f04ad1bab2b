package types

// MetricsCollector defines methods for recording reassignment metrics.
//
// Implementations must be non-blocking; all methods are called synchronously
// from the reassignment invocation.
//
// This interface composes smaller, domain-focused interfaces.
type MetricsCollector interface {
	AssignerMetrics
	RedistributionMetrics
}

// AssignerMetrics defines metrics for driver-level operations.
type AssignerMetrics interface {
	// RecordAssignmentDuration records one reassignment invocation.
	//
	// Parameters:
	//   - seconds: Wall time of the invocation
	//   - success: true if the invocation completed, false if it aborted
	RecordAssignmentDuration(seconds float64, success bool)

	// RecordVertexAssigned records one vertex whose subtasks were seeded.
	//
	// Parameters:
	//   - operators: Number of operators in the vertex's chain
	//   - subtasks: Number of subtasks that received a snapshot
	RecordVertexAssigned(operators, subtasks int)

	// RecordSnapshotSubmitted records one snapshot handed to the scheduler
	// sink.
	RecordSnapshotSubmitted()

	// RecordDiagnostic records one non-fatal finding.
	//
	// Parameters:
	//   - kind: DiagnosticKind string form
	RecordDiagnostic(kind string)
}

// RedistributionMetrics defines metrics for the redistribution stages.
type RedistributionMetrics interface {
	// RecordKeyedHandlesAssigned records keyed handles placed on new
	// subtasks for one vertex, summed over its operator chain.
	RecordKeyedHandlesAssigned(count int)

	// RecordOperatorHandlesAssigned records operator state handles placed on
	// new subtasks for one vertex, summed over its operator chain.
	RecordOperatorHandlesAssigned(count int)
}
