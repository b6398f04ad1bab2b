// Package types defines the core value types and interfaces shared across
// the blink library.
//
// It contains the identifier and range primitives (OperatorID, VertexID,
// KeyGroupRange, OperatorInstanceID), the state handle model
// (KeyedStateHandle, OperatorStateHandle, SubtaskState, TaskStateSnapshot),
// the prior-execution state index (OperatorState, OperatorStates), and the
// narrow interfaces the reassignment core consumes (Topology) and produces
// into (SchedulerSink).
//
// Keeping these definitions in a leaf package allows internal packages to
// depend on them without importing the root blink package, avoiding import
// cycles. The root package re-exports the common types as aliases for
// convenience.
package types
