package blink

import "github.com/tiexiw/blink/types"

// Re-export types from the types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the `types`
// subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `blink`
// package, while still providing a convenient `blink.OperatorID`,
// `blink.Topology`, etc. for users.
type (
	OperatorID          = types.OperatorID
	VertexID            = types.VertexID
	OperatorInstanceID  = types.OperatorInstanceID
	KeyGroupRange       = types.KeyGroupRange
	DistributionMode    = types.DistributionMode
	StreamStateHandle   = types.StreamStateHandle
	StateMeta           = types.StateMeta
	OperatorStateHandle = types.OperatorStateHandle
	SubtaskState        = types.SubtaskState
	OperatorState       = types.OperatorState
	OperatorStates      = types.OperatorStates
	TaskStateSnapshot   = types.TaskStateSnapshot
	CheckpointMetadata  = types.CheckpointMetadata
	Diagnostic          = types.Diagnostic
	DiagnosticKind      = types.DiagnosticKind
)

// Re-export interfaces from the types package for convenience.
type (
	KeyedStateHandle           = types.KeyedStateHandle
	OperatorStateRepartitioner = types.OperatorStateRepartitioner
	MetadataSource             = types.MetadataSource
	Topology                   = types.Topology
	SchedulerSink              = types.SchedulerSink
	MetricsCollector           = types.MetricsCollector
	Logger                     = types.Logger
)

// Re-export DistributionMode constants from the types package.
const (
	SplitDistribute = types.SplitDistribute
	Union           = types.Union
	Broadcast       = types.Broadcast
)

// Re-export DiagnosticKind constants from the types package.
const (
	DiagnosticMaxParallelismOverridden = types.DiagnosticMaxParallelismOverridden
	DiagnosticNonRestoredStateSkipped  = types.DiagnosticNonRestoredStateSkipped
)
