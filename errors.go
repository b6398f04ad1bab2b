package blink

import "errors"

// Sentinel errors returned by the Assigner constructor.
//
// Errors produced during reassignment itself are the typed kinds in the
// types package (types.ErrMaxParallelismTooLow, types.ErrUnmappedState, ...)
// and are checked with errors.Is.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMetadataRequired is returned when checkpoint metadata is nil.
	ErrMetadataRequired = errors.New("checkpoint metadata is required")

	// ErrTopologyRequired is returned when the topology is nil.
	ErrTopologyRequired = errors.New("topology is required")

	// ErrSinkRequired is returned when the scheduler sink is nil.
	ErrSinkRequired = errors.New("scheduler sink is required")
)
