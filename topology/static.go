// Package topology provides an in-memory implementation of the Topology
// interface for embedders and tests.
package topology

import (
	"fmt"

	"github.com/tiexiw/blink/types"
)

// VertexSpec describes one job vertex of the new execution.
type VertexSpec struct {
	// ID identifies the vertex.
	ID types.VertexID

	// OperatorIDs is the vertex's operator chain in chain order; the head
	// operator is the one at the last index.
	OperatorIDs []types.OperatorID

	// AltOperatorIDs optionally maps each chain position to the operator id
	// used by a previous job version. Either empty, or the same length as
	// OperatorIDs with zero entries marking positions without an alternate.
	AltOperatorIDs []types.OperatorID

	// Parallelism is the vertex's current parallelism (> 0).
	Parallelism int

	// MaxParallelism is the vertex's current max parallelism (>= Parallelism).
	MaxParallelism int

	// MaxParallelismConfigured marks the max parallelism as user-fixed.
	// Derived values may be overridden during restore; fixed ones may not.
	MaxParallelismConfigured bool
}

type vertexEntry struct {
	spec VertexSpec
}

// Static implements types.Topology backed by a fixed set of vertex specs.
//
// Vertices iterate in insertion order, which makes the driver's vertex
// order, and with it the scheduler sink's submission order, deterministic.
type Static struct {
	order []types.VertexID
	byID  map[types.VertexID]*vertexEntry
}

// Compile-time assertion that Static implements Topology.
var _ types.Topology = (*Static)(nil)

// NewStatic creates a topology from a fixed set of vertex specs.
//
// Parameters:
//   - specs: One spec per vertex; iteration order follows argument order
//
// Returns:
//   - *Static: Initialized topology
//   - error: Validation error for duplicate vertices, non-positive
//     parallelism, max parallelism below parallelism, or an alternate id
//     list of the wrong length
func NewStatic(specs ...VertexSpec) (*Static, error) {
	s := &Static{byID: make(map[types.VertexID]*vertexEntry, len(specs))}
	for _, spec := range specs {
		if _, exists := s.byID[spec.ID]; exists {
			return nil, fmt.Errorf("duplicate vertex %s", spec.ID)
		}
		if spec.Parallelism <= 0 {
			return nil, fmt.Errorf("%w: vertex %s has parallelism %d",
				types.ErrInvalidParallelism, spec.ID, spec.Parallelism)
		}
		if spec.MaxParallelism < spec.Parallelism {
			return nil, fmt.Errorf("%w: vertex %s has max parallelism %d below parallelism %d",
				types.ErrInvalidParallelism, spec.ID, spec.MaxParallelism, spec.Parallelism)
		}
		if len(spec.AltOperatorIDs) != 0 && len(spec.AltOperatorIDs) != len(spec.OperatorIDs) {
			return nil, fmt.Errorf("%w: vertex %s declares %d operators but %d alternate ids",
				types.ErrChainLengthMismatch, spec.ID, len(spec.OperatorIDs), len(spec.AltOperatorIDs))
		}
		entry := &vertexEntry{spec: spec}
		if len(spec.AltOperatorIDs) == 0 {
			entry.spec.AltOperatorIDs = make([]types.OperatorID, len(spec.OperatorIDs))
		}
		s.order = append(s.order, spec.ID)
		s.byID[spec.ID] = entry
	}

	return s, nil
}

// Vertices returns all vertex ids in insertion order.
func (s *Static) Vertices() []types.VertexID {
	out := make([]types.VertexID, len(s.order))
	copy(out, s.order)

	return out
}

// OperatorIDs returns the vertex's operator chain in chain order.
func (s *Static) OperatorIDs(vertex types.VertexID) []types.OperatorID {
	entry, ok := s.byID[vertex]
	if !ok {
		return nil
	}
	out := make([]types.OperatorID, len(entry.spec.OperatorIDs))
	copy(out, entry.spec.OperatorIDs)

	return out
}

// AltOperatorIDs returns the alternate operator ids, one entry per chain
// position, with zero values marking absent entries.
func (s *Static) AltOperatorIDs(vertex types.VertexID) []types.OperatorID {
	entry, ok := s.byID[vertex]
	if !ok {
		return nil
	}
	out := make([]types.OperatorID, len(entry.spec.AltOperatorIDs))
	copy(out, entry.spec.AltOperatorIDs)

	return out
}

// Parallelism returns the vertex's current parallelism, or 0 for an unknown
// vertex.
func (s *Static) Parallelism(vertex types.VertexID) int {
	entry, ok := s.byID[vertex]
	if !ok {
		return 0
	}

	return entry.spec.Parallelism
}

// MaxParallelism returns the vertex's current max parallelism, or 0 for an
// unknown vertex.
func (s *Static) MaxParallelism(vertex types.VertexID) int {
	entry, ok := s.byID[vertex]
	if !ok {
		return 0
	}

	return entry.spec.MaxParallelism
}

// IsMaxParallelismConfigured reports whether the max parallelism was fixed
// by the user.
func (s *Static) IsMaxParallelismConfigured(vertex types.VertexID) bool {
	entry, ok := s.byID[vertex]
	if !ok {
		return false
	}

	return entry.spec.MaxParallelismConfigured
}

// SetMaxParallelism overrides the vertex's max parallelism.
//
// Parameters:
//   - vertex: Vertex to mutate
//   - maxParallelism: New max parallelism (>= the vertex's parallelism)
//
// Returns:
//   - error: ErrInvalidParallelism for an unknown vertex or a value below
//     the vertex's parallelism
func (s *Static) SetMaxParallelism(vertex types.VertexID, maxParallelism int) error {
	entry, ok := s.byID[vertex]
	if !ok {
		return fmt.Errorf("%w: unknown vertex %s", types.ErrInvalidParallelism, vertex)
	}
	if maxParallelism < entry.spec.Parallelism {
		return fmt.Errorf("%w: max parallelism %d below parallelism %d for vertex %s",
			types.ErrInvalidParallelism, maxParallelism, entry.spec.Parallelism, vertex)
	}
	entry.spec.MaxParallelism = maxParallelism

	return nil
}
