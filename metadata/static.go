package metadata

import (
	"sync"

	"github.com/tiexiw/blink/types"
)

// Static implements a metadata source with a fixed checkpoint description.
type Static struct {
	mu           sync.RWMutex
	checkpointID uint64
	states       *types.OperatorStates
}

// Compile-time assertion that Static implements MetadataSource.
var _ types.MetadataSource = (*Static)(nil)

// NewStatic creates a new static metadata source.
//
// The source returns a fixed checkpoint description. Useful for testing and
// for embedders that build the prior-execution state index themselves.
//
// Parameters:
//   - checkpointID: Id of the checkpoint to restore from
//   - states: Prior-execution state index
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	states := types.NewOperatorStates()
//	states.Put(operatorState)
//	src := metadata.NewStatic(42, states)
//	meta, _ := src.Metadata()
func NewStatic(checkpointID uint64, states *types.OperatorStates) *Static {
	return &Static{checkpointID: checkpointID, states: states}
}

// Metadata returns the static checkpoint description.
//
// The returned index is a shallow clone, so a reassignment run cannot
// disturb the source.
//
// Returns:
//   - *types.CheckpointMetadata: The checkpoint description
//   - error: Always nil (never fails)
func (s *Static) Metadata() (*types.CheckpointMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &types.CheckpointMetadata{
		CheckpointID:   s.checkpointID,
		OperatorStates: s.states.Clone(),
	}, nil
}

// Update replaces the checkpoint description.
//
// This allows the static source to simulate successive checkpoints, which
// is useful for testing repeated restores.
//
// Parameters:
//   - checkpointID: New checkpoint id
//   - states: New prior-execution state index
func (s *Static) Update(checkpointID uint64, states *types.OperatorStates) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpointID = checkpointID
	s.states = states
}
