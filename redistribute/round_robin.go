package redistribute

import (
	"fmt"
	"sort"

	"github.com/tiexiw/blink/types"
)

// RoundRobin implements deterministic round-robin operator-state
// repartitioning.
//
// Per state stream name, the sub-partitions of all old subtasks form an
// ordered list (old subtask index ascending, then original offset order
// within a subtask). SplitDistribute streams assign element k of that list
// to new subtask k mod P; Union streams hand the full list to every new
// subtask; Broadcast streams hand every new subtask the copy held by the
// lowest old subtask that recorded the stream.
type RoundRobin struct{}

// Compile-time assertion that RoundRobin implements OperatorStateRepartitioner.
var _ types.OperatorStateRepartitioner = (*RoundRobin)(nil)

// NewRoundRobin creates a new round-robin repartitioner.
//
// Returns:
//   - *RoundRobin: Initialized repartitioner
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// subPartition is one redistributable unit: a single offset of one named
// stream inside one source handle.
type subPartition struct {
	source *types.OperatorStateHandle
	offset int64
}

// outputBuilder accumulates the sub-partitions assigned to one new subtask,
// grouped by source handle so each delegate stream yields one output handle.
type outputBuilder struct {
	order []*types.OperatorStateHandle
	metas map[*types.OperatorStateHandle]map[string]types.StateMeta
}

func newOutputBuilder() *outputBuilder {
	return &outputBuilder{metas: make(map[*types.OperatorStateHandle]map[string]types.StateMeta)}
}

func (b *outputBuilder) add(name string, mode types.DistributionMode, p subPartition) {
	meta, ok := b.metas[p.source]
	if !ok {
		meta = make(map[string]types.StateMeta)
		b.metas[p.source] = meta
		b.order = append(b.order, p.source)
	}
	entry := meta[name]
	entry.Mode = mode
	entry.Offsets = append(entry.Offsets, p.offset)
	meta[name] = entry
}

func (b *outputBuilder) build() []*types.OperatorStateHandle {
	out := make([]*types.OperatorStateHandle, 0, len(b.order))
	for _, source := range b.order {
		out = append(out, types.NewOperatorStateHandle(source.Delegate(), b.metas[source]))
	}

	return out
}

// Repartition redistributes the handles of all old subtasks across
// newParallelism new subtasks.
//
// The result shares delegate streams with the input; only the per-stream
// offset metadata is narrowed. Handles are never mutated.
//
// Parameters:
//   - perOldSubtask: Handle lists indexed by old subtask
//   - newParallelism: Number of new subtasks (> 0)
//
// Returns:
//   - [][]*types.OperatorStateHandle: Handle lists indexed by new subtask
//   - error: ErrInvalidParallelism for a non-positive parallelism,
//     ErrInternalInvariant when one stream name carries conflicting
//     distribution modes
func (rr *RoundRobin) Repartition(perOldSubtask [][]*types.OperatorStateHandle, newParallelism int) ([][]*types.OperatorStateHandle, error) {
	if newParallelism <= 0 {
		return nil, fmt.Errorf("%w: new parallelism %d", types.ErrInvalidParallelism, newParallelism)
	}

	modes, names, err := collectStreamModes(perOldSubtask)
	if err != nil {
		return nil, err
	}

	builders := make([]*outputBuilder, newParallelism)
	for i := range builders {
		builders[i] = newOutputBuilder()
	}

	for _, name := range names {
		mode := modes[name]
		switch mode {
		case types.SplitDistribute:
			partitions := collectSubPartitions(perOldSubtask, name)
			for k, p := range partitions {
				builders[k%newParallelism].add(name, mode, p)
			}
		case types.Union:
			partitions := collectSubPartitions(perOldSubtask, name)
			for _, b := range builders {
				for _, p := range partitions {
					b.add(name, mode, p)
				}
			}
		case types.Broadcast:
			partitions := lowestSubtaskPartitions(perOldSubtask, name)
			for _, b := range builders {
				for _, p := range partitions {
					b.add(name, mode, p)
				}
			}
		default:
			return nil, fmt.Errorf("%w: unknown distribution mode %d for stream %q",
				types.ErrInternalInvariant, mode, name)
		}
	}

	out := make([][]*types.OperatorStateHandle, newParallelism)
	for i, b := range builders {
		out[i] = b.build()
	}

	return out, nil
}

// collectStreamModes gathers every stream name with its distribution mode,
// rejecting names that appear with conflicting modes. Names are returned
// sorted for a deterministic redistribution order.
func collectStreamModes(perOldSubtask [][]*types.OperatorStateHandle) (map[string]types.DistributionMode, []string, error) {
	modes := make(map[string]types.DistributionMode)
	for _, handles := range perOldSubtask {
		for _, handle := range handles {
			if handle == nil {
				continue
			}
			for _, stream := range handle.Streams() {
				if mode, seen := modes[stream.Name]; seen {
					if mode != stream.Meta.Mode {
						return nil, nil, fmt.Errorf("%w: stream %q recorded with modes %s and %s",
							types.ErrInternalInvariant, stream.Name, mode, stream.Meta.Mode)
					}

					continue
				}
				modes[stream.Name] = stream.Meta.Mode
			}
		}
	}

	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)

	return modes, names, nil
}

// collectSubPartitions flattens one stream's sub-partitions across all old
// subtasks: old subtask index ascending, handle order within a subtask,
// offset order within a handle.
func collectSubPartitions(perOldSubtask [][]*types.OperatorStateHandle, name string) []subPartition {
	var out []subPartition
	for _, handles := range perOldSubtask {
		for _, handle := range handles {
			if handle == nil {
				continue
			}
			meta, ok := handle.Meta(name)
			if !ok {
				continue
			}
			for _, offset := range meta.Offsets {
				out = append(out, subPartition{source: handle, offset: offset})
			}
		}
	}

	return out
}

// lowestSubtaskPartitions returns the stream's sub-partitions of the lowest
// old subtask that recorded it. The producer guarantees all old copies of a
// broadcast stream are identical; picking the lowest index locks the choice
// deterministically.
func lowestSubtaskPartitions(perOldSubtask [][]*types.OperatorStateHandle, name string) []subPartition {
	for _, handles := range perOldSubtask {
		var out []subPartition
		for _, handle := range handles {
			if handle == nil {
				continue
			}
			meta, ok := handle.Meta(name)
			if !ok {
				continue
			}
			for _, offset := range meta.Offsets {
				out = append(out, subPartition{source: handle, offset: offset})
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	return nil
}

// Apply runs the repartitioner unless the identity fast path holds.
//
// The fast path forwards each old subtask's handles verbatim when the
// parallelism is unchanged and no stream uses Union distribution; a single
// union stream forces the full redistribution, because union state must be
// re-fanned-out even at identical parallelism.
//
// Parameters:
//   - r: Repartitioner to apply
//   - perOldSubtask: Handle lists indexed by old subtask
//   - newParallelism: Number of new subtasks (> 0)
//
// Returns:
//   - [][]*types.OperatorStateHandle: Handle lists indexed by new subtask
//   - error: Propagated from the repartitioner
func Apply(r types.OperatorStateRepartitioner, perOldSubtask [][]*types.OperatorStateHandle, newParallelism int) ([][]*types.OperatorStateHandle, error) {
	if newParallelism == len(perOldSubtask) && !hasUnionStream(perOldSubtask) {
		out := make([][]*types.OperatorStateHandle, len(perOldSubtask))
		copy(out, perOldSubtask)

		return out, nil
	}

	return r.Repartition(perOldSubtask, newParallelism)
}

func hasUnionStream(perOldSubtask [][]*types.OperatorStateHandle) bool {
	for _, handles := range perOldSubtask {
		for _, handle := range handles {
			if handle != nil && handle.HasUnionStream() {
				return true
			}
		}
	}

	return false
}
