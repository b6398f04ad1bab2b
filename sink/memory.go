// Package sink provides ready-made SchedulerSink implementations.
package sink

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/tiexiw/blink/types"
)

// Submission is one snapshot handed to the sink.
type Submission struct {
	// Vertex the snapshot belongs to.
	Vertex types.VertexID

	// SubtaskIndex of the seeded attempt.
	SubtaskIndex int

	// Snapshot is the composed restore state.
	Snapshot *types.TaskStateSnapshot

	// RestoreCheckpointID tags the checkpoint the state came from.
	RestoreCheckpointID uint64
}

// Memory implements types.SchedulerSink by recording submissions in memory.
//
// The driver writes single-threaded, but scheduler-side readers may look up
// a subtask's snapshot concurrently while later submissions are still being
// recorded; the per-instance index is a concurrent map for that reason.
// Every operator of a submitted snapshot's chain is indexed under the stable
// hash of its operator instance (subtask index and operator id), so
// independent processes derive identical keys.
type Memory struct {
	mu         sync.Mutex
	order      []Submission
	byInstance *xsync.Map[uint64, Submission]
}

// Compile-time assertion that Memory implements SchedulerSink.
var _ types.SchedulerSink = (*Memory)(nil)

// NewMemory creates an empty in-memory sink.
//
// Returns:
//   - *Memory: Initialized sink
//
// Example:
//
//	snk := sink.NewMemory()
//	assigner, _ := blink.NewAssigner(cfg, meta, topo, snk)
//	_ = assigner.Assign()
//	for _, sub := range snk.Submissions() { /* inspect */ }
func NewMemory() *Memory {
	return &Memory{byInstance: xsync.NewMap[uint64, Submission]()}
}

// SetInitialState records one submission.
//
// Returns:
//   - error: Always nil
func (m *Memory) SetInitialState(vertex types.VertexID, subtaskIndex int, snapshot *types.TaskStateSnapshot, restoreCheckpointID uint64) error {
	sub := Submission{
		Vertex:              vertex,
		SubtaskIndex:        subtaskIndex,
		Snapshot:            snapshot,
		RestoreCheckpointID: restoreCheckpointID,
	}

	m.mu.Lock()
	m.order = append(m.order, sub)
	m.mu.Unlock()

	for _, operatorID := range snapshot.OperatorIDs() {
		key := types.OperatorInstance(subtaskIndex, operatorID).StableHash()
		m.byInstance.Store(key, sub)
	}

	return nil
}

// Submissions returns all recorded submissions in submission order.
func (m *Memory) Submissions() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Submission, len(m.order))
	copy(out, m.order)

	return out
}

// Snapshot looks up the submission that seeded one operator instance.
//
// Parameters:
//   - subtaskIndex: New subtask index
//   - operatorID: Any operator of the subtask's chain
//
// Returns:
//   - Submission: The recorded submission
//   - bool: false if the instance received no state
func (m *Memory) Snapshot(subtaskIndex int, operatorID types.OperatorID) (Submission, bool) {
	return m.byInstance.Load(types.OperatorInstance(subtaskIndex, operatorID).StableHash())
}

// Len returns the number of recorded submissions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.order)
}
