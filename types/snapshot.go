package types

// TaskStateSnapshot is the composed restore state for one new subtask
// attempt: for every operator in the subtask's chain, the SubtaskState it
// resumes from, tagged with the checkpoint that produced it.
type TaskStateSnapshot struct {
	restoreCheckpointID uint64
	order               []OperatorID
	byOperator          map[OperatorID]*SubtaskState
}

// NewTaskStateSnapshot creates an empty snapshot for one restore.
//
// Parameters:
//   - restoreCheckpointID: Id of the checkpoint the state is restored from
func NewTaskStateSnapshot(restoreCheckpointID uint64) *TaskStateSnapshot {
	return &TaskStateSnapshot{
		restoreCheckpointID: restoreCheckpointID,
		byOperator:          make(map[OperatorID]*SubtaskState),
	}
}

// RestoreCheckpointID returns the id of the checkpoint the state is restored
// from.
func (t *TaskStateSnapshot) RestoreCheckpointID() uint64 {
	return t.restoreCheckpointID
}

// PutSubtaskState records the restore state of one operator in the chain.
// Insertion order is kept; replacing keeps the original position.
func (t *TaskStateSnapshot) PutSubtaskState(id OperatorID, state *SubtaskState) {
	if _, exists := t.byOperator[id]; !exists {
		t.order = append(t.order, id)
	}
	t.byOperator[id] = state
}

// SubtaskState returns the restore state of one operator.
//
// Returns:
//   - *SubtaskState: The operator's restore state
//   - bool: false if the operator is not in the snapshot
func (t *TaskStateSnapshot) SubtaskState(id OperatorID) (*SubtaskState, bool) {
	state, ok := t.byOperator[id]

	return state, ok
}

// OperatorIDs returns the operator ids in insertion (chain) order.
func (t *TaskStateSnapshot) OperatorIDs() []OperatorID {
	ids := make([]OperatorID, len(t.order))
	copy(ids, t.order)

	return ids
}

// HasState reports whether any operator in the snapshot carries state.
func (t *TaskStateSnapshot) HasState() bool {
	for _, state := range t.byOperator {
		if state.HasState() {
			return true
		}
	}

	return false
}
