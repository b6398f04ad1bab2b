package blink

import (
	"fmt"
	"time"

	"github.com/tiexiw/blink/internal/logging"
	"github.com/tiexiw/blink/internal/metrics"
	"github.com/tiexiw/blink/redistribute"
	"github.com/tiexiw/blink/types"
)

// Assigner redistributes the persisted state of a prior execution across the
// new set of parallel subtasks when a job restarts or rescales.
//
// The Assigner is the main entry point of the blink library. One invocation
// of Assign:
//   - validates the restored state against the new topology (max
//     parallelism, operator-id coverage, structural invariants),
//   - partitions the key-group space for the new parallelism,
//   - redistributes keyed state by key-group intersection and operator
//     state by distribution mode,
//   - composes one TaskStateSnapshot per stateful subtask and hands them to
//     the scheduler sink in (vertex, subtask index) ascending order.
//
// Concurrency:
//   - Assign runs single-threaded and synchronously on the caller's
//     goroutine; it performs no I/O and acquires no locks.
//   - An Assigner is not safe for concurrent use; run one invocation at a
//     time.
//
// Failure model:
//   - Preconditions and redistribution run before any result is
//     observable; on any error from them the sink receives zero submissions
//     and the topology override is the only possible side effect.
//   - A sink error stops delivery at the failing snapshot; snapshots the
//     sink accepted before it are not withdrawn.
//   - Errors are typed sentinels from the types package, checked with
//     errors.Is.
type Assigner struct {
	cfg      Config
	metadata *types.CheckpointMetadata
	topology types.Topology
	sink     types.SchedulerSink

	// Optional dependencies
	repartitioner types.OperatorStateRepartitioner
	logger        types.Logger
	metrics       types.MetricsCollector
	onDiagnostic  func(types.Diagnostic)

	diagnostics []types.Diagnostic
}

// NewAssigner creates a new Assigner for one restore.
//
// Returns a concrete *Assigner struct following the "accept interfaces,
// return structs" principle. Consumers can define their own interfaces for
// testing if needed.
//
// Parameters:
//   - cfg: Reassignment configuration
//   - metadata: Checkpoint metadata with the prior-execution state index
//   - topology: Read-only view of the new execution
//   - sink: Receiver of the composed restore snapshots
//   - opts: Optional configuration (repartitioner, logger, metrics,
//     diagnostic handler)
//
// Returns:
//   - *Assigner: Initialized assigner
//   - error: Validation error if a required dependency is missing
//
// Example:
//
//	assigner, err := blink.NewAssigner(blink.DefaultConfig(), meta, topo, snk)
//	if err != nil { /* handle */ }
//	err = assigner.Assign()
func NewAssigner(cfg *Config, metadata *types.CheckpointMetadata, topology types.Topology, sink types.SchedulerSink, opts ...Option) (*Assigner, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if metadata == nil || metadata.OperatorStates == nil {
		return nil, ErrMetadataRequired
	}
	if topology == nil {
		return nil, ErrTopologyRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}

	resolved := *cfg
	ApplyDefaults(&resolved)
	if err := resolved.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	options := assignerOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.repartitioner == nil {
		options.repartitioner = redistribute.NewRoundRobin()
	}
	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}

	return &Assigner{
		cfg:           resolved,
		metadata:      metadata,
		topology:      topology,
		sink:          sink,
		repartitioner: options.repartitioner,
		logger:        options.logger,
		metrics:       options.metrics,
		onDiagnostic:  options.onDiagnostic,
	}, nil
}

// Assign redistributes the restored state across all subtasks of all
// vertices and submits the resulting snapshots to the scheduler sink.
//
// Returns:
//   - error: The first violation encountered, in which case the sink
//     receives zero submissions, or the first sink error, in which case the
//     submissions made before it stay with the sink
func (a *Assigner) Assign() error {
	return a.assign(nil)
}

// AssignSubtasks redistributes the restored state but submits snapshots
// only for the listed subtask indexes of the listed vertices.
//
// The redistribution itself is always computed over the full parallelism,
// so a subtask's snapshot is identical whether or not its siblings are
// submitted; this is what single-attempt failover restore relies on.
//
// Parameters:
//   - subtasks: Subtask indexes to seed, per vertex; vertices absent from
//     the map receive no submissions
//
// Returns:
//   - error: The first violation encountered
func (a *Assigner) AssignSubtasks(subtasks map[types.VertexID][]int) error {
	filter := make(map[types.VertexID]map[int]bool, len(subtasks))
	for vertex, indexes := range subtasks {
		set := make(map[int]bool, len(indexes))
		for _, idx := range indexes {
			set[idx] = true
		}
		filter[vertex] = set
	}

	return a.assign(filter)
}

// Diagnostics returns the non-fatal findings of the most recent invocation.
func (a *Assigner) Diagnostics() []types.Diagnostic {
	out := make([]types.Diagnostic, len(a.diagnostics))
	copy(out, a.diagnostics)

	return out
}

// submission is one pending sink call, buffered so that a failed
// precondition or redistribution leaves the sink untouched.
type submission struct {
	vertex       types.VertexID
	subtaskIndex int
	snapshot     *types.TaskStateSnapshot
}

// vertexPlan is the resolved chain of one stateful vertex: the new operator
// ids in chain order and, per position, the matched prior state (nil for
// positions without recorded state).
type vertexPlan struct {
	vertex      types.VertexID
	operatorIDs []types.OperatorID
	states      []*types.OperatorState
}

func (a *Assigner) assign(filter map[types.VertexID]map[int]bool) (err error) {
	start := time.Now()
	defer func() {
		a.metrics.RecordAssignmentDuration(time.Since(start).Seconds(), err == nil)
	}()

	a.diagnostics = nil

	plans, err := a.planVertices()
	if err != nil {
		return err
	}

	var submissions []submission
	for _, plan := range plans {
		if err := a.checkVertexPreconditions(plan); err != nil {
			return err
		}
	}
	for _, plan := range plans {
		subs, err := a.buildVertexAssignments(plan, filter[plan.vertex], filter != nil)
		if err != nil {
			return err
		}
		submissions = append(submissions, subs...)
	}

	for _, sub := range submissions {
		if err := a.sink.SetInitialState(sub.vertex, sub.subtaskIndex, sub.snapshot, a.metadata.CheckpointID); err != nil {
			return fmt.Errorf("submit state for subtask %d of vertex %s: %w", sub.subtaskIndex, sub.vertex, err)
		}
		a.metrics.RecordSnapshotSubmitted()
	}

	a.logger.Info("restore state assigned",
		"checkpointId", a.metadata.CheckpointID,
		"vertices", len(plans),
		"snapshots", len(submissions))

	return nil
}

// planVertices matches the prior-execution state index against every
// vertex's operator chain and verifies operator-id coverage. Matching is by
// elimination: whatever remains in the index afterwards has no operator in
// the new topology.
func (a *Assigner) planVertices() ([]*vertexPlan, error) {
	local := a.metadata.OperatorStates.Clone()

	var plans []*vertexPlan
	for _, vertex := range a.topology.Vertices() {
		operatorIDs := a.topology.OperatorIDs(vertex)
		if len(operatorIDs) == 0 {
			continue
		}
		altIDs := a.topology.AltOperatorIDs(vertex)
		if len(altIDs) != len(operatorIDs) {
			return nil, fmt.Errorf("%w: vertex %s declares %d operators but %d alternate ids",
				types.ErrChainLengthMismatch, vertex, len(operatorIDs), len(altIDs))
		}

		plan := &vertexPlan{
			vertex:      vertex,
			operatorIDs: operatorIDs,
			states:      make([]*types.OperatorState, len(operatorIDs)),
		}
		stateless := true
		for i := range operatorIDs {
			// Restored state from a previous job version is recorded under
			// the alternate id when one is declared for the position.
			key := operatorIDs[i]
			if !altIDs[i].IsZero() {
				key = altIDs[i]
			}
			if state, ok := local.Remove(key); ok {
				plan.states[i] = state
				stateless = false
			}
		}
		if stateless {
			continue
		}
		plans = append(plans, plan)
	}

	for _, id := range local.IDs() {
		if !a.cfg.AllowNonRestoredState {
			return nil, fmt.Errorf("%w: operator %s", types.ErrUnmappedState, id)
		}
		a.diagnose(types.Diagnostic{
			Kind:       types.DiagnosticNonRestoredStateSkipped,
			OperatorID: id,
			Message:    fmt.Sprintf("skipped checkpoint state for operator %s", id),
		})
	}

	return plans, nil
}

// checkVertexPreconditions verifies the parallelism preconditions of one
// vertex and the head-operator keyed-state invariant before any assignment
// result becomes observable.
func (a *Assigner) checkVertexPreconditions(plan *vertexPlan) error {
	newParallelism := a.topology.Parallelism(plan.vertex)
	if newParallelism <= 0 {
		return fmt.Errorf("%w: vertex %s has parallelism %d",
			types.ErrInvalidParallelism, plan.vertex, newParallelism)
	}

	headIndex := len(plan.states) - 1
	for i, state := range plan.states {
		if state == nil {
			continue
		}
		if state.MaxParallelism() < newParallelism {
			return fmt.Errorf("%w: operator %s restored with max parallelism %d, vertex %s now runs %d subtasks",
				types.ErrMaxParallelismTooLow, state.OperatorID(), state.MaxParallelism(), plan.vertex, newParallelism)
		}
		if state.MaxParallelism() != a.topology.MaxParallelism(plan.vertex) {
			if a.topology.IsMaxParallelismConfigured(plan.vertex) {
				return fmt.Errorf("%w: operator %s restored with max parallelism %d, vertex %s configured with %d",
					types.ErrMaxParallelismMismatch, state.OperatorID(), state.MaxParallelism(),
					plan.vertex, a.topology.MaxParallelism(plan.vertex))
			}
			previous := a.topology.MaxParallelism(plan.vertex)
			if err := a.topology.SetMaxParallelism(plan.vertex, state.MaxParallelism()); err != nil {
				return fmt.Errorf("%w: override max parallelism of vertex %s: %w",
					types.ErrInternalInvariant, plan.vertex, err)
			}
			a.logger.Debug("overriding maximum parallelism",
				"vertex", plan.vertex.String(),
				"from", previous,
				"to", state.MaxParallelism())
			a.diagnose(types.Diagnostic{
				Kind:       types.DiagnosticMaxParallelismOverridden,
				OperatorID: state.OperatorID(),
				VertexID:   plan.vertex,
				Message: fmt.Sprintf("max parallelism of vertex %s overridden from %d to %d",
					plan.vertex, previous, state.MaxParallelism()),
			})
		}
		if i != headIndex && operatorHasKeyedState(state) {
			return fmt.Errorf("%w: operator %s at chain position %d of vertex %s",
				types.ErrKeyedStateOnNonHeadOperator, state.OperatorID(), i, plan.vertex)
		}
	}

	return nil
}

// buildVertexAssignments redistributes one vertex's state and composes the
// per-subtask snapshots. Nothing is submitted here; the caller buffers the
// result until every vertex succeeded.
func (a *Assigner) buildVertexAssignments(plan *vertexPlan, include map[int]bool, filtered bool) ([]submission, error) {
	newParallelism := a.topology.Parallelism(plan.vertex)
	maxParallelism := a.topology.MaxParallelism(plan.vertex)
	verify := a.cfg.validateIntersections()

	// Positions without recorded state get empty placeholders carrying the
	// vertex's final parallelism settings, so every chain position
	// participates uniformly in redistribution.
	states := make([]*types.OperatorState, len(plan.states))
	for i, state := range plan.states {
		if state != nil {
			states[i] = state

			continue
		}
		placeholder, err := types.NewOperatorState(plan.operatorIDs[i], newParallelism, maxParallelism)
		if err != nil {
			return nil, fmt.Errorf("%w: placeholder for operator %s: %w",
				types.ErrInternalInvariant, plan.operatorIDs[i], err)
		}
		states[i] = placeholder
	}

	partitions, err := redistribute.CreateKeyGroupPartitions(maxParallelism, newParallelism)
	if err != nil {
		return nil, fmt.Errorf("vertex %s: %w", plan.vertex, err)
	}

	managedOperator := make([][][]*types.OperatorStateHandle, len(states))
	rawOperator := make([][][]*types.OperatorStateHandle, len(states))
	for pos, state := range states {
		perOldManaged := make([][]*types.OperatorStateHandle, state.Parallelism())
		perOldRaw := make([][]*types.OperatorStateHandle, state.Parallelism())
		for i := 0; i < state.Parallelism(); i++ {
			if subtask := state.Subtask(i); subtask != nil {
				perOldManaged[i] = subtask.ManagedOperatorState
				perOldRaw[i] = subtask.RawOperatorState
			}
		}
		if managedOperator[pos], err = redistribute.Apply(a.repartitioner, perOldManaged, newParallelism); err != nil {
			return nil, fmt.Errorf("managed operator state of %s: %w", state.OperatorID(), err)
		}
		if rawOperator[pos], err = redistribute.Apply(a.repartitioner, perOldRaw, newParallelism); err != nil {
			return nil, fmt.Errorf("raw operator state of %s: %w", state.OperatorID(), err)
		}
	}

	headIndex := len(states) - 1
	headState := states[headIndex]
	managedKeyed := make([][]types.KeyedStateHandle, newParallelism)
	rawKeyed := make([][]types.KeyedStateHandle, newParallelism)
	for s := 0; s < newParallelism; s++ {
		managed, raw, err := redistribute.KeyedStatesForSubtask(headState, partitions[s], s, newParallelism, verify)
		if err != nil {
			return nil, fmt.Errorf("keyed state of %s for subtask %d: %w", headState.OperatorID(), s, err)
		}
		managedKeyed[s] = managed
		rawKeyed[s] = raw
	}

	var subs []submission
	operatorHandles := 0
	keyedHandles := 0
	for s := 0; s < newParallelism; s++ {
		if filtered && !include[s] {
			continue
		}
		snapshot := types.NewTaskStateSnapshot(a.metadata.CheckpointID)
		for pos, id := range plan.operatorIDs {
			subtaskState := &types.SubtaskState{
				ManagedOperatorState: managedOperator[pos][s],
				RawOperatorState:     rawOperator[pos][s],
			}
			if pos == headIndex {
				subtaskState.ManagedKeyedState = managedKeyed[s]
				subtaskState.RawKeyedState = rawKeyed[s]
			}
			operatorHandles += len(subtaskState.ManagedOperatorState) + len(subtaskState.RawOperatorState)
			keyedHandles += len(subtaskState.ManagedKeyedState) + len(subtaskState.RawKeyedState)
			snapshot.PutSubtaskState(id, subtaskState)
		}
		if snapshot.HasState() {
			subs = append(subs, submission{vertex: plan.vertex, subtaskIndex: s, snapshot: snapshot})
		}
	}

	a.metrics.RecordOperatorHandlesAssigned(operatorHandles)
	a.metrics.RecordKeyedHandlesAssigned(keyedHandles)
	a.metrics.RecordVertexAssigned(len(plan.operatorIDs), len(subs))
	a.logger.Debug("vertex restore state computed",
		"vertex", plan.vertex.String(),
		"operators", len(plan.operatorIDs),
		"parallelism", newParallelism,
		"maxParallelism", maxParallelism,
		"statefulSubtasks", len(subs))

	return subs, nil
}

func (a *Assigner) diagnose(d types.Diagnostic) {
	a.diagnostics = append(a.diagnostics, d)
	a.metrics.RecordDiagnostic(d.Kind.String())
	a.logger.Info(d.Message, "kind", d.Kind.String())
	if a.onDiagnostic != nil {
		a.onDiagnostic(d)
	}
}

func operatorHasKeyedState(state *types.OperatorState) bool {
	for i := 0; i < state.Parallelism(); i++ {
		subtask := state.Subtask(i)
		if subtask == nil {
			continue
		}
		if len(subtask.ManagedKeyedState) > 0 || len(subtask.RawKeyedState) > 0 {
			return true
		}
	}

	return false
}
