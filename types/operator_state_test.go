package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testOperatorID(t *testing.T, suffix byte) OperatorID {
	t.Helper()
	var id OperatorID
	id[idLen-1] = suffix
	id[0] = 0xAB

	return id
}

func TestNewOperatorState(t *testing.T) {
	id := testOperatorID(t, 1)

	t.Run("creates empty state", func(t *testing.T) {
		state, err := NewOperatorState(id, 2, 8)

		require.NoError(t, err)
		require.Equal(t, id, state.OperatorID())
		require.Equal(t, 2, state.Parallelism())
		require.Equal(t, 8, state.MaxParallelism())
		require.False(t, state.HasState())
		require.Equal(t, 0, state.NumRecordedSubtasks())
	})

	t.Run("rejects non-positive parallelism", func(t *testing.T) {
		_, err := NewOperatorState(id, 0, 8)

		require.ErrorIs(t, err, ErrInvalidParallelism)
	})

	t.Run("rejects max parallelism below parallelism", func(t *testing.T) {
		_, err := NewOperatorState(id, 4, 2)

		require.ErrorIs(t, err, ErrInvalidParallelism)
	})
}

func TestOperatorState_PutSubtask(t *testing.T) {
	id := testOperatorID(t, 2)

	t.Run("records subtask state", func(t *testing.T) {
		state, err := NewOperatorState(id, 2, 8)
		require.NoError(t, err)

		keyed, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), nil, StreamStateHandle{})
		require.NoError(t, err)
		subtask := &SubtaskState{ManagedKeyedState: []KeyedStateHandle{keyed}}

		require.NoError(t, state.PutSubtask(0, subtask))
		require.Same(t, subtask, state.Subtask(0))
		require.Nil(t, state.Subtask(1))
		require.True(t, state.HasState())
	})

	t.Run("rejects index outside old parallelism", func(t *testing.T) {
		state, err := NewOperatorState(id, 2, 8)
		require.NoError(t, err)

		require.ErrorIs(t, state.PutSubtask(2, &SubtaskState{}), ErrSubtaskIndexOutOfRange)
		require.ErrorIs(t, state.PutSubtask(-1, &SubtaskState{}), ErrSubtaskIndexOutOfRange)
	})

	t.Run("rejects raw keyed state without managed", func(t *testing.T) {
		state, err := NewOperatorState(id, 2, 8)
		require.NoError(t, err)

		keyed, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), nil, StreamStateHandle{})
		require.NoError(t, err)

		err = state.PutSubtask(0, &SubtaskState{RawKeyedState: []KeyedStateHandle{keyed}})
		require.ErrorIs(t, err, ErrRawKeyedWithoutManaged)
	})
}

func TestOperatorStates(t *testing.T) {
	newState := func(t *testing.T, suffix byte) *OperatorState {
		t.Helper()
		state, err := NewOperatorState(testOperatorID(t, suffix), 1, 4)
		require.NoError(t, err)

		return state
	}

	t.Run("keeps insertion order", func(t *testing.T) {
		index := NewOperatorStates()
		first := newState(t, 3)
		second := newState(t, 1)
		index.Put(first)
		index.Put(second)

		require.Equal(t, []OperatorID{first.OperatorID(), second.OperatorID()}, index.IDs())
		require.Equal(t, 2, index.Len())
	})

	t.Run("gets and removes by id", func(t *testing.T) {
		index := NewOperatorStates()
		state := newState(t, 4)
		index.Put(state)

		got, ok := index.Get(state.OperatorID())
		require.True(t, ok)
		require.Same(t, state, got)
		require.True(t, index.Contains(state.OperatorID()))

		removed, ok := index.Remove(state.OperatorID())
		require.True(t, ok)
		require.Same(t, state, removed)
		require.False(t, index.Contains(state.OperatorID()))
		require.Empty(t, index.IDs())

		_, ok = index.Remove(state.OperatorID())
		require.False(t, ok)
	})

	t.Run("clone is independent of the original", func(t *testing.T) {
		index := NewOperatorStates()
		state := newState(t, 5)
		index.Put(state)

		clone := index.Clone()
		_, ok := clone.Remove(state.OperatorID())
		require.True(t, ok)

		require.True(t, index.Contains(state.OperatorID()))
		require.Equal(t, 1, index.Len())
		require.Equal(t, 0, clone.Len())
	})
}
