package redistribute

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiexiw/blink/types"
)

func testRange(t *testing.T, start, end int) types.KeyGroupRange {
	t.Helper()
	r, err := types.NewKeyGroupRange(start, end)
	require.NoError(t, err)

	return r
}

func keyedHandle(t *testing.T, start, end int, path string) *types.KeyGroupsStateHandle {
	t.Helper()
	h, err := types.NewKeyGroupsStateHandle(testRange(t, start, end), nil, types.StreamStateHandle{
		Kind: types.StreamHandleFile,
		Path: path,
		Size: 100,
	})
	require.NoError(t, err)

	return h
}

func headOperatorState(t *testing.T, maxParallelism int, perSubtaskKeyed ...[]types.KeyedStateHandle) *types.OperatorState {
	t.Helper()
	var id types.OperatorID
	id[0] = 0x42
	state, err := types.NewOperatorState(id, len(perSubtaskKeyed), maxParallelism)
	require.NoError(t, err)
	for i, keyed := range perSubtaskKeyed {
		require.NoError(t, state.PutSubtask(i, &types.SubtaskState{ManagedKeyedState: keyed}))
	}

	return state
}

// corruptHandle ignores the requested range and reports one outside it.
type corruptHandle struct {
	r types.KeyGroupRange
}

func (c *corruptHandle) KeyGroupRange() types.KeyGroupRange { return c.r }

func (c *corruptHandle) Intersect(_ types.KeyGroupRange) types.KeyedStateHandle {
	return c
}

func TestKeyedStatesForSubtask(t *testing.T) {
	t.Run("identity parallelism reuses handles verbatim", func(t *testing.T) {
		h0 := keyedHandle(t, 0, 1, "/cp/keyed-0")
		h1 := keyedHandle(t, 2, 3, "/cp/keyed-1")
		state := headOperatorState(t, 4,
			[]types.KeyedStateHandle{h0},
			[]types.KeyedStateHandle{h1},
		)
		partitions, err := CreateKeyGroupPartitions(4, 2)
		require.NoError(t, err)

		managed0, raw0, err := KeyedStatesForSubtask(state, partitions[0], 0, 2, true)
		require.NoError(t, err)
		require.Len(t, managed0, 1)
		require.Same(t, h0, managed0[0].(*types.KeyGroupsStateHandle))
		require.Empty(t, raw0)

		managed1, _, err := KeyedStatesForSubtask(state, partitions[1], 1, 2, true)
		require.NoError(t, err)
		require.Len(t, managed1, 1)
		require.Same(t, h1, managed1[0].(*types.KeyGroupsStateHandle))
	})

	t.Run("identity parallelism with unrecorded subtask yields nothing", func(t *testing.T) {
		h0 := keyedHandle(t, 0, 1, "/cp/keyed-0")
		var id types.OperatorID
		id[0] = 0x43
		state, err := types.NewOperatorState(id, 2, 4)
		require.NoError(t, err)
		require.NoError(t, state.PutSubtask(0, &types.SubtaskState{ManagedKeyedState: []types.KeyedStateHandle{h0}}))
		partitions, err := CreateKeyGroupPartitions(4, 2)
		require.NoError(t, err)

		managed, raw, err := KeyedStatesForSubtask(state, partitions[1], 1, 2, true)

		require.NoError(t, err)
		require.Empty(t, managed)
		require.Empty(t, raw)
	})

	t.Run("scale-up intersects each handle with the new range", func(t *testing.T) {
		h0 := keyedHandle(t, 0, 1, "/cp/keyed-0")
		h1 := keyedHandle(t, 2, 3, "/cp/keyed-1")
		state := headOperatorState(t, 4,
			[]types.KeyedStateHandle{h0},
			[]types.KeyedStateHandle{h1},
		)
		partitions, err := CreateKeyGroupPartitions(4, 4)
		require.NoError(t, err)

		for s := 0; s < 4; s++ {
			managed, _, err := KeyedStatesForSubtask(state, partitions[s], s, 4, true)
			require.NoError(t, err)
			require.Len(t, managed, 1, "subtask %d", s)
			require.Equal(t, testRange(t, s, s), managed[0].KeyGroupRange())
		}
	})

	t.Run("scale-down collects every intersecting handle", func(t *testing.T) {
		handles := make([]types.KeyedStateHandle, 4)
		perSubtask := make([][]types.KeyedStateHandle, 4)
		for i := range handles {
			handles[i] = keyedHandle(t, i, i, "/cp/keyed")
			perSubtask[i] = []types.KeyedStateHandle{handles[i]}
		}
		state := headOperatorState(t, 4, perSubtask...)
		partitions, err := CreateKeyGroupPartitions(4, 2)
		require.NoError(t, err)

		managed0, _, err := KeyedStatesForSubtask(state, partitions[0], 0, 2, true)
		require.NoError(t, err)
		require.Equal(t, []types.KeyedStateHandle{handles[0], handles[1]}, managed0)

		managed1, _, err := KeyedStatesForSubtask(state, partitions[1], 1, 2, true)
		require.NoError(t, err)
		require.Equal(t, []types.KeyedStateHandle{handles[2], handles[3]}, managed1)
	})
}

func TestIntersectingHandles(t *testing.T) {
	t.Run("skips nil and disjoint handles", func(t *testing.T) {
		h := keyedHandle(t, 0, 1, "/cp/keyed-0")

		got, err := IntersectingHandles([]types.KeyedStateHandle{nil, h}, testRange(t, 2, 3), true)

		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("detects corrupt intersections", func(t *testing.T) {
		corrupt := &corruptHandle{r: testRange(t, 0, 7)}

		_, err := IntersectingHandles([]types.KeyedStateHandle{corrupt}, testRange(t, 0, 1), true)

		require.ErrorIs(t, err, types.ErrHandleIntersectCorrupt)
	})

	t.Run("skips verification when disabled", func(t *testing.T) {
		corrupt := &corruptHandle{r: testRange(t, 0, 7)}

		got, err := IntersectingHandles([]types.KeyedStateHandle{corrupt}, testRange(t, 0, 1), false)

		require.NoError(t, err)
		require.Len(t, got, 1)
	})
}

func TestKeyedCoverage(t *testing.T) {
	t.Run("every key group is owned by exactly one subtask", func(t *testing.T) {
		const maxParallelism = 12
		h0 := keyedHandle(t, 0, 5, "/cp/keyed-0")
		h1 := keyedHandle(t, 6, 11, "/cp/keyed-1")
		state := headOperatorState(t, maxParallelism,
			[]types.KeyedStateHandle{h0},
			[]types.KeyedStateHandle{h1},
		)

		for _, newParallelism := range []int{1, 3, 5, 12} {
			partitions, err := CreateKeyGroupPartitions(maxParallelism, newParallelism)
			require.NoError(t, err)

			owners := make([]int, maxParallelism)
			for s := 0; s < newParallelism; s++ {
				managed, _, err := KeyedStatesForSubtask(state, partitions[s], s, newParallelism, true)
				require.NoError(t, err)
				for _, handle := range managed {
					r := handle.KeyGroupRange()
					for g := r.StartKeyGroup(); g <= r.EndKeyGroup(); g++ {
						owners[g]++
					}
				}
			}
			for g, count := range owners {
				require.Equal(t, 1, count, "P=%d key group %d", newParallelism, g)
			}
		}
	})
}
