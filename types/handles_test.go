package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end int) KeyGroupRange {
	t.Helper()
	r, err := NewKeyGroupRange(start, end)
	require.NoError(t, err)

	return r
}

func TestKeyGroupsStateHandle_Intersect(t *testing.T) {
	delegate := StreamStateHandle{Kind: StreamHandleFile, Path: "/cp/1/keyed-0", Size: 1024}

	t.Run("identity intersection returns the handle itself", func(t *testing.T) {
		h, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), []int64{0, 10, 20, 30}, delegate)
		require.NoError(t, err)

		got := h.Intersect(h.KeyGroupRange())

		require.Same(t, h, got)
	})

	t.Run("disjoint range yields nil", func(t *testing.T) {
		h, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), nil, delegate)
		require.NoError(t, err)

		require.Nil(t, h.Intersect(mustRange(t, 4, 7)))
	})

	t.Run("partial overlap narrows range and offsets", func(t *testing.T) {
		h, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), []int64{0, 10, 20, 30}, delegate)
		require.NoError(t, err)

		got := h.Intersect(mustRange(t, 2, 7))

		require.NotNil(t, got)
		require.Equal(t, mustRange(t, 2, 3), got.KeyGroupRange())
		narrowed, ok := got.(*KeyGroupsStateHandle)
		require.True(t, ok)
		offset, ok := narrowed.OffsetForKeyGroup(2)
		require.True(t, ok)
		require.Equal(t, int64(20), offset)
		_, ok = narrowed.OffsetForKeyGroup(1)
		require.False(t, ok)
		require.Equal(t, delegate, narrowed.Delegate())
	})

	t.Run("intersection with empty range yields nil", func(t *testing.T) {
		h, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), nil, delegate)
		require.NoError(t, err)

		require.Nil(t, h.Intersect(EmptyKeyGroupRange))
	})
}

func TestNewKeyGroupsStateHandle(t *testing.T) {
	t.Run("rejects offsets that disagree with the range", func(t *testing.T) {
		_, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), []int64{0, 10}, StreamStateHandle{})

		require.ErrorIs(t, err, ErrInvalidKeyGroupRange)
	})

	t.Run("allows unknown offsets", func(t *testing.T) {
		h, err := NewKeyGroupsStateHandle(mustRange(t, 0, 3), nil, StreamStateHandle{})

		require.NoError(t, err)
		_, ok := h.OffsetForKeyGroup(0)
		require.False(t, ok)
	})
}

func TestOperatorStateHandle_Streams(t *testing.T) {
	delegate := StreamStateHandle{Kind: StreamHandleFile, Path: "/cp/1/op-0", Size: 512}
	h := NewOperatorStateHandle(delegate, map[string]StateMeta{
		"zeta":  {Mode: Union, Offsets: []int64{0}},
		"alpha": {Mode: SplitDistribute, Offsets: []int64{0, 64}},
		"mid":   {Mode: Broadcast, Offsets: []int64{128}},
	})

	t.Run("iterates sorted by name", func(t *testing.T) {
		streams := h.Streams()

		require.Len(t, streams, 3)
		require.Equal(t, "alpha", streams[0].Name)
		require.Equal(t, "mid", streams[1].Name)
		require.Equal(t, "zeta", streams[2].Name)
	})

	t.Run("looks up meta by name", func(t *testing.T) {
		meta, ok := h.Meta("alpha")

		require.True(t, ok)
		require.Equal(t, SplitDistribute, meta.Mode)
		require.Equal(t, []int64{0, 64}, meta.Offsets)

		_, ok = h.Meta("missing")
		require.False(t, ok)
	})

	t.Run("detects union streams", func(t *testing.T) {
		require.True(t, h.HasUnionStream())

		noUnion := NewOperatorStateHandle(delegate, map[string]StateMeta{
			"alpha": {Mode: SplitDistribute, Offsets: []int64{0}},
		})
		require.False(t, noUnion.HasUnionStream())
	})

	t.Run("copies the meta map", func(t *testing.T) {
		source := map[string]StateMeta{"s": {Mode: SplitDistribute}}
		handle := NewOperatorStateHandle(delegate, source)
		source["extra"] = StateMeta{Mode: Union}

		require.Equal(t, 1, handle.NumStreams())
	})
}

func TestSubtaskState(t *testing.T) {
	keyed, err := NewKeyGroupsStateHandle(mustRange(t, 0, 1), nil, StreamStateHandle{})
	require.NoError(t, err)

	t.Run("empty state has no state", func(t *testing.T) {
		var s *SubtaskState
		require.False(t, s.HasState())
		require.False(t, (&SubtaskState{}).HasState())
	})

	t.Run("any collection counts as state", func(t *testing.T) {
		require.True(t, (&SubtaskState{ManagedKeyedState: []KeyedStateHandle{keyed}}).HasState())
		require.True(t, (&SubtaskState{ManagedOperatorState: []*OperatorStateHandle{
			NewOperatorStateHandle(StreamStateHandle{}, nil),
		}}).HasState())
	})

	t.Run("raw keyed state requires managed keyed state", func(t *testing.T) {
		err := (&SubtaskState{RawKeyedState: []KeyedStateHandle{keyed}}).Validate()

		require.ErrorIs(t, err, ErrRawKeyedWithoutManaged)
	})

	t.Run("raw keyed state with managed keyed state is valid", func(t *testing.T) {
		s := &SubtaskState{
			ManagedKeyedState: []KeyedStateHandle{keyed},
			RawKeyedState:     []KeyedStateHandle{keyed},
		}

		require.NoError(t, s.Validate())
	})
}
