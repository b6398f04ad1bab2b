package metadata

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiexiw/blink/types"
)

// metaWriter mirrors the reader's big-endian layout for building test
// streams.
type metaWriter struct {
	buf bytes.Buffer
}

func (w *metaWriter) writeByte(b byte)     { _ = w.buf.WriteByte(b) }
func (w *metaWriter) writeBytes(p []byte)  { w.buf.Write(p) }
func (w *metaWriter) writeUint32(v uint32) { _ = binary.Write(&w.buf, binary.BigEndian, v) }
func (w *metaWriter) writeInt32(v int32)   { _ = binary.Write(&w.buf, binary.BigEndian, v) }
func (w *metaWriter) writeInt64(v int64)   { _ = binary.Write(&w.buf, binary.BigEndian, v) }

func (w *metaWriter) writeUTF(s string) {
	_ = binary.Write(&w.buf, binary.BigEndian, uint16(len(s)))
	w.buf.WriteString(s)
}

func (w *metaWriter) writeFileHandle(path string, size int64) {
	w.writeByte(streamHandleTagFile)
	w.writeInt64(size)
	w.writeUTF(path)
}

func (w *metaWriter) writeOffsets(offsets []int64) {
	w.writeInt32(int32(len(offsets)))
	for _, o := range offsets {
		w.writeInt64(o)
	}
}

func (w *metaWriter) writeHeader(checkpointID int64) {
	w.writeUint32(metadataMagicNumber)
	w.writeInt32(metadataVersion)
	w.writeInt64(checkpointID)
}

func (w *metaWriter) writeMasterStates(payloads ...[]byte) {
	w.writeInt32(int32(len(payloads)))
	for _, p := range payloads {
		w.writeInt32(int32(len(p)))
		w.writeBytes(p)
	}
}

func TestParse(t *testing.T) {
	var operatorID types.OperatorID
	operatorID[0] = 0xAA
	operatorID[15] = 0x01

	t.Run("parses a complete stream", func(t *testing.T) {
		w := &metaWriter{}
		w.writeHeader(42)
		w.writeMasterStates([]byte("coordinator payload"))

		w.writeInt32(1) // one operator
		w.writeBytes(operatorID[:])
		w.writeInt32(2) // parallelism
		w.writeInt32(4) // max parallelism
		w.writeInt32(2) // two recorded subtasks

		// Subtask 0: one managed operator handle, one managed keyed handle.
		w.writeInt32(0)
		w.writeInt32(1) // managed operator handles
		w.writeFileHandle("/cp/42/op-0", 512)
		w.writeInt32(1) // one named stream
		w.writeUTF("buffer")
		w.writeByte(modeOrdinalSplitDistribute)
		w.writeOffsets([]int64{0, 128, 256})
		w.writeInt32(0) // raw operator handles
		w.writeInt32(1) // managed keyed handles
		w.writeInt32(0) // start key group
		w.writeInt32(2) // num key groups
		w.writeOffsets([]int64{0, 64})
		w.writeFileHandle("/cp/42/keyed-0", 1024)
		w.writeInt32(0) // raw keyed handles

		// Subtask 1: keyed state only, unknown offsets.
		w.writeInt32(1)
		w.writeInt32(0)
		w.writeInt32(0)
		w.writeInt32(1)
		w.writeInt32(2)
		w.writeInt32(2)
		w.writeOffsets(nil)
		w.writeFileHandle("/cp/42/keyed-1", 1024)
		w.writeInt32(0)

		meta, err := Parse(&w.buf)

		require.NoError(t, err)
		require.Equal(t, uint64(42), meta.CheckpointID)
		require.Equal(t, 1, meta.OperatorStates.Len())

		state, ok := meta.OperatorStates.Get(operatorID)
		require.True(t, ok)
		require.Equal(t, 2, state.Parallelism())
		require.Equal(t, 4, state.MaxParallelism())

		sub0 := state.Subtask(0)
		require.NotNil(t, sub0)
		require.Len(t, sub0.ManagedOperatorState, 1)
		streamMeta, ok := sub0.ManagedOperatorState[0].Meta("buffer")
		require.True(t, ok)
		require.Equal(t, types.SplitDistribute, streamMeta.Mode)
		require.Equal(t, []int64{0, 128, 256}, streamMeta.Offsets)
		require.Equal(t, "/cp/42/op-0", sub0.ManagedOperatorState[0].Delegate().Path)

		require.Len(t, sub0.ManagedKeyedState, 1)
		keyed0 := sub0.ManagedKeyedState[0].(*types.KeyGroupsStateHandle)
		require.Equal(t, 0, keyed0.KeyGroupRange().StartKeyGroup())
		require.Equal(t, 1, keyed0.KeyGroupRange().EndKeyGroup())
		offset, ok := keyed0.OffsetForKeyGroup(1)
		require.True(t, ok)
		require.Equal(t, int64(64), offset)

		sub1 := state.Subtask(1)
		require.NotNil(t, sub1)
		keyed1 := sub1.ManagedKeyedState[0].(*types.KeyGroupsStateHandle)
		require.Equal(t, 2, keyed1.KeyGroupRange().StartKeyGroup())
		require.Equal(t, 3, keyed1.KeyGroupRange().EndKeyGroup())
		_, ok = keyed1.OffsetForKeyGroup(2)
		require.False(t, ok)
	})

	t.Run("parses a stream without operators", func(t *testing.T) {
		w := &metaWriter{}
		w.writeHeader(7)
		w.writeMasterStates()
		w.writeInt32(0)

		meta, err := Parse(&w.buf)

		require.NoError(t, err)
		require.Equal(t, uint64(7), meta.CheckpointID)
		require.Equal(t, 0, meta.OperatorStates.Len())
	})

	t.Run("rejects a wrong magic number", func(t *testing.T) {
		w := &metaWriter{}
		w.writeUint32(0xDEADBEEF)

		_, err := Parse(&w.buf)

		require.ErrorContains(t, err, "invalid magic number")
	})

	t.Run("rejects an unsupported version", func(t *testing.T) {
		w := &metaWriter{}
		w.writeUint32(metadataMagicNumber)
		w.writeInt32(99)

		_, err := Parse(&w.buf)

		require.ErrorContains(t, err, "unsupported metadata version")
	})

	t.Run("rejects a truncated stream", func(t *testing.T) {
		w := &metaWriter{}
		w.writeHeader(1)
		w.writeMasterStates()
		w.writeInt32(1) // announces an operator that never follows

		_, err := Parse(&w.buf)

		require.Error(t, err)
	})

	t.Run("rejects an unknown distribution mode", func(t *testing.T) {
		w := &metaWriter{}
		w.writeHeader(1)
		w.writeMasterStates()
		w.writeInt32(1)
		w.writeBytes(operatorID[:])
		w.writeInt32(1)
		w.writeInt32(1)
		w.writeInt32(1)
		w.writeInt32(0)
		w.writeInt32(1)
		w.writeFileHandle("/cp/op", 1)
		w.writeInt32(1)
		w.writeUTF("s")
		w.writeByte(9)
		w.writeOffsets(nil)

		_, err := Parse(&w.buf)

		require.ErrorContains(t, err, "unknown distribution mode")
	})

	t.Run("surfaces subtask index violations", func(t *testing.T) {
		w := &metaWriter{}
		w.writeHeader(1)
		w.writeMasterStates()
		w.writeInt32(1)
		w.writeBytes(operatorID[:])
		w.writeInt32(1) // parallelism 1
		w.writeInt32(1)
		w.writeInt32(1)
		w.writeInt32(5) // subtask index 5 out of range
		w.writeInt32(0)
		w.writeInt32(0)
		w.writeInt32(0)
		w.writeInt32(0)

		_, err := Parse(&w.buf)

		require.ErrorIs(t, err, types.ErrSubtaskIndexOutOfRange)
	})

	t.Run("rejects invalid restored parallelism", func(t *testing.T) {
		w := &metaWriter{}
		w.writeHeader(1)
		w.writeMasterStates()
		w.writeInt32(1)
		w.writeBytes(operatorID[:])
		w.writeInt32(4) // parallelism above max parallelism
		w.writeInt32(2)

		_, err := Parse(&w.buf)

		require.ErrorIs(t, err, types.ErrInvalidParallelism)
	})
}

func TestStatic(t *testing.T) {
	var operatorID types.OperatorID
	operatorID[0] = 0xBB

	newIndex := func(t *testing.T) *types.OperatorStates {
		t.Helper()
		state, err := types.NewOperatorState(operatorID, 1, 2)
		require.NoError(t, err)
		index := types.NewOperatorStates()
		index.Put(state)

		return index
	}

	t.Run("returns the fixed description", func(t *testing.T) {
		src := NewStatic(42, newIndex(t))

		meta, err := src.Metadata()

		require.NoError(t, err)
		require.Equal(t, uint64(42), meta.CheckpointID)
		require.True(t, meta.OperatorStates.Contains(operatorID))
	})

	t.Run("hands out independent clones", func(t *testing.T) {
		src := NewStatic(42, newIndex(t))

		first, err := src.Metadata()
		require.NoError(t, err)
		_, removed := first.OperatorStates.Remove(operatorID)
		require.True(t, removed)

		second, err := src.Metadata()
		require.NoError(t, err)
		require.True(t, second.OperatorStates.Contains(operatorID))
	})

	t.Run("update replaces the description", func(t *testing.T) {
		src := NewStatic(42, newIndex(t))
		src.Update(43, types.NewOperatorStates())

		meta, err := src.Metadata()

		require.NoError(t, err)
		require.Equal(t, uint64(43), meta.CheckpointID)
		require.Equal(t, 0, meta.OperatorStates.Len())
	})
}
