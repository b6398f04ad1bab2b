package metadata

import (
	"fmt"
	"io"
	"os"

	"github.com/tiexiw/blink/types"
)

// metadataMagicNumber starts every serialized checkpoint meta stream.
const metadataMagicNumber uint32 = 0x4960672d

// metadataVersion is the meta stream layout version this reader supports.
const metadataVersion int32 = 1

// Stream handle kind tags in the meta stream.
const (
	streamHandleTagNull         byte = 0
	streamHandleTagFile         byte = 1
	streamHandleTagBytes        byte = 2
	streamHandleTagRelativeFile byte = 3
)

// Distribution mode ordinals in the meta stream.
const (
	modeOrdinalSplitDistribute byte = 0
	modeOrdinalUnion           byte = 1
	modeOrdinalBroadcast       byte = 2
)

// Parse reads a serialized checkpoint meta stream and returns the
// prior-execution state index it describes.
//
// The stream layout is: magic, version, checkpoint id, master states
// (skipped), operator states with per-subtask handle collections. Master
// state payloads belong to coordinator-side components and are not needed
// for reassignment.
//
// Parameters:
//   - reader: Meta stream
//
// Returns:
//   - *types.CheckpointMetadata: Parsed checkpoint description
//   - error: Format error with the failing field, or a violated state
//     invariant surfaced by the index constructors
func Parse(reader io.Reader) (*types.CheckpointMetadata, error) {
	br := newBinaryReader(reader)

	magic, err := br.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != metadataMagicNumber {
		return nil, fmt.Errorf("invalid magic number: %x", magic)
	}

	version, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != metadataVersion {
		return nil, fmt.Errorf("unsupported metadata version %d", version)
	}

	checkpointID, err := br.ReadInt64()
	if err != nil {
		return nil, fmt.Errorf("read checkpoint id: %w", err)
	}
	if checkpointID < 0 {
		return nil, fmt.Errorf("checkpoint id negative: %d", checkpointID)
	}

	if err := skipMasterStates(br); err != nil {
		return nil, err
	}

	states, err := readOperatorStates(br)
	if err != nil {
		return nil, err
	}

	return &types.CheckpointMetadata{
		CheckpointID:   uint64(checkpointID),
		OperatorStates: states,
	}, nil
}

// ParseFile reads a checkpoint meta file from disk.
//
// Parameters:
//   - path: Meta file location
//
// Returns:
//   - *types.CheckpointMetadata: Parsed checkpoint description
//   - error: File or format error
func ParseFile(path string) (*types.CheckpointMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// skipMasterStates skips coordinator-side master state payloads.
func skipMasterStates(br *binaryReader) error {
	count, err := br.ReadInt32()
	if err != nil {
		return fmt.Errorf("read master state count: %w", err)
	}
	if count < 0 {
		return fmt.Errorf("master state count negative: %d", count)
	}

	for i := int32(0); i < count; i++ {
		payloadSize, err := br.ReadInt32()
		if err != nil {
			return fmt.Errorf("read master state payload size: %w", err)
		}
		if _, err := br.ReadBytes(int(payloadSize)); err != nil {
			return fmt.Errorf("read master state payload: %w", err)
		}
	}

	return nil
}

// readOperatorStates parses operator state entries from the stream.
func readOperatorStates(br *binaryReader) (*types.OperatorStates, error) {
	count, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read operator state count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("operator state count negative: %d", count)
	}

	states := types.NewOperatorStates()
	for i := int32(0); i < count; i++ {
		state, err := readOperatorState(br)
		if err != nil {
			return nil, err
		}
		states.Put(state)
	}

	return states, nil
}

// readOperatorState parses a single operator state entry.
func readOperatorState(br *binaryReader) (*types.OperatorState, error) {
	idBytes, err := br.ReadBytes(16)
	if err != nil {
		return nil, fmt.Errorf("read operator id: %w", err)
	}
	var operatorID types.OperatorID
	copy(operatorID[:], idBytes)

	parallelism, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read operator parallelism: %w", err)
	}
	maxParallelism, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read operator max parallelism: %w", err)
	}

	state, err := types.NewOperatorState(operatorID, int(parallelism), int(maxParallelism))
	if err != nil {
		return nil, err
	}

	subtaskCount, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read subtask count: %w", err)
	}
	if subtaskCount < 0 {
		return nil, fmt.Errorf("subtask count negative: %d", subtaskCount)
	}

	for i := int32(0); i < subtaskCount; i++ {
		index, err := br.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("read subtask index: %w", err)
		}
		subtask, err := readSubtaskState(br)
		if err != nil {
			return nil, fmt.Errorf("subtask %d of operator %s: %w", index, operatorID, err)
		}
		if err := state.PutSubtask(int(index), subtask); err != nil {
			return nil, err
		}
	}

	return state, nil
}

// readSubtaskState parses the four handle collections of one subtask.
func readSubtaskState(br *binaryReader) (*types.SubtaskState, error) {
	managedOperator, err := readOperatorStateHandles(br)
	if err != nil {
		return nil, fmt.Errorf("managed operator state: %w", err)
	}
	rawOperator, err := readOperatorStateHandles(br)
	if err != nil {
		return nil, fmt.Errorf("raw operator state: %w", err)
	}
	managedKeyed, err := readKeyedStateHandles(br)
	if err != nil {
		return nil, fmt.Errorf("managed keyed state: %w", err)
	}
	rawKeyed, err := readKeyedStateHandles(br)
	if err != nil {
		return nil, fmt.Errorf("raw keyed state: %w", err)
	}

	return &types.SubtaskState{
		ManagedOperatorState: managedOperator,
		RawOperatorState:     rawOperator,
		ManagedKeyedState:    managedKeyed,
		RawKeyedState:        rawKeyed,
	}, nil
}

func readOperatorStateHandles(br *binaryReader) ([]*types.OperatorStateHandle, error) {
	count, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read handle count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("handle count negative: %d", count)
	}

	var handles []*types.OperatorStateHandle
	for i := int32(0); i < count; i++ {
		handle, err := readOperatorStateHandle(br)
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}

	return handles, nil
}

// readOperatorStateHandle parses a single operator state handle.
func readOperatorStateHandle(br *binaryReader) (*types.OperatorStateHandle, error) {
	delegate, err := readStreamStateHandle(br)
	if err != nil {
		return nil, fmt.Errorf("read operator state handle delegate: %w", err)
	}
	if delegate == nil {
		return nil, fmt.Errorf("operator state handle without delegate stream")
	}

	mapSize, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read operator state handle map size: %w", err)
	}
	if mapSize < 0 {
		return nil, fmt.Errorf("operator state handle map size negative: %d", mapSize)
	}

	meta := make(map[string]types.StateMeta, mapSize)
	for i := int32(0); i < mapSize; i++ {
		name, err := br.ReadUTF()
		if err != nil {
			return nil, fmt.Errorf("read operator state name: %w", err)
		}
		modeOrdinal, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read operator state mode: %w", err)
		}
		mode, err := distributionModeFromOrdinal(modeOrdinal)
		if err != nil {
			return nil, fmt.Errorf("stream %q: %w", name, err)
		}
		offsets, err := readOffsets(br)
		if err != nil {
			return nil, fmt.Errorf("stream %q: %w", name, err)
		}
		meta[name] = types.StateMeta{Mode: mode, Offsets: offsets}
	}

	return types.NewOperatorStateHandle(*delegate, meta), nil
}

func readOffsets(br *binaryReader) ([]int64, error) {
	count, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read offset count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("offset count negative: %d", count)
	}

	offsets := make([]int64, count)
	for i := int32(0); i < count; i++ {
		offset, err := br.ReadInt64()
		if err != nil {
			return nil, fmt.Errorf("read offset: %w", err)
		}
		offsets[i] = offset
	}

	return offsets, nil
}

func readKeyedStateHandles(br *binaryReader) ([]types.KeyedStateHandle, error) {
	count, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read handle count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("handle count negative: %d", count)
	}

	var handles []types.KeyedStateHandle
	for i := int32(0); i < count; i++ {
		handle, err := readKeyGroupsHandle(br)
		if err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}

	return handles, nil
}

// readKeyGroupsHandle parses a key-group based keyed state handle.
func readKeyGroupsHandle(br *binaryReader) (types.KeyedStateHandle, error) {
	startKeyGroup, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read key groups start: %w", err)
	}
	numKeyGroups, err := br.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("read key groups count: %w", err)
	}
	if numKeyGroups <= 0 {
		return nil, fmt.Errorf("key groups count not positive: %d", numKeyGroups)
	}

	groupRange, err := types.NewKeyGroupRange(int(startKeyGroup), int(startKeyGroup+numKeyGroups-1))
	if err != nil {
		return nil, err
	}

	offsets, err := readOffsets(br)
	if err != nil {
		return nil, fmt.Errorf("read key group offsets: %w", err)
	}
	if len(offsets) == 0 {
		offsets = nil
	}

	delegate, err := readStreamStateHandle(br)
	if err != nil {
		return nil, fmt.Errorf("read key groups delegate: %w", err)
	}
	if delegate == nil {
		return nil, fmt.Errorf("keyed state handle without delegate stream")
	}

	return types.NewKeyGroupsStateHandle(groupRange, offsets, *delegate)
}

// readStreamStateHandle parses a stream state handle, selecting the variant
// by its kind tag. A null tag yields nil.
func readStreamStateHandle(br *binaryReader) (*types.StreamStateHandle, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read stream state handle tag: %w", err)
	}

	switch tag {
	case streamHandleTagNull:
		return nil, nil
	case streamHandleTagFile:
		size, err := br.ReadInt64()
		if err != nil {
			return nil, fmt.Errorf("read file handle size: %w", err)
		}
		path, err := br.ReadUTF()
		if err != nil {
			return nil, fmt.Errorf("read file handle path: %w", err)
		}

		return &types.StreamStateHandle{Kind: types.StreamHandleFile, Path: path, Size: size}, nil
	case streamHandleTagBytes:
		length, err := br.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("read byte handle length: %w", err)
		}
		data, err := br.ReadBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("read byte handle data: %w", err)
		}

		return &types.StreamStateHandle{Kind: types.StreamHandleBytes, Size: int64(length), Data: data}, nil
	case streamHandleTagRelativeFile:
		path, err := br.ReadUTF()
		if err != nil {
			return nil, fmt.Errorf("read relative handle path: %w", err)
		}
		size, err := br.ReadInt64()
		if err != nil {
			return nil, fmt.Errorf("read relative handle size: %w", err)
		}

		return &types.StreamStateHandle{Kind: types.StreamHandleRelativeFile, Path: path, Size: size}, nil
	default:
		return nil, fmt.Errorf("unsupported stream state handle tag %d", tag)
	}
}

func distributionModeFromOrdinal(ordinal byte) (types.DistributionMode, error) {
	switch ordinal {
	case modeOrdinalSplitDistribute:
		return types.SplitDistribute, nil
	case modeOrdinalUnion:
		return types.Union, nil
	case modeOrdinalBroadcast:
		return types.Broadcast, nil
	default:
		return 0, fmt.Errorf("unknown distribution mode ordinal %d", ordinal)
	}
}
