package types

import (
	"fmt"
	"sort"
)

// StreamHandleKind discriminates the stream state handle variants.
type StreamHandleKind int

const (
	// StreamHandleFile points to an absolute file in durable storage.
	StreamHandleFile StreamHandleKind = iota

	// StreamHandleBytes carries a small payload inline.
	StreamHandleBytes

	// StreamHandleRelativeFile points to a file relative to the checkpoint
	// directory, allowing relocatable checkpoints.
	StreamHandleRelativeFile
)

// String returns the string representation of the kind.
func (k StreamHandleKind) String() string {
	switch k {
	case StreamHandleFile:
		return "File"
	case StreamHandleBytes:
		return "Bytes"
	case StreamHandleRelativeFile:
		return "RelativeFile"
	default:
		return "Unknown"
	}
}

// StreamStateHandle is an opaque descriptor of one persisted state stream.
//
// The reassignment core never reads the bytes behind a stream handle; it
// only forwards the descriptor. Handles are immutable once constructed.
type StreamStateHandle struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind StreamHandleKind

	// Path is the storage location (absolute for StreamHandleFile, relative
	// to the checkpoint directory for StreamHandleRelativeFile).
	Path string

	// Size is the stream length in bytes.
	Size int64

	// Data is the inline payload for StreamHandleBytes.
	Data []byte
}

// KeyedStateHandle is an opaque descriptor of keyed state covering a range
// of key groups.
//
// The core's only allowed operations on a keyed handle are reading its range
// and intersecting it with a new subtask's range. Implementations form a
// closed set; backends plug their handle types in behind this interface.
//
// Intersect must preserve equality under identity intersection:
// h.Intersect(h.KeyGroupRange()) returns h itself.
type KeyedStateHandle interface {
	// KeyGroupRange returns the total range of key groups this handle covers.
	KeyGroupRange() KeyGroupRange

	// Intersect returns a handle restricted to the intersection with the
	// given range, or nil if the handle and the range are disjoint.
	Intersect(r KeyGroupRange) KeyedStateHandle
}

// KeyGroupsStateHandle is the standard keyed state handle: a delegate stream
// holding the state bytes of a contiguous key-group range, with one byte
// offset per key group.
type KeyGroupsStateHandle struct {
	groupRange KeyGroupRange
	offsets    []int64
	delegate   StreamStateHandle
}

// Compile-time assertion that KeyGroupsStateHandle implements KeyedStateHandle.
var _ KeyedStateHandle = (*KeyGroupsStateHandle)(nil)

// NewKeyGroupsStateHandle creates a keyed state handle for a key-group range.
//
// Parameters:
//   - groupRange: Range of key groups the delegate stream covers
//   - offsets: Byte offset into the delegate stream per key group, in range
//     order; may be nil, otherwise must have exactly groupRange.NumKeyGroups()
//     entries
//   - delegate: Stream holding the state bytes
//
// Returns:
//   - *KeyGroupsStateHandle: The handle
//   - error: ErrInvalidKeyGroupRange if offsets and range disagree
func NewKeyGroupsStateHandle(groupRange KeyGroupRange, offsets []int64, delegate StreamStateHandle) (*KeyGroupsStateHandle, error) {
	if offsets != nil && len(offsets) != groupRange.NumKeyGroups() {
		return nil, fmt.Errorf("%w: %d offsets for range %s", ErrInvalidKeyGroupRange, len(offsets), groupRange)
	}

	return &KeyGroupsStateHandle{groupRange: groupRange, offsets: offsets, delegate: delegate}, nil
}

// KeyGroupRange returns the total range of key groups this handle covers.
func (h *KeyGroupsStateHandle) KeyGroupRange() KeyGroupRange {
	return h.groupRange
}

// Delegate returns the stream holding the state bytes.
func (h *KeyGroupsStateHandle) Delegate() StreamStateHandle {
	return h.delegate
}

// OffsetForKeyGroup returns the byte offset of a key group's section in the
// delegate stream.
//
// Returns:
//   - int64: Offset of the key group
//   - bool: false if the key group is outside the range or offsets are unknown
func (h *KeyGroupsStateHandle) OffsetForKeyGroup(keyGroup int) (int64, bool) {
	if h.offsets == nil || !h.groupRange.Contains(keyGroup) {
		return 0, false
	}

	return h.offsets[keyGroup-h.groupRange.StartKeyGroup()], true
}

// Intersect returns a handle restricted to the overlap with the given range.
//
// The restricted handle shares the delegate stream and the per-group offsets
// of the overlapping section. When the overlap equals the handle's own range
// the handle itself is returned, and when the ranges are disjoint the result
// is nil.
func (h *KeyGroupsStateHandle) Intersect(r KeyGroupRange) KeyedStateHandle {
	overlap := h.groupRange.Intersect(r)
	if overlap.IsEmpty() {
		return nil
	}
	if overlap == h.groupRange {
		return h
	}

	var offsets []int64
	if h.offsets != nil {
		lo := overlap.StartKeyGroup() - h.groupRange.StartKeyGroup()
		offsets = h.offsets[lo : lo+overlap.NumKeyGroups()]
	}

	return &KeyGroupsStateHandle{groupRange: overlap, offsets: offsets, delegate: h.delegate}
}

// StateMeta describes one named operator-state stream inside an
// OperatorStateHandle: its distribution mode and the byte offsets of its
// sub-partitions in the delegate stream.
type StateMeta struct {
	// Mode selects how the sub-partitions are redistributed on rescale.
	Mode DistributionMode

	// Offsets partitions the stream bytewise; each entry starts one
	// sub-partition written by the producing subtask.
	Offsets []int64
}

// NamedStream is one entry of OperatorStateHandle.Streams: a state stream
// name together with its meta information.
type NamedStream struct {
	Name string
	Meta StateMeta
}

// OperatorStateHandle is an opaque descriptor of one subtask's operator
// (non-keyed) state: a delegate stream plus per-stream-name distribution
// meta data.
//
// Handles are immutable; repartitioning builds fresh handles that share the
// delegate stream with narrower meta data.
type OperatorStateHandle struct {
	delegate        StreamStateHandle
	stateNameToMeta map[string]StateMeta
}

// NewOperatorStateHandle creates an operator state handle.
//
// Parameters:
//   - delegate: Stream holding all named states of the producing subtask
//   - stateNameToMeta: Distribution mode and sub-partition offsets per
//     state stream name; the map is copied
//
// Returns:
//   - *OperatorStateHandle: The handle
func NewOperatorStateHandle(delegate StreamStateHandle, stateNameToMeta map[string]StateMeta) *OperatorStateHandle {
	meta := make(map[string]StateMeta, len(stateNameToMeta))
	for name, m := range stateNameToMeta {
		meta[name] = m
	}

	return &OperatorStateHandle{delegate: delegate, stateNameToMeta: meta}
}

// Delegate returns the stream holding the state bytes.
func (h *OperatorStateHandle) Delegate() StreamStateHandle {
	return h.delegate
}

// Meta returns the meta data for one state stream name.
//
// Returns:
//   - StateMeta: The stream's distribution mode and offsets
//   - bool: false if the name is not present in this handle
func (h *OperatorStateHandle) Meta(name string) (StateMeta, bool) {
	m, ok := h.stateNameToMeta[name]

	return m, ok
}

// NumStreams returns the number of named state streams in this handle.
func (h *OperatorStateHandle) NumStreams() int {
	return len(h.stateNameToMeta)
}

// Streams returns the named streams sorted by name.
//
// The sorted order makes every iteration over a handle deterministic, which
// reassignment depends on for reproducible round-robin distribution.
func (h *OperatorStateHandle) Streams() []NamedStream {
	streams := make([]NamedStream, 0, len(h.stateNameToMeta))
	for name, meta := range h.stateNameToMeta {
		streams = append(streams, NamedStream{Name: name, Meta: meta})
	}
	sort.Slice(streams, func(i, j int) bool { return streams[i].Name < streams[j].Name })

	return streams
}

// HasUnionStream reports whether any stream in the handle uses Union
// distribution. The presence of a union stream disables the identity fast
// path during repartitioning.
func (h *OperatorStateHandle) HasUnionStream() bool {
	for _, meta := range h.stateNameToMeta {
		if meta.Mode == Union {
			return true
		}
	}

	return false
}
