package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"
)

// idLen is the byte length of operator and vertex identifiers.
const idLen = 16

// OperatorID is the stable 128-bit identifier of a single operator.
//
// Operator ids are opaque to the reassignment core: it only compares them,
// orders them, and uses them as map keys. The zero value is treated as
// "absent" in contexts that allow optional ids (see Topology.AltOperatorIDs).
type OperatorID [idLen]byte

// OperatorIDFromHex parses a 32-character hex string into an OperatorID.
//
// Parameters:
//   - s: Hex-encoded identifier (case-insensitive, no separators)
//
// Returns:
//   - OperatorID: Parsed identifier
//   - error: Parse error if the input is not exactly 16 hex-encoded bytes
func OperatorIDFromHex(s string) (OperatorID, error) {
	var id OperatorID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse operator id: %w", err)
	}
	if len(raw) != idLen {
		return id, fmt.Errorf("parse operator id: expected %d bytes, got %d", idLen, len(raw))
	}
	copy(id[:], raw)

	return id, nil
}

// String returns the hex representation of the id.
func (id OperatorID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the id is the all-zero sentinel.
func (id OperatorID) IsZero() bool {
	return id == OperatorID{}
}

// Compare orders ids by their canonical byte form.
//
// Returns:
//   - int: -1 if id < other, 0 if equal, +1 if id > other
func (id OperatorID) Compare(other OperatorID) int {
	return bytes.Compare(id[:], other[:])
}

// VertexID is the stable 128-bit identifier of a job vertex (a task, i.e.
// one chain of operators executed by a set of parallel subtasks).
type VertexID [idLen]byte

// VertexIDFromHex parses a 32-character hex string into a VertexID.
//
// Parameters:
//   - s: Hex-encoded identifier (case-insensitive, no separators)
//
// Returns:
//   - VertexID: Parsed identifier
//   - error: Parse error if the input is not exactly 16 hex-encoded bytes
func VertexIDFromHex(s string) (VertexID, error) {
	var id VertexID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse vertex id: %w", err)
	}
	if len(raw) != idLen {
		return id, fmt.Errorf("parse vertex id: expected %d bytes, got %d", idLen, len(raw))
	}
	copy(id[:], raw)

	return id, nil
}

// String returns the hex representation of the id.
func (id VertexID) String() string {
	return hex.EncodeToString(id[:])
}

// Compare orders ids by their canonical byte form.
func (id VertexID) Compare(other VertexID) int {
	return bytes.Compare(id[:], other[:])
}

// OperatorInstanceID identifies one parallel instance of one operator in the
// new execution: the pair of subtask index and operator id.
//
// The type is comparable, so it can serve directly as an in-process map key;
// StableHash gives a key that is stable across processes.
type OperatorInstanceID struct {
	// SubtaskIndex is the parallel subtask index in [0, parallelism).
	SubtaskIndex int

	// OperatorID identifies the operator within the chain.
	OperatorID OperatorID
}

// OperatorInstance builds the instance id for a subtask of an operator.
func OperatorInstance(subtaskIndex int, operatorID OperatorID) OperatorInstanceID {
	return OperatorInstanceID{SubtaskIndex: subtaskIndex, OperatorID: operatorID}
}

// StableHash returns a 64-bit hash of the instance id that is stable across
// processes and architectures.
//
// The hash is computed with xxh3 over the canonical byte form (operator id
// bytes followed by the big-endian subtask index), so independent
// re-derivations of the same assignment agree on it.
//
// Returns:
//   - uint64: Stable hash of the canonical byte form
func (id OperatorInstanceID) StableHash() uint64 {
	var buf [idLen + 8]byte
	copy(buf[:idLen], id.OperatorID[:])
	binary.BigEndian.PutUint64(buf[idLen:], uint64(id.SubtaskIndex))

	return xxh3.Hash(buf[:])
}

// String returns "<subtask>@<operator-id>" for log and error messages.
func (id OperatorInstanceID) String() string {
	return fmt.Sprintf("%d@%s", id.SubtaskIndex, id.OperatorID)
}
