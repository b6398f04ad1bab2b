package types

import "fmt"

// KeyGroupRange is a closed interval [start, end] of key-group ids.
//
// Key groups are the atomic unit of keyed-state redistribution; every key
// maps to exactly one key group in [0, maxParallelism). A range is either
// empty (the sentinel EmptyKeyGroupRange) or satisfies 0 <= start <= end.
//
// The zero value is the single-group range [0, 0], not the empty range; use
// NewKeyGroupRange or the sentinel.
type KeyGroupRange struct {
	start int
	end   int
}

// EmptyKeyGroupRange is the sentinel for a range containing no key groups.
// It never intersects anything, including itself.
var EmptyKeyGroupRange = KeyGroupRange{start: 0, end: -1}

// NewKeyGroupRange creates the closed key-group interval [start, end].
//
// Parameters:
//   - start: First key group of the range (inclusive, >= 0)
//   - end: Last key group of the range (inclusive, >= start)
//
// Returns:
//   - KeyGroupRange: The interval [start, end]
//   - error: ErrInvalidKeyGroupRange if start < 0 or end < start
func NewKeyGroupRange(start, end int) (KeyGroupRange, error) {
	if start < 0 || end < start {
		return EmptyKeyGroupRange, fmt.Errorf("%w: [%d, %d]", ErrInvalidKeyGroupRange, start, end)
	}

	return KeyGroupRange{start: start, end: end}, nil
}

// StartKeyGroup returns the first key group of the range (inclusive).
func (r KeyGroupRange) StartKeyGroup() int { return r.start }

// EndKeyGroup returns the last key group of the range (inclusive).
func (r KeyGroupRange) EndKeyGroup() int { return r.end }

// IsEmpty reports whether the range contains no key groups.
func (r KeyGroupRange) IsEmpty() bool { return r.start > r.end }

// NumKeyGroups returns the number of key groups in the range.
func (r KeyGroupRange) NumKeyGroups() int {
	if r.IsEmpty() {
		return 0
	}

	return r.end - r.start + 1
}

// Contains reports whether the key group lies within the range.
func (r KeyGroupRange) Contains(keyGroup int) bool {
	return keyGroup >= r.start && keyGroup <= r.end
}

// Intersect returns the intersection of the two ranges.
//
// Intersection is commutative and yields either EmptyKeyGroupRange or a
// sub-interval of both inputs. Empty ranges intersect nothing.
//
// Parameters:
//   - other: Range to intersect with
//
// Returns:
//   - KeyGroupRange: The overlapping interval, or EmptyKeyGroupRange
func (r KeyGroupRange) Intersect(other KeyGroupRange) KeyGroupRange {
	start := max(r.start, other.start)
	end := min(r.end, other.end)
	if start > end {
		return EmptyKeyGroupRange
	}

	return KeyGroupRange{start: start, end: end}
}

// Compare orders ranges by start key group, then by end key group.
//
// Returns:
//   - int: -1 if r < other, 0 if equal, +1 if r > other
func (r KeyGroupRange) Compare(other KeyGroupRange) int {
	if r.start != other.start {
		if r.start < other.start {
			return -1
		}

		return 1
	}
	if r.end == other.end {
		return 0
	}
	if r.end < other.end {
		return -1
	}

	return 1
}

// String renders the range as "[start, end]" or "[]" when empty.
func (r KeyGroupRange) String() string {
	if r.IsEmpty() {
		return "[]"
	}

	return fmt.Sprintf("[%d, %d]", r.start, r.end)
}
