package redistribute

import (
	"fmt"

	"github.com/tiexiw/blink/types"
)

// CreateKeyGroupPartitions groups the available key groups into one
// contiguous range per subtask.
//
// Subtask i receives [i*M/P, (i+1)*M/P - 1] (integer division) for M key
// groups and parallelism P. The emitted ranges are contiguous, gap-free,
// non-overlapping, and cover [0, M).
//
// This formula is the bit-stable contract of the whole library: it must
// match the partitioner used at checkpoint-write time, or every restored
// keyed state lands on the wrong subtask silently.
//
// Parameters:
//   - maxParallelism: Number of available key groups M (M >= parallelism)
//   - parallelism: Number of subtasks P to partition for (P > 0)
//
// Returns:
//   - []types.KeyGroupRange: One range per subtask, index-aligned
//   - error: ErrInvalidParallelism unless M >= P > 0
func CreateKeyGroupPartitions(maxParallelism, parallelism int) ([]types.KeyGroupRange, error) {
	if parallelism <= 0 {
		return nil, fmt.Errorf("%w: parallelism %d", types.ErrInvalidParallelism, parallelism)
	}
	if maxParallelism < parallelism {
		return nil, fmt.Errorf("%w: parallelism %d exceeds max parallelism %d",
			types.ErrInvalidParallelism, parallelism, maxParallelism)
	}

	partitions := make([]types.KeyGroupRange, 0, parallelism)
	for i := 0; i < parallelism; i++ {
		r, err := types.NewKeyGroupRange(
			i*maxParallelism/parallelism,
			(i+1)*maxParallelism/parallelism-1,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: partition %d of %d over %d key groups",
				types.ErrInternalInvariant, i, parallelism, maxParallelism)
		}
		partitions = append(partitions, r)
	}

	return partitions, nil
}

// SubtaskForKeyGroup returns the subtask index that owns a key group under
// the partitioning of CreateKeyGroupPartitions.
//
// Parameters:
//   - maxParallelism: Number of available key groups M
//   - parallelism: Number of subtasks P
//   - keyGroup: Key group id in [0, M)
//
// Returns:
//   - int: Owning subtask index
//   - error: ErrInvalidParallelism on bad bounds, ErrInvalidKeyGroupRange if
//     the key group is outside [0, M)
func SubtaskForKeyGroup(maxParallelism, parallelism, keyGroup int) (int, error) {
	if parallelism <= 0 || maxParallelism < parallelism {
		return 0, fmt.Errorf("%w: parallelism %d, max parallelism %d",
			types.ErrInvalidParallelism, parallelism, maxParallelism)
	}
	if keyGroup < 0 || keyGroup >= maxParallelism {
		return 0, fmt.Errorf("%w: key group %d not in [0, %d)",
			types.ErrInvalidKeyGroupRange, keyGroup, maxParallelism)
	}

	return ((keyGroup+1)*parallelism - 1) / maxParallelism, nil
}
