// Package redistribute implements the pure redistribution algorithms of the
// reassignment core: the key-group partitioner, the keyed-state reassigner,
// and the round-robin operator-state repartitioner.
//
// Everything in this package is deterministic and side-effect free. Two runs
// over the same inputs produce identical outputs, which lets independent
// re-derivations of an assignment (for example on a standby coordinator)
// agree without coordination.
package redistribute
