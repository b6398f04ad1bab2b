// Package metadata provides checkpoint metadata sources for the reassigner.
//
// The reassignment core consumes checkpoint metadata as a value; this
// package is the outer tooling that produces that value, either from a
// fixed in-memory description (Static) or by parsing a serialized
// checkpoint meta stream (Parse, ParseFile).
package metadata
