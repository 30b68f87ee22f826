// Package bytecode is the compiler backend for Nightjar functions: it turns
// a front-end's emission calls into the executable artifact the interpreter
// runs.
//
// The package has three cooperating pieces:
//
//   - Buffer: a growable byte sequence interleaving single-byte opcodes with
//     fixed-width operand words. Words are little-endian and stored at byte
//     granularity; in-place patching at recorded offsets resolves forward
//     branches.
//
//   - Pool: a bounded append-only constant pool. Indices are assigned at
//     append time and referenced from the instruction stream as operand
//     words.
//
//   - Writer: the emission facade. It appends instruction fragments in the
//     exact operand order the interpreter decodes, manages a label table for
//     forward and backward jumps, tracks the local slot requirement, and
//     seals everything into an immutable Function.
//
// Labels follow an open/place/close protocol. A branch to an already placed
// label resolves immediately; a branch to an open label leaves a placeholder
// word whose offset is recorded and patched when the label is placed. Any
// number of branches may wait on the same label.
//
// Errors are sticky. A writer that overflows its code, pool or label limits
// keeps accepting calls and reports the first failure when Finish is
// called, so a front-end does not have to check every emission. Once the
// code limit is hit, later appends are no-ops.
//
// Function artifacts can be rendered with Disassemble and serialized to a
// CBOR image with EncodeImage for storage or transport.
package bytecode
