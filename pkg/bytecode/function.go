package bytecode

import (
	"encoding/binary"

	"github.com/nightjar-mud/nightjar/pkg/value"
)

// Function is the finished, immutable artifact a writer produces: the
// instruction bytes, the constant pool, and the metadata the interpreter
// needs to build a frame. Local slot 0 holds the receiver.
type Function struct {
	NumLocals int
	Varargs   bool
	Code      []byte
	Constants []value.Value
}

// CodeLen returns the length of the instruction stream in bytes.
func (f *Function) CodeLen() int {
	return len(f.Code)
}

// ConstantCount returns the number of constant pool entries.
func (f *Function) ConstantCount() int {
	return len(f.Constants)
}

// ByteAt returns the instruction byte at offset i.
func (f *Function) ByteAt(i int) byte {
	return f.Code[i]
}

// WordAt reads the operand word stored at byte offset i.
func (f *Function) WordAt(i int) Word {
	return Word(binary.LittleEndian.Uint32(f.Code[i:]))
}

// ConstAt returns the constant pool entry at index i.
func (f *Function) ConstAt(i Word) value.Value {
	return f.Constants[i]
}

// OOB reports whether offset i lies outside the instruction stream.
// Running off the end of a function is an implicit return.
func (f *Function) OOB(i int) bool {
	return i < 0 || i >= len(f.Code)
}
