package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Word is the fixed-width operand type embedded in the instruction stream.
// Words are wide enough to index the constant pool and to hold absolute
// code offsets.
type Word uint32

// WordSize is the byte width of an operand word.
const WordSize = 4

const (
	// initialCap is the starting capacity of a code buffer.
	initialCap = 128

	// MaxCodeBytes bounds the code a single function may carry. Growing a
	// buffer past this limit poisons the emission, the way a failed
	// allocation would.
	MaxCodeBytes = 64 * 1024
)

// ErrCodeTooLarge poisons a buffer whose code section outgrew MaxCodeBytes.
var ErrCodeTooLarge = errors.New("bytecode: code section exceeds size limit")

// Buffer is a growable byte sequence holding an instruction stream. Operand
// words are stored at byte granularity in little-endian order; no alignment
// is assumed. A buffer that fails to grow becomes poisoned: every later
// append is a no-op and the sticky error surfaces at Writer.Finish.
type Buffer struct {
	code []byte
	err  error
}

// NewBuffer returns an empty buffer with the default starting capacity.
func NewBuffer() *Buffer {
	return &Buffer{code: make([]byte, 0, initialCap)}
}

// Len returns the current fill in bytes.
func (b *Buffer) Len() int {
	return len(b.code)
}

// Bytes returns the underlying code bytes. The slice is owned by the buffer
// until the writer finishes.
func (b *Buffer) Bytes() []byte {
	return b.code
}

// Err returns the sticky error, or nil if the buffer is healthy.
func (b *Buffer) Err() error {
	return b.err
}

// ensure grows the buffer so that n more bytes fit, doubling the capacity
// until they do. Exceeding MaxCodeBytes poisons the buffer.
func (b *Buffer) ensure(n int) bool {
	if b.err != nil {
		return false
	}
	if len(b.code)+n > MaxCodeBytes {
		b.err = ErrCodeTooLarge
		return false
	}
	if len(b.code)+n <= cap(b.code) {
		return true
	}
	newCap := cap(b.code) * 2
	if newCap == 0 {
		newCap = initialCap
	}
	for newCap < len(b.code)+n {
		newCap *= 2
	}
	grown := make([]byte, len(b.code), newCap)
	copy(grown, b.code)
	b.code = grown
	return true
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) {
	if !b.ensure(1) {
		return
	}
	b.code = append(b.code, c)
}

// AppendWord appends an operand word at the current fill, byte by byte.
func (b *Buffer) AppendWord(w Word) {
	if !b.ensure(WordSize) {
		return
	}
	b.code = binary.LittleEndian.AppendUint32(b.code, uint32(w))
}

// PatchWordAt overwrites the word at byte offset off without changing the
// fill. The full word must already lie inside the buffer.
func (b *Buffer) PatchWordAt(off int, w Word) {
	if off < 0 || off+WordSize > len(b.code) {
		panic(fmt.Sprintf("bytecode: patch at %d outside buffer of %d bytes", off, len(b.code)))
	}
	binary.LittleEndian.PutUint32(b.code[off:], uint32(w))
}

// WordAt reads the operand word stored at byte offset off.
func (b *Buffer) WordAt(off int) Word {
	if off < 0 || off+WordSize > len(b.code) {
		panic(fmt.Sprintf("bytecode: read at %d outside buffer of %d bytes", off, len(b.code)))
	}
	return Word(binary.LittleEndian.Uint32(b.code[off:]))
}
