package bytecode

import (
	"errors"

	"github.com/nightjar-mud/nightjar/pkg/value"
)

// MaxConstants bounds the constant pool of a single function. The limit is
// far below the operand word range, so every emitted pool index fits.
const MaxConstants = 1024

// ErrPoolFull poisons a writer whose constant pool overflowed.
var ErrPoolFull = errors.New("bytecode: constant pool is full")

// Pool is an append-only ordered sequence of constants. Indices are assigned
// at append time and stay valid for the pool's lifetime. The pool does not
// deduplicate; the interpreter only ever reads by index.
type Pool struct {
	values []value.Value
}

// NewPool returns an empty constant pool.
func NewPool() *Pool {
	return &Pool{values: make([]value.Value, 0, 8)}
}

// Append adds v to the pool and returns its index.
func (p *Pool) Append(v value.Value) (Word, error) {
	if len(p.values) >= MaxConstants {
		return 0, ErrPoolFull
	}
	idx := Word(len(p.values))
	p.values = append(p.values, v)
	return idx, nil
}

// At returns the constant at index i.
func (p *Pool) At(i Word) value.Value {
	return p.values[i]
}

// Len returns the number of constants in the pool.
func (p *Pool) Len() int {
	return len(p.values)
}

// Values returns the backing slice. It is owned by the pool until the
// writer finishes.
func (p *Pool) Values() []value.Value {
	return p.values
}
