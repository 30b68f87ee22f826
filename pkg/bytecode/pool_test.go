package bytecode

import (
	"errors"
	"testing"

	"github.com/nightjar-mud/nightjar/pkg/value"
)

func TestPoolAppendAssignsSequentialIndices(t *testing.T) {
	p := NewPool()

	for i := 0; i < 5; i++ {
		idx, err := p.Append(value.FromInt(int32(i * 10)))
		if err != nil {
			t.Fatalf("Append(%d) error: %v", i, err)
		}
		if idx != Word(i) {
			t.Errorf("Append %d returned index %d, want %d", i, idx, i)
		}
	}
	if p.Len() != 5 {
		t.Errorf("Len() = %d, want 5", p.Len())
	}
}

func TestPoolIndexStability(t *testing.T) {
	p := NewPool()

	idx, err := p.Append(value.FromInt(42))
	if err != nil {
		t.Fatal(err)
	}

	// No amount of later appends may disturb an assigned index.
	for i := 0; i < 100; i++ {
		if _, err := p.Append(value.Nil()); err != nil {
			t.Fatal(err)
		}
	}

	got := p.At(idx)
	if !got.IsInt() || got.Int() != 42 {
		t.Errorf("At(%d) = %v, want 42", idx, got)
	}
}

func TestPoolNoDeduplication(t *testing.T) {
	p := NewPool()

	a, _ := p.Append(value.FromInt(7))
	b, _ := p.Append(value.FromInt(7))

	if a == b {
		t.Errorf("equal constants shared index %d; the pool must not deduplicate", a)
	}
}

func TestPoolFull(t *testing.T) {
	p := NewPool()

	for i := 0; i < MaxConstants; i++ {
		if _, err := p.Append(value.Nil()); err != nil {
			t.Fatalf("Append %d failed early: %v", i, err)
		}
	}

	if _, err := p.Append(value.Nil()); !errors.Is(err, ErrPoolFull) {
		t.Errorf("Append past the cap = %v, want ErrPoolFull", err)
	}
	if p.Len() != MaxConstants {
		t.Errorf("Len() = %d, want %d", p.Len(), MaxConstants)
	}
}
