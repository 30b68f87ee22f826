package value

import "fmt"

// Kind identifies the payload stored in a Value.
type Kind uint8

const (
	// KindNil is the absent value.
	KindNil Kind = iota

	// KindInt is a signed 32-bit integer.
	KindInt

	// KindChar is an 8-bit character.
	KindChar

	// KindRef is a reference to a heap object (symbol, string, array, ...).
	KindRef
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindInt:
		return "int"
	case KindChar:
		return "char"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a tagged scalar: nil, an integer, a character, or a heap
// reference. The compiler treats values as opaque payloads; only the
// interpreter gives them meaning.
type Value struct {
	kind Kind
	n    int32
	ref  any
}

// Nil returns the nil value.
func Nil() Value {
	return Value{kind: KindNil}
}

// FromInt wraps a signed 32-bit integer.
func FromInt(n int32) Value {
	return Value{kind: KindInt, n: n}
}

// FromChar wraps an 8-bit character.
func FromChar(c byte) Value {
	return Value{kind: KindChar, n: int32(c)}
}

// FromRef wraps a heap reference. A nil reference yields the nil value.
func FromRef(ref any) Value {
	if ref == nil {
		return Nil()
	}
	return Value{kind: KindRef, ref: ref}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool {
	return v.kind == KindNil
}

// IsInt reports whether v holds an integer.
func (v Value) IsInt() bool {
	return v.kind == KindInt
}

// IsChar reports whether v holds a character.
func (v Value) IsChar() bool {
	return v.kind == KindChar
}

// IsRef reports whether v holds a heap reference.
func (v Value) IsRef() bool {
	return v.kind == KindRef
}

// Int returns the integer payload. Characters coerce to their code point.
func (v Value) Int() int32 {
	return v.n
}

// Char returns the character payload. Integers coerce to their low byte.
func (v Value) Char() byte {
	return byte(v.n)
}

// Ref returns the heap reference payload, or nil for non-reference values.
func (v Value) Ref() any {
	return v.ref
}

// Symbol returns the referenced symbol, or nil if v is not a symbol.
func (v Value) Symbol() *Symbol {
	if v.kind != KindRef {
		return nil
	}
	sym, _ := v.ref.(*Symbol)
	return sym
}

// Truthy reports the boolean interpretation of v: nil is false, zero
// integers and characters are false, everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindInt, KindChar:
		return v.n != 0
	default:
		return true
	}
}

// Equal reports whether a and b hold the same tag and payload. References
// compare by identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindRef {
		return a.ref == b.ref
	}
	return a.n == b.n
}

// String renders v for diagnostics and disassembly.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindInt:
		return fmt.Sprintf("%d", v.n)
	case KindChar:
		return fmt.Sprintf("'%c'", byte(v.n))
	default:
		if s, ok := v.ref.(fmt.Stringer); ok {
			return s.String()
		}
		if s, ok := v.ref.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("<%T>", v.ref)
	}
}
