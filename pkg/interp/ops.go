package interp

import (
	"fmt"

	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/pkg/value"
)

// boolInt converts a truth value to the integer the operators produce.
func boolInt(b bool) value.Value {
	if b {
		return value.FromInt(1)
	}
	return value.FromInt(0)
}

func bothNumeric(a, b value.Value) bool {
	return (a.IsInt() || a.IsChar()) && (b.IsInt() || b.IsChar())
}

// applyOperator executes a secondary operator code. Binary operators take
// the left operand from the stack (a) and the right operand from the
// accumulator (b); the result replaces the accumulator.
func (f *Fiber) applyOperator(op bytecode.Operator) error {
	switch op {
	case bytecode.OperatorEq:
		f.accu = boolInt(value.Equal(f.pop(), f.accu))
	case bytecode.OperatorIneq:
		f.accu = boolInt(!value.Equal(f.pop(), f.accu))
	case bytecode.OperatorAdd:
		return f.arith(op, func(a, b int32) (int32, error) { return a + b, nil })
	case bytecode.OperatorSub:
		return f.arith(op, func(a, b int32) (int32, error) { return a - b, nil })
	case bytecode.OperatorMul:
		return f.arith(op, func(a, b int32) (int32, error) { return a * b, nil })
	case bytecode.OperatorDiv:
		return f.arith(op, func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, fmt.Errorf("interp: division by zero")
			}
			return a / b, nil
		})
	case bytecode.OperatorMod:
		return f.arith(op, func(a, b int32) (int32, error) {
			if b == 0 {
				return 0, fmt.Errorf("interp: modulo by zero")
			}
			return a % b, nil
		})
	case bytecode.OperatorLess:
		return f.compare(op, func(a, b int32) bool { return a < b })
	case bytecode.OperatorLeq:
		return f.compare(op, func(a, b int32) bool { return a <= b })
	case bytecode.OperatorGreater:
		return f.compare(op, func(a, b int32) bool { return a > b })
	case bytecode.OperatorGeq:
		return f.compare(op, func(a, b int32) bool { return a >= b })
	case bytecode.OperatorNegate:
		if !f.accu.IsInt() && !f.accu.IsChar() {
			return fmt.Errorf("interp: cannot negate %v", f.accu.Kind())
		}
		f.accu = value.FromInt(-f.accu.Int())
	case bytecode.OperatorNot:
		f.accu = boolInt(!f.accu.Truthy())
	case bytecode.OperatorBitAnd:
		return f.arith(op, func(a, b int32) (int32, error) { return a & b, nil })
	case bytecode.OperatorBitOr:
		return f.arith(op, func(a, b int32) (int32, error) { return a | b, nil })
	case bytecode.OperatorLeftShift:
		return f.arith(op, func(a, b int32) (int32, error) { return a << uint32(b), nil })
	case bytecode.OperatorRightShift:
		return f.arith(op, func(a, b int32) (int32, error) { return a >> uint32(b), nil })
	case bytecode.OperatorIndex:
		return f.index()
	case bytecode.OperatorIndexAssign:
		return f.indexAssign()
	case bytecode.OperatorSizeof:
		f.accu = value.FromInt(sizeOf(f.accu))
	default:
		return fmt.Errorf("interp: unknown operator %d", op)
	}
	return nil
}

// arith runs an integer operator. Strings concatenate under +.
func (f *Fiber) arith(op bytecode.Operator, fn func(a, b int32) (int32, error)) error {
	a := f.pop()
	b := f.accu
	if op == bytecode.OperatorAdd {
		if as, ok := a.Ref().(string); ok {
			if bs, ok := b.Ref().(string); ok {
				f.accu = value.FromRef(as + bs)
				return nil
			}
		}
	}
	if !bothNumeric(a, b) {
		return fmt.Errorf("interp: operator %s needs integers, got %v and %v",
			op, a.Kind(), b.Kind())
	}
	n, err := fn(a.Int(), b.Int())
	if err != nil {
		return err
	}
	f.accu = value.FromInt(n)
	return nil
}

func (f *Fiber) compare(op bytecode.Operator, fn func(a, b int32) bool) error {
	a := f.pop()
	b := f.accu
	if !bothNumeric(a, b) {
		return fmt.Errorf("interp: operator %s needs integers, got %v and %v",
			op, a.Kind(), b.Kind())
	}
	f.accu = boolInt(fn(a.Int(), b.Int()))
	return nil
}

// index pops the container and indexes it with the accumulator.
func (f *Fiber) index() error {
	container := f.pop()
	key := f.accu
	switch ref := container.Ref().(type) {
	case *Array:
		i := int(key.Int())
		if !key.IsInt() || i < 0 || i >= ref.Len() {
			return fmt.Errorf("interp: array index %v out of range", key)
		}
		f.accu = ref.Elems[i]
	case *Mapping:
		f.accu = ref.Get(key)
	case string:
		i := int(key.Int())
		if !key.IsInt() || i < 0 || i >= len(ref) {
			return fmt.Errorf("interp: string index %v out of range", key)
		}
		f.accu = value.FromChar(ref[i])
	default:
		return fmt.Errorf("interp: cannot index %v", container.Kind())
	}
	return nil
}

// indexAssign pops the index and the container; the stored value is the
// accumulator and stays there as the result.
func (f *Fiber) indexAssign() error {
	key := f.pop()
	container := f.pop()
	switch ref := container.Ref().(type) {
	case *Array:
		i := int(key.Int())
		if !key.IsInt() || i < 0 || i >= ref.Len() {
			return fmt.Errorf("interp: array index %v out of range", key)
		}
		ref.Elems[i] = f.accu
	case *Mapping:
		ref.Put(key, f.accu)
	default:
		return fmt.Errorf("interp: cannot index-assign %v", container.Kind())
	}
	return nil
}

func sizeOf(v value.Value) int32 {
	switch ref := v.Ref().(type) {
	case *Array:
		return int32(ref.Len())
	case *Mapping:
		return int32(ref.Len())
	case string:
		return int32(len(ref))
	default:
		return 0
	}
}
