// Package interp executes compiled function artifacts. It implements the
// consuming side of the bytecode wire contract: an accumulator machine with
// a value stack, per-call frames whose local slot 0 holds the receiver, and
// absolute jump targets.
package interp

import (
	"errors"
	"fmt"

	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/pkg/value"
)

// ErrCrashed wraps every runtime failure a fiber reports.
var ErrCrashed = errors.New("interp: fiber crashed")

// maxFrames bounds call depth.
const maxFrames = 1024

// frame is one activation: the function, the blueprint that defined it
// (for super sends), the instruction pointer, and the local slots.
type frame struct {
	fn     *bytecode.Function
	bp     *Blueprint
	ip     int
	locals []value.Value
}

func (fr *frame) self() value.Value {
	return fr.locals[0]
}

// local returns a pointer to local slot i; slot 0 is the receiver, so the
// compiler's slot numbering starts one past it.
func (fr *frame) local(i bytecode.Word) *value.Value {
	return &fr.locals[int(i)+1]
}

// Fiber is a single-threaded execution context. It is created per call and
// not shared.
type Fiber struct {
	stack  []value.Value
	frames []frame
	accu   value.Value
}

// NewFiber returns an idle fiber.
func NewFiber() *Fiber {
	return &Fiber{
		stack:  make([]value.Value, 0, 64),
		frames: make([]frame, 0, 8),
	}
}

// Run executes fn with the given receiver and arguments and returns the
// value left in the accumulator.
func (f *Fiber) Run(fn *bytecode.Function, self value.Value, args ...value.Value) (value.Value, error) {
	if err := f.pushFrame(fn, blueprintOf(self), self, args); err != nil {
		return value.Nil(), err
	}
	if err := f.interpret(); err != nil {
		return value.Nil(), fmt.Errorf("%w: %v", ErrCrashed, err)
	}
	return f.accu, nil
}

func blueprintOf(v value.Value) *Blueprint {
	if obj, ok := v.Ref().(*Object); ok {
		return obj.Blueprint()
	}
	return nil
}

func (f *Fiber) push(v value.Value) {
	f.stack = append(f.stack, v)
}

func (f *Fiber) pop() value.Value {
	if len(f.stack) == 0 {
		return value.Nil()
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

// peek returns the value n slots below the top of the stack.
func (f *Fiber) peek(n int) value.Value {
	return f.stack[len(f.stack)-1-n]
}

func (f *Fiber) top() *frame {
	return &f.frames[len(f.frames)-1]
}

// pushFrame builds an activation. The receiver lands in slot 0 and the
// arguments in the following slots; remaining locals start out nil. The
// artifact does not carry a fixed arity, so surplus arguments simply extend
// the frame (the varargs flag is the compiler's promise that this is
// intended).
func (f *Fiber) pushFrame(fn *bytecode.Function, bp *Blueprint, self value.Value, args []value.Value) error {
	if len(f.frames) >= maxFrames {
		return fmt.Errorf("interp: call stack overflow")
	}
	count := fn.NumLocals
	if len(args)+1 > count {
		count = len(args) + 1
	}
	locals := make([]value.Value, count)
	locals[0] = self
	copy(locals[1:], args)
	f.frames = append(f.frames, frame{fn: fn, bp: bp, locals: locals})
	return nil
}

func (f *Fiber) popFrame() {
	f.frames = f.frames[:len(f.frames)-1]
}

// nextWord decodes the operand word at the instruction pointer.
func (f *Fiber) nextWord() bytecode.Word {
	fr := f.top()
	w := fr.fn.WordAt(fr.ip)
	fr.ip += bytecode.WordSize
	return w
}

// nextConstant decodes a pool index operand and resolves it.
func (f *Fiber) nextConstant() (value.Value, error) {
	fr := f.top()
	idx := f.nextWord()
	if int(idx) >= fr.fn.ConstantCount() {
		return value.Nil(), fmt.Errorf("interp: constant index %d out of range", idx)
	}
	return fr.fn.ConstAt(idx), nil
}

// interpret runs the dispatch loop until the outermost frame returns.
func (f *Fiber) interpret() error {
	base := len(f.frames) - 1
	for len(f.frames) > base {
		fr := f.top()
		if fr.fn.OOB(fr.ip) {
			f.popFrame()
			continue
		}
		op := bytecode.Opcode(fr.fn.ByteAt(fr.ip))
		fr.ip++
		if err := f.step(op); err != nil {
			f.frames = f.frames[:base]
			return err
		}
	}
	return nil
}

func (f *Fiber) step(op bytecode.Opcode) error {
	switch op {
	case bytecode.OpNoop:
		// Nothing

	case bytecode.OpLoadSelf:
		f.accu = f.top().self()

	case bytecode.OpLoadConst:
		v, err := f.nextConstant()
		if err != nil {
			return err
		}
		f.accu = v

	case bytecode.OpLoadArray:
		f.loadArray(int(f.nextWord()))

	case bytecode.OpLoadMapping:
		f.loadMapping(int(f.nextWord()))

	case bytecode.OpLoadFuncref:
		v, err := f.nextConstant()
		if err != nil {
			return err
		}
		sym := v.Symbol()
		if sym == nil {
			return fmt.Errorf("interp: funcref name is not a symbol")
		}
		f.accu = value.FromRef(&FuncRef{Self: f.top().self(), Name: sym})

	case bytecode.OpLoadLocal:
		f.accu = *f.top().local(f.nextWord())

	case bytecode.OpLoadMember:
		obj, err := f.selfObject()
		if err != nil {
			return err
		}
		f.accu = obj.Slot(int(f.nextWord()))

	case bytecode.OpStoreLocal:
		*f.top().local(f.nextWord()) = f.accu

	case bytecode.OpStoreMember:
		obj, err := f.selfObject()
		if err != nil {
			return err
		}
		obj.SetSlot(int(f.nextWord()), f.accu)

	case bytecode.OpPushSelf:
		f.push(f.top().self())

	case bytecode.OpPush:
		f.push(f.accu)

	case bytecode.OpPop:
		f.accu = f.pop()

	case bytecode.OpOperator:
		return f.applyOperator(bytecode.Operator(f.nextWord()))

	case bytecode.OpSend:
		return f.send(false)

	case bytecode.OpSuperSend:
		return f.send(true)

	case bytecode.OpJump:
		f.top().ip = int(f.nextWord())

	case bytecode.OpJumpIf:
		target := f.nextWord()
		if f.accu.Truthy() {
			f.top().ip = int(target)
		}

	case bytecode.OpJumpIfNot:
		target := f.nextWord()
		if !f.accu.Truthy() {
			f.top().ip = int(target)
		}

	case bytecode.OpReturn:
		f.popFrame()

	default:
		return fmt.Errorf("interp: unknown opcode 0x%02X", byte(op))
	}
	return nil
}

func (f *Fiber) selfObject() (*Object, error) {
	obj, ok := f.top().self().Ref().(*Object)
	if !ok {
		return nil, fmt.Errorf("interp: member access on a non-object receiver")
	}
	return obj, nil
}

// loadArray gobbles size stacked values into a fresh array. The last value
// pushed becomes the last element.
func (f *Fiber) loadArray(size int) {
	arr := NewArray(size)
	for i := size - 1; i >= 0; i-- {
		arr.Elems[i] = f.pop()
	}
	f.accu = value.FromRef(arr)
}

// loadMapping gobbles size stacked values into a fresh mapping. Entries
// were pushed key first; an odd size drops the dangling value.
func (f *Fiber) loadMapping(size int) {
	m := NewMapping()
	if size%2 != 0 {
		f.pop()
	}
	for size > 1 {
		val := f.pop()
		key := f.pop()
		m.Put(key, val)
		size -= 2
	}
	f.accu = value.FromRef(m)
}

// send dispatches a message. The receiver sits below the arguments on the
// stack; super sends resolve starting above the blueprint that defined the
// running method.
func (f *Fiber) send(super bool) error {
	v, err := f.nextConstant()
	if err != nil {
		return err
	}
	selector := v.Symbol()
	if selector == nil {
		return fmt.Errorf("interp: send selector is not a symbol")
	}
	argc := int(f.nextWord())
	if len(f.stack) < argc+1 {
		return fmt.Errorf("interp: stack underflow sending %s", selector.Name())
	}
	receiver := f.peek(argc)

	var start *Blueprint
	if super {
		bp := f.top().bp
		if bp == nil || bp.Parent() == nil {
			return fmt.Errorf("interp: super send %s without a parent blueprint", selector.Name())
		}
		start = bp.Parent()
	} else {
		obj, ok := receiver.Ref().(*Object)
		if !ok {
			return fmt.Errorf("interp: message %s sent to a non-object", selector.Name())
		}
		start = obj.Blueprint()
	}

	fn, defining := start.Lookup(selector)
	if fn == nil {
		return fmt.Errorf("interp: %s does not understand %s", start.Name().Name(), selector.Name())
	}

	args := make([]value.Value, argc)
	copy(args, f.stack[len(f.stack)-argc:])
	f.stack = f.stack[:len(f.stack)-argc-1]

	return f.pushFrame(fn, defining, receiver, args)
}
