package bytecode

import (
	"errors"
	"fmt"

	"github.com/nightjar-mud/nightjar/pkg/value"
)

// Label identifies a deferred branch target. Labels are small integers
// valid only within the writer that handed them out, and are single-use:
// opened once, placed at most once, then closed.
type Label int

// NoLabel is returned by OpenLabel when the label table is exhausted.
// Branches to it emit a sentinel operand the interpreter rejects.
const NoLabel Label = -1

// MaxLabels bounds the number of labels simultaneously live in one writer.
const MaxLabels = 64

var (
	// ErrLabelsExhausted poisons a writer that ran out of label slots.
	ErrLabelsExhausted = errors.New("bytecode: label table is full")

	// ErrUnresolvedLabel reports a branch that was emitted but whose label
	// was never placed.
	ErrUnresolvedLabel = errors.New("bytecode: jump to a label that was never placed")
)

type labelState uint8

const (
	slotFree labelState = iota
	slotOpen
	slotPlaced
)

// labelSlot tracks one label. While the label is open, pending holds the
// byte offsets of every emitted branch operand waiting for the target.
// Placement patches them all and empties the list.
type labelSlot struct {
	state   labelState
	target  Word
	pending []int
}

// Writer assembles a single function body. It owns a code buffer and a
// constant pool, translates emission calls into opcode and operand bytes,
// resolves forward and backward jumps through its label table, and hands
// everything to a new Function on Finish.
//
// A writer is driven by exactly one compilation and is not safe for
// concurrent use. Errors are sticky: the first one is kept and Finish
// reports it. Emission calls are still accepted after an error; they turn
// into no-ops only once the code buffer has hit its size limit.
type Writer struct {
	buf       *Buffer
	pool      *Pool
	labels    [MaxLabels]labelSlot
	maxLocals int
	varargs   bool
	err       error
}

// NewWriter returns a writer with an empty buffer and pool.
func NewWriter() *Writer {
	return &Writer{
		buf:  NewBuffer(),
		pool: NewPool(),
	}
}

// poison records the first error, unless the buffer already failed first;
// later emissions keep running and Finish reports the recorded error.
func (w *Writer) poison(err error) {
	if w.Err() == nil {
		w.err = err
	}
}

// Err returns the sticky error, or nil if the writer is healthy.
func (w *Writer) Err() error {
	if w.err != nil {
		return w.err
	}
	if w.buf != nil {
		return w.buf.Err()
	}
	return nil
}

// Len returns the current code length in bytes.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// ReportLocals raises the local slot requirement to at least n. The count
// never decreases.
func (w *Writer) ReportLocals(n int) {
	if n > w.maxLocals {
		w.maxLocals = n
	}
}

// EnableVarargs marks the function as accepting surplus arguments.
func (w *Writer) EnableVarargs() {
	w.varargs = true
}

func (w *Writer) writeOp(op Opcode) {
	w.buf.AppendByte(byte(op))
}

// writeConstant appends v to the pool and its index to the code.
func (w *Writer) writeConstant(v value.Value) {
	idx, err := w.pool.Append(v)
	if err != nil {
		w.poison(err)
		w.buf.AppendWord(0)
		return
	}
	w.buf.AppendWord(idx)
}

// writeLabelRef emits the branch operand for label. A placed label resolves
// immediately; an open one leaves a placeholder word and records the patch
// site; an invalid one emits a sentinel the interpreter rejects.
func (w *Writer) writeLabelRef(label Label) {
	if label >= 0 && label < MaxLabels && w.labels[label].state == slotPlaced {
		w.buf.AppendWord(w.labels[label].target)
		return
	}
	if label >= 0 && label < MaxLabels && w.labels[label].state == slotOpen {
		off := w.buf.Len()
		w.buf.AppendWord(0)
		if w.buf.Err() == nil {
			w.labels[label].pending = append(w.labels[label].pending, off)
		}
		return
	}
	w.buf.AppendWord(^Word(0))
	w.poison(ErrLabelsExhausted)
}

// OpenLabel allocates a label in the Open state. It returns NoLabel and
// poisons the writer when the table is exhausted.
func (w *Writer) OpenLabel() Label {
	for i := range w.labels {
		if w.labels[i].state == slotFree {
			w.labels[i] = labelSlot{state: slotOpen}
			return Label(i)
		}
	}
	w.poison(ErrLabelsExhausted)
	return NoLabel
}

// PlaceLabel records the current code length as the label's target and
// patches every pending reference to it. Placing a label twice, or placing
// one that was never opened, is a compiler bug.
func (w *Writer) PlaceLabel(label Label) {
	if label == NoLabel {
		return
	}
	if label < 0 || label >= MaxLabels {
		panic(fmt.Sprintf("bytecode: place of invalid label %d", label))
	}
	slot := &w.labels[label]
	switch slot.state {
	case slotPlaced:
		panic(fmt.Sprintf("bytecode: label %d placed twice", label))
	case slotFree:
		panic(fmt.Sprintf("bytecode: place of unopened label %d", label))
	}
	slot.target = Word(w.buf.Len())
	for _, off := range slot.pending {
		w.buf.PatchWordAt(off, slot.target)
	}
	slot.pending = nil
	slot.state = slotPlaced
}

// CloseLabel releases the label's slot. Closing a placed label is the
// normal end of its life; closing an open label that already has emitted
// references abandons them at the placeholder, which poisons the writer.
func (w *Writer) CloseLabel(label Label) {
	if label < 0 || label >= MaxLabels {
		return
	}
	slot := &w.labels[label]
	if slot.state == slotOpen && len(slot.pending) > 0 {
		w.poison(ErrUnresolvedLabel)
	}
	*slot = labelSlot{}
}

// LoadSelf emits LOAD_SELF.
func (w *Writer) LoadSelf() {
	w.writeOp(OpLoadSelf)
}

// LoadConst emits LOAD_CONST with a fresh pool entry for v.
func (w *Writer) LoadConst(v value.Value) {
	w.writeOp(OpLoadConst)
	w.writeConstant(v)
}

// LoadArray emits LOAD_ARRAY, collecting size stacked elements.
func (w *Writer) LoadArray(size Word) {
	w.writeOp(OpLoadArray)
	w.buf.AppendWord(size)
}

// LoadMapping emits LOAD_MAPPING, collecting size stacked key/value slots.
func (w *Writer) LoadMapping(size Word) {
	w.writeOp(OpLoadMapping)
	w.buf.AppendWord(size)
}

// LoadFuncref emits LOAD_FUNCREF with the function name as a pool entry.
func (w *Writer) LoadFuncref(name *value.Symbol) {
	w.writeOp(OpLoadFuncref)
	w.writeConstant(value.FromRef(name))
}

// LoadLocal emits LOAD_LOCAL for the given slot.
func (w *Writer) LoadLocal(index Word) {
	w.writeOp(OpLoadLocal)
	w.buf.AppendWord(index)
}

// LoadMember emits LOAD_MEMBER for the given slot of self.
func (w *Writer) LoadMember(index Word) {
	w.writeOp(OpLoadMember)
	w.buf.AppendWord(index)
}

// StoreLocal emits STORE_LOCAL for the given slot.
func (w *Writer) StoreLocal(index Word) {
	w.writeOp(OpStoreLocal)
	w.buf.AppendWord(index)
}

// StoreMember emits STORE_MEMBER for the given slot of self.
func (w *Writer) StoreMember(index Word) {
	w.writeOp(OpStoreMember)
	w.buf.AppendWord(index)
}

// PushSelf emits PUSH_SELF.
func (w *Writer) PushSelf() {
	w.writeOp(OpPushSelf)
}

// Push emits PUSH.
func (w *Writer) Push() {
	w.writeOp(OpPush)
}

// Pop emits POP.
func (w *Writer) Pop() {
	w.writeOp(OpPop)
}

// Op emits the OP instruction with a secondary operator code.
func (w *Writer) Op(op Operator) {
	w.writeOp(OpOperator)
	w.buf.AppendWord(Word(op))
}

// Send emits SEND: the selector goes into the pool, then the argument
// count follows as a second operand word.
func (w *Writer) Send(message *value.Symbol, argc Word) {
	w.writeOp(OpSend)
	w.writeConstant(value.FromRef(message))
	w.buf.AppendWord(argc)
}

// SuperSend emits SUPER_SEND with the same operand layout as Send.
func (w *Writer) SuperSend(message *value.Symbol, argc Word) {
	w.writeOp(OpSuperSend)
	w.writeConstant(value.FromRef(message))
	w.buf.AppendWord(argc)
}

// Jump emits an unconditional branch to label.
func (w *Writer) Jump(label Label) {
	w.writeOp(OpJump)
	w.writeLabelRef(label)
}

// JumpIf emits a branch taken when the accumulator is truthy.
func (w *Writer) JumpIf(label Label) {
	w.writeOp(OpJumpIf)
	w.writeLabelRef(label)
}

// JumpIfNot emits a branch taken when the accumulator is falsy.
func (w *Writer) JumpIfNot(label Label) {
	w.writeOp(OpJumpIfNot)
	w.writeLabelRef(label)
}

// Return emits RETURN.
func (w *Writer) Return() {
	w.writeOp(OpReturn)
}

// Finish seals the writer into a Function. The local count gains one slot
// for the implicit receiver. Finish refuses if the writer is poisoned or if
// any branch still waits on an unplaced label; either way the writer gives
// up its storage and must not be used again.
func (w *Writer) Finish() (*Function, error) {
	if w.buf == nil {
		panic("bytecode: writer used after Finish")
	}
	if err := w.Err(); err != nil {
		w.buf, w.pool = nil, nil
		return nil, err
	}
	for i := range w.labels {
		if w.labels[i].state == slotOpen && len(w.labels[i].pending) > 0 {
			w.buf, w.pool = nil, nil
			return nil, fmt.Errorf("%w: label %d", ErrUnresolvedLabel, i)
		}
	}
	fn := &Function{
		NumLocals: w.maxLocals + 1, // + 1 for self
		Varargs:   w.varargs,
		Code:      w.buf.Bytes(),
		Constants: w.pool.Values(),
	}
	w.buf, w.pool = nil, nil
	return fn, nil
}
