// Package codegen is the compiler-facing facade over the bytecode writer.
// A parser drives it with symbolic calls (declare this variable, load that
// name, break out of the loop) and the facade lowers them to concrete slot
// indices and label operations on a shared writer.
package codegen

import (
	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/pkg/value"
)

// MemberResolver resolves a name to a member slot of the blueprint being
// compiled. Lookups that miss fall through to the caller, which typically
// tries a self-send instead.
type MemberResolver interface {
	MemberIndex(name *value.Symbol) (int, bool)
}

// Compiler tracks one lexical scope of a function body. Nested blocks get a
// sub-compiler chained to the enclosing one; all of them share the same
// writer, so slot numbering and emitted code stay contiguous.
type Compiler struct {
	parent        *Compiler
	cw            *bytecode.Writer
	members       MemberResolver
	scope         *Scope
	args          int
	breakLabel    bytecode.Label
	continueLabel bytecode.Label
}

// NewCompiler returns a top-level compiler for one function body. members
// may be nil when the enclosing blueprint has no member variables.
func NewCompiler(cw *bytecode.Writer, members MemberResolver) *Compiler {
	return &Compiler{
		cw:            cw,
		members:       members,
		scope:         NewScope(),
		breakLabel:    bytecode.NoLabel,
		continueLabel: bytecode.NoLabel,
	}
}

// NewSub returns a compiler for a nested scope. It shares the parent's
// writer and continues its slot numbering.
func NewSub(parent *Compiler) *Compiler {
	return &Compiler{
		parent:        parent,
		cw:            parent.cw,
		members:       parent.members,
		scope:         NewSubScope(parent.scope),
		breakLabel:    bytecode.NoLabel,
		continueLabel: bytecode.NoLabel,
	}
}

// Writer exposes the underlying writer for emission calls the facade does
// not wrap.
func (c *Compiler) Writer() *bytecode.Writer {
	return c.cw
}

// AddArg declares a formal argument. Arguments are ordinary variables that
// also count toward the function's arity.
func (c *Compiler) AddArg(name *value.Symbol) {
	c.args++
	c.AddVar(name)
}

// AddVar declares a local variable and reports the new slot requirement to
// the writer.
func (c *Compiler) AddVar(name *value.Symbol) {
	c.scope.Add(name)
	c.cw.ReportLocals(c.scope.Count())
}

// EnableVarargs marks the function as accepting surplus arguments.
func (c *Compiler) EnableVarargs() {
	c.cw.EnableVarargs()
}

// LoadSelf loads the receiver.
func (c *Compiler) LoadSelf() {
	c.cw.LoadSelf()
}

// LoadConst loads a constant.
func (c *Compiler) LoadConst(v value.Value) {
	c.cw.LoadConst(v)
}

// LoadArray builds an array from size stacked elements.
func (c *Compiler) LoadArray(size int) {
	c.cw.LoadArray(bytecode.Word(size))
}

// LoadMapping builds a mapping from size stacked key/value slots.
func (c *Compiler) LoadMapping(size int) {
	c.cw.LoadMapping(bytecode.Word(size))
}

// LoadFuncref builds a reference to the named function on self.
func (c *Compiler) LoadFuncref(name *value.Symbol) {
	c.cw.LoadFuncref(name)
}

// LoadVar lowers a symbolic load: a local if the scope chain knows the
// name, a member of self otherwise. It reports whether the name resolved;
// on a miss the caller decides the fallback (usually a self-send).
func (c *Compiler) LoadVar(name *value.Symbol) bool {
	if slot, ok := c.scope.Find(name); ok {
		c.cw.LoadLocal(bytecode.Word(slot))
		return true
	}
	if c.members != nil {
		if slot, ok := c.members.MemberIndex(name); ok {
			c.cw.LoadMember(bytecode.Word(slot))
			return true
		}
	}
	return false
}

// StoreVar lowers a symbolic store, mirroring LoadVar.
func (c *Compiler) StoreVar(name *value.Symbol) bool {
	if slot, ok := c.scope.Find(name); ok {
		c.cw.StoreLocal(bytecode.Word(slot))
		return true
	}
	if c.members != nil {
		if slot, ok := c.members.MemberIndex(name); ok {
			c.cw.StoreMember(bytecode.Word(slot))
			return true
		}
	}
	return false
}

// PushSelf pushes the receiver.
func (c *Compiler) PushSelf() {
	c.cw.PushSelf()
}

// Push pushes the accumulator.
func (c *Compiler) Push() {
	c.cw.Push()
}

// Pop pops into the accumulator.
func (c *Compiler) Pop() {
	c.cw.Pop()
}

// Op emits a builtin operator.
func (c *Compiler) Op(op bytecode.Operator) {
	c.cw.Op(op)
}

// Send emits a message send.
func (c *Compiler) Send(message *value.Symbol, argc int) {
	c.cw.Send(message, bytecode.Word(argc))
}

// SuperSend emits a message send resolved on the parent blueprint.
func (c *Compiler) SuperSend(message *value.Symbol, argc int) {
	c.cw.SuperSend(message, bytecode.Word(argc))
}

// Return emits RETURN.
func (c *Compiler) Return() {
	c.cw.Return()
}

// OpenLabel allocates a plain label.
func (c *Compiler) OpenLabel() bytecode.Label {
	return c.cw.OpenLabel()
}

// OpenBreakLabel allocates a label and installs it as the innermost break
// target.
func (c *Compiler) OpenBreakLabel() bytecode.Label {
	c.breakLabel = c.cw.OpenLabel()
	return c.breakLabel
}

// OpenContinueLabel allocates a label and installs it as the innermost
// continue target.
func (c *Compiler) OpenContinueLabel() bytecode.Label {
	c.continueLabel = c.cw.OpenLabel()
	return c.continueLabel
}

// PlaceLabel places a label at the current code position.
func (c *Compiler) PlaceLabel(label bytecode.Label) {
	c.cw.PlaceLabel(label)
}

// CloseLabel releases a label.
func (c *Compiler) CloseLabel(label bytecode.Label) {
	c.cw.CloseLabel(label)
}

// Jump emits an unconditional branch.
func (c *Compiler) Jump(label bytecode.Label) {
	c.cw.Jump(label)
}

// JumpIf emits a branch taken on a truthy accumulator.
func (c *Compiler) JumpIf(label bytecode.Label) {
	c.cw.JumpIf(label)
}

// JumpIfNot emits a branch taken on a falsy accumulator.
func (c *Compiler) JumpIfNot(label bytecode.Label) {
	c.cw.JumpIfNot(label)
}

// Break jumps to the innermost enclosing break label. It reports false when
// no loop is open.
func (c *Compiler) Break() bool {
	for cc := c; cc != nil; cc = cc.parent {
		if cc.breakLabel != bytecode.NoLabel {
			c.cw.Jump(cc.breakLabel)
			return true
		}
	}
	return false
}

// Continue jumps to the innermost enclosing continue label. It reports
// false when no loop is open.
func (c *Compiler) Continue() bool {
	for cc := c; cc != nil; cc = cc.parent {
		if cc.continueLabel != bytecode.NoLabel {
			c.cw.Jump(cc.continueLabel)
			return true
		}
	}
	return false
}

// Finish seals the shared writer into a function artifact.
func (c *Compiler) Finish() (*bytecode.Function, error) {
	return c.cw.Finish()
}
