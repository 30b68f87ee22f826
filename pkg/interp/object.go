package interp

import (
	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/pkg/value"
)

// Blueprint is the class-like template objects are instantiated from: a
// parent link, an ordered member layout, and a method table keyed by
// selector. Member slot numbering continues the parent's, so a child's
// objects can be accessed through parent-compiled code.
type Blueprint struct {
	name    *value.Symbol
	parent  *Blueprint
	members []*value.Symbol
	methods map[*value.Symbol]*bytecode.Function
}

// NewBlueprint creates a blueprint. parent may be nil.
func NewBlueprint(name *value.Symbol, parent *Blueprint) *Blueprint {
	return &Blueprint{
		name:    name,
		parent:  parent,
		methods: make(map[*value.Symbol]*bytecode.Function),
	}
}

// Name returns the blueprint's name.
func (bp *Blueprint) Name() *value.Symbol {
	return bp.name
}

// Parent returns the parent blueprint, or nil.
func (bp *Blueprint) Parent() *Blueprint {
	return bp.parent
}

// MemberCount returns the total slot count including inherited members.
func (bp *Blueprint) MemberCount() int {
	n := len(bp.members)
	if bp.parent != nil {
		n += bp.parent.MemberCount()
	}
	return n
}

func (bp *Blueprint) memberBase() int {
	if bp.parent == nil {
		return 0
	}
	return bp.parent.MemberCount()
}

// AddMember declares a member variable and returns its slot.
func (bp *Blueprint) AddMember(name *value.Symbol) int {
	slot := bp.memberBase() + len(bp.members)
	bp.members = append(bp.members, name)
	return slot
}

// MemberIndex resolves a member name to its slot, checking inherited
// members as well. It satisfies codegen.MemberResolver.
func (bp *Blueprint) MemberIndex(name *value.Symbol) (int, bool) {
	for i, m := range bp.members {
		if m == name {
			return bp.memberBase() + i, true
		}
	}
	if bp.parent != nil {
		return bp.parent.MemberIndex(name)
	}
	return 0, false
}

// AddMethod binds a compiled function to a selector.
func (bp *Blueprint) AddMethod(selector *value.Symbol, fn *bytecode.Function) {
	bp.methods[selector] = fn
}

// Lookup resolves a selector, walking the parent chain. It returns the
// function and the blueprint that defines it, or nil when the message is
// not understood.
func (bp *Blueprint) Lookup(selector *value.Symbol) (*bytecode.Function, *Blueprint) {
	for b := bp; b != nil; b = b.parent {
		if fn, ok := b.methods[selector]; ok {
			return fn, b
		}
	}
	return nil, nil
}

// Instantiate creates an object with all member slots nil.
func (bp *Blueprint) Instantiate() *Object {
	return &Object{
		bp:    bp,
		slots: make([]value.Value, bp.MemberCount()),
	}
}

// Object is an instance of a blueprint: its member slots.
type Object struct {
	bp    *Blueprint
	slots []value.Value
}

// Blueprint returns the object's blueprint.
func (o *Object) Blueprint() *Blueprint {
	return o.bp
}

// Slot returns member slot i.
func (o *Object) Slot(i int) value.Value {
	return o.slots[i]
}

// SetSlot assigns member slot i.
func (o *Object) SetSlot(i int, v value.Value) {
	o.slots[i] = v
}

// String implements fmt.Stringer.
func (o *Object) String() string {
	return "<object " + o.bp.name.Name() + ">"
}

// Array is an ordered mutable collection.
type Array struct {
	Elems []value.Value
}

// NewArray returns an array of n nil elements.
func NewArray(n int) *Array {
	return &Array{Elems: make([]value.Value, n)}
}

// Len returns the element count.
func (a *Array) Len() int {
	return len(a.Elems)
}

// String implements fmt.Stringer.
func (a *Array) String() string {
	return "<array>"
}

type mapPair struct {
	key, val value.Value
}

// Mapping is an association table keyed by value equality. Keys keep their
// insertion order.
type Mapping struct {
	pairs []mapPair
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{}
}

// Put inserts or replaces the entry for key.
func (m *Mapping) Put(key, val value.Value) {
	for i := range m.pairs {
		if value.Equal(m.pairs[i].key, key) {
			m.pairs[i].val = val
			return
		}
	}
	m.pairs = append(m.pairs, mapPair{key: key, val: val})
}

// Get returns the entry for key, or nil when absent.
func (m *Mapping) Get(key value.Value) value.Value {
	for i := range m.pairs {
		if value.Equal(m.pairs[i].key, key) {
			return m.pairs[i].val
		}
	}
	return value.Nil()
}

// Len returns the entry count.
func (m *Mapping) Len() int {
	return len(m.pairs)
}

// String implements fmt.Stringer.
func (m *Mapping) String() string {
	return "<mapping>"
}

// FuncRef is a first-class reference to a named function on a receiver.
type FuncRef struct {
	Self value.Value
	Name *value.Symbol
}

// String implements fmt.Stringer.
func (fr *FuncRef) String() string {
	return "&" + fr.Name.Name()
}
