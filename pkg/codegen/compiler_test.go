package codegen

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nightjar-mud/nightjar/pkg/bytecode"
	"github.com/nightjar-mud/nightjar/pkg/value"
)

// memberTable is a fixed member layout standing in for a blueprint.
type memberTable map[*value.Symbol]int

func (m memberTable) MemberIndex(name *value.Symbol) (int, bool) {
	slot, ok := m[name]
	return slot, ok
}

func stream(parts ...any) []byte {
	var out []byte
	for _, p := range parts {
		switch v := p.(type) {
		case bytecode.Opcode:
			out = append(out, byte(v))
		case int:
			out = binary.LittleEndian.AppendUint32(out, uint32(v))
		default:
			panic("stream: unsupported part")
		}
	}
	return out
}

func TestCompilerLoadVarLowersToLocal(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)
	c.AddVar(value.Intern("hp"))
	c.AddVar(value.Intern("mana"))

	if !c.LoadVar(value.Intern("mana")) {
		t.Fatal("LoadVar(mana) = false")
	}
	c.Return()

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := stream(bytecode.OpLoadLocal, 1, bytecode.OpReturn)
	if !bytes.Equal(fn.Code, want) {
		t.Errorf("Code = %v, want %v", fn.Code, want)
	}
}

func TestCompilerLoadVarLowersToMember(t *testing.T) {
	members := memberTable{value.Intern("short_desc"): 3}
	c := NewCompiler(bytecode.NewWriter(), members)

	if !c.LoadVar(value.Intern("short_desc")) {
		t.Fatal("LoadVar(short_desc) = false")
	}
	c.Return()

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := stream(bytecode.OpLoadMember, 3, bytecode.OpReturn)
	if !bytes.Equal(fn.Code, want) {
		t.Errorf("Code = %v, want %v", fn.Code, want)
	}
}

func TestCompilerLocalsShadowMembers(t *testing.T) {
	name := value.Intern("owner")
	members := memberTable{name: 0}
	c := NewCompiler(bytecode.NewWriter(), members)
	c.AddVar(name)

	c.StoreVar(name)
	c.Return()

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := stream(bytecode.OpStoreLocal, 0, bytecode.OpReturn)
	if !bytes.Equal(fn.Code, want) {
		t.Errorf("Code = %v, want %v", fn.Code, want)
	}
}

func TestCompilerLoadVarMiss(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)

	if c.LoadVar(value.Intern("nowhere")) {
		t.Error("LoadVar on an unknown name = true")
	}
	if c.StoreVar(value.Intern("nowhere")) {
		t.Error("StoreVar on an unknown name = true")
	}
	// Nothing may have been emitted on the misses.
	if c.Writer().Len() != 0 {
		t.Errorf("miss emitted %d bytes", c.Writer().Len())
	}
}

func TestCompilerArgsAreLocals(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)
	c.AddArg(value.Intern("target"))
	c.AddArg(value.Intern("count"))
	c.AddVar(value.Intern("tmp"))
	c.Return()

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	// Two args + one var + implicit self.
	if fn.NumLocals != 4 {
		t.Errorf("NumLocals = %d, want 4", fn.NumLocals)
	}
}

func TestCompilerSubScopeLocals(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)
	c.AddVar(value.Intern("i"))

	sub := NewSub(c)
	sub.AddVar(value.Intern("j"))

	if !sub.LoadVar(value.Intern("i")) {
		t.Error("sub-compiler cannot see the enclosing variable")
	}
	if !sub.LoadVar(value.Intern("j")) {
		t.Error("sub-compiler cannot see its own variable")
	}
	sub.Return()

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	// i is slot 0, j continues the numbering at slot 1.
	want := stream(bytecode.OpLoadLocal, 0, bytecode.OpLoadLocal, 1, bytecode.OpReturn)
	if !bytes.Equal(fn.Code, want) {
		t.Errorf("Code = %v, want %v", fn.Code, want)
	}
	if fn.NumLocals != 3 {
		t.Errorf("NumLocals = %d, want 3", fn.NumLocals)
	}
}

func TestCompilerBreakContinue(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)

	brk := c.OpenBreakLabel()
	cont := c.OpenContinueLabel()
	c.PlaceLabel(cont)

	// The loop body runs in a nested scope; break and continue resolve
	// through the compiler chain.
	body := NewSub(c)
	if !body.Continue() {
		t.Error("Continue() = false inside a loop")
	}
	if !body.Break() {
		t.Error("Break() = false inside a loop")
	}

	c.Jump(cont)
	c.PlaceLabel(brk)
	c.Return()
	c.CloseLabel(brk)
	c.CloseLabel(cont)

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}

	// Layout: JUMP cont@0, JUMP brk@5, JUMP cont@10, RETURN@15.
	// cont is placed at 0, brk at 15.
	want := stream(
		bytecode.OpJump, 0,
		bytecode.OpJump, 15,
		bytecode.OpJump, 0,
		bytecode.OpReturn,
	)
	if !bytes.Equal(fn.Code, want) {
		t.Errorf("Code = %v, want %v", fn.Code, want)
	}
}

func TestCompilerBreakOutsideLoop(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)

	if c.Break() {
		t.Error("Break() = true outside a loop")
	}
	if c.Continue() {
		t.Error("Continue() = true outside a loop")
	}
}

func TestCompilerVarargs(t *testing.T) {
	c := NewCompiler(bytecode.NewWriter(), nil)
	c.AddArg(value.Intern("rest"))
	c.EnableVarargs()
	c.Return()

	fn, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if !fn.Varargs {
		t.Error("Varargs = false")
	}
}
