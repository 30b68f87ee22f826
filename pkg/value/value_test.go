package value

import "testing"

func TestKinds(t *testing.T) {
	if !Nil().IsNil() {
		t.Error("Nil().IsNil() = false")
	}
	if !FromInt(3).IsInt() {
		t.Error("FromInt(3).IsInt() = false")
	}
	if !FromChar('a').IsChar() {
		t.Error("FromChar('a').IsChar() = false")
	}
	if !FromRef("s").IsRef() {
		t.Error("FromRef(\"s\").IsRef() = false")
	}
	if !FromRef(nil).IsNil() {
		t.Error("FromRef(nil) should be the nil value")
	}
}

func TestCoercions(t *testing.T) {
	// Characters read as their code point, integers as their low byte.
	if got := FromChar('A').Int(); got != 65 {
		t.Errorf("FromChar('A').Int() = %d, want 65", got)
	}
	if got := FromInt(321).Char(); got != byte(321%256) {
		t.Errorf("FromInt(321).Char() = %d, want %d", got, byte(321%256))
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Nil(), false},
		{FromInt(0), false},
		{FromInt(1), true},
		{FromInt(-1), true},
		{FromChar(0), false},
		{FromChar('x'), true},
		{FromRef("anything"), true},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("%v.Truthy() = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(FromInt(7), FromInt(7)) {
		t.Error("equal integers compare unequal")
	}
	if Equal(FromInt(7), FromInt(8)) {
		t.Error("different integers compare equal")
	}
	if Equal(FromInt(65), FromChar('A')) {
		t.Error("int and char with the same payload must differ by tag")
	}
	if !Equal(Nil(), Nil()) {
		t.Error("nil != nil")
	}

	sym := Intern("foo")
	if !Equal(FromRef(sym), FromRef(sym)) {
		t.Error("same reference compares unequal")
	}
	if Equal(FromRef(Intern("foo")), FromRef(Intern("bar"))) {
		t.Error("different symbols compare equal")
	}
}

func TestInternIdentity(t *testing.T) {
	a := Intern("north")
	b := Intern("north")
	c := Intern("south")

	if a != b {
		t.Error("interning the same name twice gave different symbols")
	}
	if a == c {
		t.Error("different names interned to the same symbol")
	}
	if a.Name() != "north" {
		t.Errorf("Name() = %q, want %q", a.Name(), "north")
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{FromInt(-5), "-5"},
		{FromChar('q'), "'q'"},
		{FromRef(Intern("look")), "#look"},
		{FromRef("hello"), `"hello"`},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
