package value

import "testing"

func TestFalsey(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil(), true},
		{"false", Bool(false), true},
		{"true", Bool(true), false},
		{"zero", Number(0), false},
		{"nonzero", Number(1), false},
		{"string", FromObject(NewString("")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Falsey(); got != tt.want {
				t.Errorf("Falsey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	s1 := FromObject(NewString("hi"))
	s2 := FromObject(NewString("hi"))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil==nil", Nil(), Nil(), true},
		{"nil!=bool", Nil(), Bool(false), false},
		{"bool==bool", Bool(true), Bool(true), true},
		{"bool!=bool", Bool(true), Bool(false), false},
		{"number==number", Number(1), Number(1), true},
		{"number!=number", Number(1), Number(2), false},
		{"distinct string objects not equal by reference", s1, s2, false},
		{"same string object equal", s1, s1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"nil", Nil(), "nil"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"integer", Number(3), "3"},
		{"negative integer", Number(-12), "-12"},
		{"fraction", Number(1.5), "1.5"},
		{"string", FromObject(NewString("hi")), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	fn := FromObject(NewFunction())
	native := FromObject(NewNativeFunction("clock", func(int, []Value) Value { return Nil() }))
	str := FromObject(NewString("x"))

	if !fn.IsObject() || !fn.IsFunction() || fn.IsString() || fn.IsNativeFunction() {
		t.Errorf("function value has wrong kind predicates")
	}
	if !native.IsNativeFunction() || native.IsFunction() {
		t.Errorf("native function value has wrong kind predicates")
	}
	if !str.IsString() || str.IsFunction() {
		t.Errorf("string value has wrong kind predicates")
	}
	if !Number(1).IsNumber() || !Bool(true).IsBool() || !Nil().IsNil() {
		t.Errorf("scalar kind predicates wrong")
	}
}
