// Package value implements the tagged Value union that flows through the
// compiler's constant pool and the VM's stack, along with the heap objects
// a Value can reference and the registry that owns them.
package value

import (
	"fmt"
	"math"
)

// Kind discriminates the variants of a Value.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

// Value is a small tagged union: nil, bool, number, or a reference to a
// heap Object. Values are copied by plain Go assignment (bitwise copy).
type Value struct {
	kind   Kind
	number float64
	obj    Object
}

func Nil() Value                { return Value{kind: KindNil} }
func Bool(b bool) Value         { return Value{kind: KindBool, number: boolToFloat(b)} }
func Number(n float64) Value    { return Value{kind: KindNumber, number: n} }
func FromObject(o Object) Value { return Value{kind: KindObject, obj: o} }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNil() bool   { return v.kind == KindNil }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObject() bool { return v.kind == KindObject }

func (v Value) AsBool() bool     { return v.number != 0 }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObject() Object { return v.obj }

func (v Value) IsString() bool {
	_, ok := v.obj.(*String)
	return v.kind == KindObject && ok
}

// AsString panics if v does not hold a *String; callers must check
// IsString first, mirroring the CLOX_AS_STRING contract.
func (v Value) AsString() *String { return v.obj.(*String) }

func (v Value) IsFunction() bool {
	_, ok := v.obj.(*Function)
	return v.kind == KindObject && ok
}

func (v Value) AsFunction() *Function { return v.obj.(*Function) }

func (v Value) IsNativeFunction() bool {
	_, ok := v.obj.(*NativeFunction)
	return v.kind == KindObject && ok
}

func (v Value) AsNativeFunction() *NativeFunction { return v.obj.(*NativeFunction) }

// Falsey implements the language's truthiness rule: nil and false are
// falsey, everything else (including 0 and "") is truthy.
func (v Value) Falsey() bool {
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return !v.AsBool()
	default:
		return false
	}
}

// Equal implements value equality. Different kinds are never equal;
// objects compare by reference (strings are interned, so reference
// equality is also content equality for them).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	case KindNumber:
		return a.number == b.number
	case KindObject:
		return a.obj == b.obj
	default:
		return false
	}
}

// String renders the value's display form, used by PRINT and the
// disassembler's constant dump.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindObject:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
