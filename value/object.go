package value

import "fmt"

// Object is the common interface for every heap-allocated value: interned
// strings, compiled functions, and native-function bridges.
type Object interface {
	objectKind() string
	String() string
}

// String is an immutable, interned byte sequence. Its Hash is computed
// once at creation (FNV-1a, matching the reference implementation) so the
// interning table and the globals table can both key on it cheaply.
type String struct {
	Chars string
	Hash  uint32
}

func (*String) objectKind() string { return "string" }
func (s *String) String() string   { return s.Chars }

// HashString computes the FNV-1a 32-bit hash of a byte sequence. This is
// the only hash function used anywhere a string is interned or looked up,
// so that Hash(s) is always consistent between the interning table and
// any copy of s's bytes.
func HashString(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	hash := offsetBasis
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime
	}
	return hash
}

// NewString builds an (uninterned) String object. Callers that need the
// at-most-one-heap-string-per-byte-sequence invariant must go through the
// VM's string table (see package vm) rather than constructing one of
// these directly once a compile or run is underway.
func NewString(chars string) *String {
	return &String{Chars: chars, Hash: HashString(chars)}
}

// Function is a compiled function: its arity, its own chunk of bytecode,
// and an optional name (nil for the top-level script function).
type Function struct {
	Arity int
	Chunk *Chunk
	Name  *String
}

func NewFunction() *Function {
	return &Function{Chunk: &Chunk{}}
}

func (*Function) objectKind() string { return "function" }
func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the calling convention for host-provided functions: it
// receives the argument count and a slice over exactly that many
// arguments (a window into the VM's value stack) and returns one Value.
// Natives in this implementation cannot signal failure; a native wanting
// to abort the program should be modelled as returning nil in practice.
type NativeFn func(argCount int, args []Value) Value

// NativeFunction wraps a host function so it can live in the globals
// table and be called with the same CALL opcode as a compiled function.
type NativeFunction struct {
	Name string
	Fn   NativeFn
}

func NewNativeFunction(name string, fn NativeFn) *NativeFunction {
	return &NativeFunction{Name: name, Fn: fn}
}

func (*NativeFunction) objectKind() string { return "native" }
func (n *NativeFunction) String() string   { return "<native fn>" }
