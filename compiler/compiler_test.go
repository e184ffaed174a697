package compiler

import (
	"fmt"
	"strings"
	"testing"
)

func TestCompileSucceeds(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"arithmetic", "print 1 + 2 * 3;"},
		{"string concat", `var a = "hi"; var b = "!"; print a + b;`},
		{"while loop", "var n = 0; while (n < 3) { print n; n = n + 1; }"},
		{"function and recursion", "fun fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); } print fib(10);"},
		{"function returning argument", `fun make(x) { return x; } print make("ok");`},
		{"shadowing across blocks", "{ var a = 1; { var a = 2; print a; } print a; }"},
		{"for loop", "for (var i = 0; i < 3; i = i + 1) { print i; }"},
		{"logical and/or", "print true and false; print true or false;"},
		{"uninitialised global defaults nil", "var x; print x;"},
		{"bare return in function", "fun noop() { return; } noop();"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Compile(tt.source)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if fn == nil {
				t.Fatalf("Compile() returned a nil function with no error")
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{"missing semicolon", "print 1", "Expect ';' after value."},
		{"uninitialised local self-reference", "{ var a = a; }", "Can't read local variable in its own initializer."},
		{"redeclare in same scope", "{ var a = 1; var a = 2; }", "Already a variable with this name in this scope."},
		{"invalid assignment target", "1 = 2;", "Invalid assignment target."},
		{"return from top level", "return 1;", "Can't return from top-level code."},
		{"bad expression", "var x = ;", "Expect expression."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want error containing %q", tt.source, tt.message)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Compile(%q) error = %q, want it to contain %q", tt.source, err.Error(), tt.message)
			}
		})
	}
}

func TestCompileEmitsExpectedOpcodes(t *testing.T) {
	fn, err := Compile("print 1 + 2;")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	wantOps := []Opcode{OP_CONSTANT, OP_CONSTANT, OP_ADD, OP_PRINT, OP_NIL, OP_RETURN}
	code := fn.Chunk.Code

	i := 0
	for _, op := range wantOps {
		if i >= len(code) {
			t.Fatalf("ran out of bytecode looking for %v", op)
		}
		if Opcode(code[i]) != op {
			t.Fatalf("at byte %d: got opcode %d, want %v", i, code[i], op)
		}
		def, _ := Get(op)
		i += 1 + len(def.OperandWidths)
	}
}

func TestManyConstantsOverflow(t *testing.T) {
	var b strings.Builder
	for i := 0; i < maxConstants+1; i++ {
		b.WriteString("print 9;\n")
	}
	// Each literal "9" is its own constant, so maxConstants+1 print
	// statements overflow the 256-constant limit.
	_, err := Compile(b.String())
	if err == nil || !strings.Contains(err.Error(), "Too many constants in one chunk.") {
		t.Fatalf("Compile() error = %v, want overflow error", err)
	}
}

func TestTooManyParameters(t *testing.T) {
	var params strings.Builder
	for i := 0; i < maxParameters+1; i++ {
		if i > 0 {
			params.WriteString(", ")
		}
		params.WriteByte('a' + byte(i%26))
		params.WriteByte('0' + byte(i/26%10))
	}
	source := "fun f(" + params.String() + ") { }"
	_, err := Compile(source)
	if err == nil || !strings.Contains(err.Error(), "Can't have more than 255 parameters.") {
		t.Fatalf("Compile() error = %v, want too-many-parameters error", err)
	}
}

// TestManyLocalsOverflow exercises the locals-array boundary named in
// the spec's testable properties: slot 0 of every function is reserved
// for the callee itself (see funcCompiler's sentinel local), so
// declaring maxLocals user variables in one function body is one too
// many for the fixed-size locals array and trips the compile error.
func TestManyLocalsOverflow(t *testing.T) {
	var body strings.Builder
	body.WriteString("fun f() {\n")
	for i := 0; i < maxLocals; i++ {
		fmt.Fprintf(&body, "var v%d = %d;\n", i, i)
	}
	body.WriteString("}\n")

	_, err := Compile(body.String())
	if err == nil || !strings.Contains(err.Error(), "Too many local variables in function.") {
		t.Fatalf("Compile() error = %v, want too-many-locals error", err)
	}
}

// TestJumpDistanceOverflow exercises the maxJump boundary named in the
// spec's testable properties: a forward jump (here, the body of an if
// statement) spanning more than maxJump bytes of bytecode cannot be
// encoded in the 16-bit jump operand and is a compile error.
func TestJumpDistanceOverflow(t *testing.T) {
	// Each "nil;" statement compiles to 2 bytes (OP_NIL, OP_POP); padding
	// comfortably past maxJump bytes guarantees the then-branch is too
	// long to jump over, without needing to hit the boundary exactly.
	pad := strings.Repeat("nil;", maxJump/2+100)
	source := fmt.Sprintf("if (true) { %s }", pad)

	_, err := Compile(source)
	if err == nil || !strings.Contains(err.Error(), "Too much code to jump over.") {
		t.Fatalf("Compile() error = %v, want jump-too-far error", err)
	}
}
