// Package vm implements the stack-based bytecode interpreter: a single
// dispatch loop over one shared value stack and a bounded stack of call
// frames, plus the globals table, string-interning table, and object
// registry the running program shares for its whole lifetime.
package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"ember/compiler"
	"ember/table"
	"ember/value"
)

// InterpretResult reports how one Interpret call ended, mirroring the
// reference implementation's tri-state result.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// VM is a single-threaded, synchronous bytecode interpreter. One VM owns
// its stack, its frames, its globals and interning tables, and its
// object registry for its entire process lifetime; Interpret may be
// called on it repeatedly (as a REPL does, once per line).
type VM struct {
	frames     [framesMax]callFrame
	frameCount int

	stack stack

	strings  table.Table
	globals  table.Table
	registry value.Registry

	out    io.Writer
	errOut io.Writer
	log    *logrus.Logger

	start time.Time

	// lastCallError carries the message callValue decided on, so the
	// dispatch loop can report it through runtimeError along with the
	// frame-by-frame trace.
	lastCallError string
}

// New constructs a VM with its native functions installed and stdout and
// stderr wired to os.Stdout / os.Stderr.
func New() *VM {
	vm := &VM{
		out:    os.Stdout,
		errOut: os.Stderr,
		start:  time.Now(),
	}
	vm.defineNative("clock", clockNative(vm.start))
	return vm
}

// SetOutput redirects PRINT output, primarily for tests that want to
// capture stdout. Expression statements discard their value, so PRINT is
// the only instruction that writes here.
func (vm *VM) SetOutput(out io.Writer) { vm.out = out }

// SetErrorOutput redirects compile- and runtime-error reporting.
func (vm *VM) SetErrorOutput(errOut io.Writer) { vm.errOut = errOut }

// SetTrace turns on the two debug toggles described in the external
// interface: per-function disassembly at the end of compilation, and a
// stack/instruction trace before every dispatch. Passing nil (the
// default) disables both at zero cost.
func (vm *VM) SetTrace(log *logrus.Logger) { vm.log = log }

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	nameObj := vm.intern(value.NewString(name))
	native := vm.registry.Track(value.NewNativeFunction(name, fn)).(*value.NativeFunction)
	vm.globals.Set(nameObj, value.FromObject(native))
}

// Interpret compiles and runs one program against this VM's persistent
// state. It may be called multiple times; each call starts with a fresh
// stack and frame count but shares globals, interned strings, and the
// object registry with every prior call.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, err := compiler.CompileTraced(source, vm.log)
	if err != nil {
		fmt.Fprintln(vm.errOut, err)
		return InterpretCompileError
	}

	vm.stack.reset()
	vm.frameCount = 0

	vm.internConstants(fn)
	script := vm.registry.Track(fn).(*value.Function)

	vm.stack.push(value.FromObject(script))
	vm.call(script, 0)

	return vm.run()
}

// internConstants walks a freshly compiled function (and every function
// nested inside its constant pool) replacing each STRING constant with
// its canonical interned reference, so that string equality by
// reference holds before any of these constants reach the stack,
// globals, or another function's constant pool.
func (vm *VM) internConstants(fn *value.Function) {
	for i, c := range fn.Chunk.Constants {
		switch {
		case c.IsString():
			fn.Chunk.Constants[i] = value.FromObject(vm.intern(c.AsString()))
		case c.IsFunction():
			vm.internConstants(c.AsFunction())
		}
	}
}

func (vm *VM) intern(s *value.String) *value.String {
	if found := vm.strings.FindString(s.Chars, s.Hash); found != nil {
		return found
	}
	vm.strings.Set(s, value.Bool(true))
	vm.registry.Track(s)
	return s
}

func (vm *VM) run() InterpretResult {
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.log != nil {
			vm.traceExecution(frame)
		}

		op := compiler.Opcode(frame.readByte())

		switch op {
		case compiler.OP_CONSTANT:
			vm.stack.push(frame.readConstant())

		case compiler.OP_NIL:
			vm.stack.push(value.Nil())
		case compiler.OP_TRUE:
			vm.stack.push(value.Bool(true))
		case compiler.OP_FALSE:
			vm.stack.push(value.Bool(false))

		case compiler.OP_POP:
			vm.stack.pop()

		case compiler.OP_GET_LOCAL:
			slot := int(frame.readByte())
			vm.stack.push(vm.stack.get(frame.base + slot))

		case compiler.OP_SET_LOCAL:
			slot := int(frame.readByte())
			vm.stack.set(frame.base+slot, vm.stack.peek(0))

		case compiler.OP_GET_GLOBAL:
			name := frame.readConstant().AsString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.stack.push(v)

		case compiler.OP_DEFINE_GLOBAL:
			name := frame.readConstant().AsString()
			vm.globals.Set(name, vm.stack.peek(0))
			vm.stack.pop()

		case compiler.OP_SET_GLOBAL:
			name := frame.readConstant().AsString()
			if vm.globals.Set(name, vm.stack.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case compiler.OP_EQUAL:
			b := vm.stack.pop()
			a := vm.stack.pop()
			vm.stack.push(value.Bool(value.Equal(a, b)))

		case compiler.OP_GREATER:
			if result, ok := vm.binaryResult(func(a, b float64) value.Value { return value.Bool(a > b) }); ok {
				vm.stack.push(result)
			} else {
				return vm.runtimeError("Operand(s) must be number(s).")
			}

		case compiler.OP_LESS:
			if result, ok := vm.binaryResult(func(a, b float64) value.Value { return value.Bool(a < b) }); ok {
				vm.stack.push(result)
			} else {
				return vm.runtimeError("Operand(s) must be number(s).")
			}

		case compiler.OP_ADD:
			if !vm.add() {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case compiler.OP_SUBTRACT:
			if result, ok := vm.binaryResult(func(a, b float64) value.Value { return value.Number(a - b) }); ok {
				vm.stack.push(result)
			} else {
				return vm.runtimeError("Operand(s) must be number(s).")
			}

		case compiler.OP_MULTIPLY:
			if result, ok := vm.binaryResult(func(a, b float64) value.Value { return value.Number(a * b) }); ok {
				vm.stack.push(result)
			} else {
				return vm.runtimeError("Operand(s) must be number(s).")
			}

		case compiler.OP_DIVIDE:
			if result, ok := vm.binaryResult(func(a, b float64) value.Value { return value.Number(a / b) }); ok {
				vm.stack.push(result)
			} else {
				return vm.runtimeError("Operand(s) must be number(s).")
			}

		case compiler.OP_NOT:
			v := vm.stack.pop()
			vm.stack.push(value.Bool(v.Falsey()))

		case compiler.OP_NEGATE:
			if !vm.stack.peek(0).IsNumber() {
				return vm.runtimeError("Operand(s) must be number(s).")
			}
			v := vm.stack.pop()
			vm.stack.push(value.Number(-v.AsNumber()))

		case compiler.OP_PRINT:
			v := vm.stack.pop()
			fmt.Fprintln(vm.out, v.String())

		case compiler.OP_JUMP:
			offset := frame.readShort()
			frame.ip += offset

		case compiler.OP_JUMP_IF_FALSE:
			offset := frame.readShort()
			if vm.stack.peek(0).Falsey() {
				frame.ip += offset
			}

		case compiler.OP_LOOP:
			offset := frame.readShort()
			frame.ip -= offset

		case compiler.OP_CALL:
			argCount := int(frame.readByte())
			if !vm.callValue(vm.stack.peek(argCount), argCount) {
				return vm.runtimeError("%s", vm.lastCallError)
			}
			frame = &vm.frames[vm.frameCount-1]

		case compiler.OP_RETURN:
			result := vm.stack.pop()
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.stack.pop()
				return InterpretOK
			}
			vm.stack.truncate(frame.base)
			vm.stack.push(result)
			frame = &vm.frames[vm.frameCount-1]

		default:
			return vm.runtimeError("Unknown opcode.")
		}
	}
}

func (vm *VM) binaryResult(op func(a, b float64) value.Value) (value.Value, bool) {
	if !vm.stack.peek(0).IsNumber() || !vm.stack.peek(1).IsNumber() {
		return value.Nil(), false
	}
	b := vm.stack.pop()
	a := vm.stack.pop()
	return op(a.AsNumber(), b.AsNumber()), true
}

func (vm *VM) add() bool {
	b := vm.stack.peek(0)
	a := vm.stack.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.stack.pop()
		vm.stack.pop()
		vm.stack.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.stack.pop()
		vm.stack.pop()
		concatenated := a.AsString().Chars + b.AsString().Chars
		vm.stack.push(value.FromObject(vm.intern(value.NewString(concatenated))))
	default:
		return false
	}
	return true
}

func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if callee.IsObject() {
		switch {
		case callee.IsFunction():
			return vm.call(callee.AsFunction(), argCount)
		case callee.IsNativeFunction():
			native := callee.AsNativeFunction()
			args := vm.stack.values[vm.stack.top-argCount : vm.stack.top]
			result := native.Fn(argCount, args)
			vm.stack.truncate(vm.stack.top - argCount - 1)
			vm.stack.push(result)
			return true
		}
	}
	vm.lastCallError = "Can only call functions and classes."
	return false
}

func (vm *VM) call(fn *value.Function, argCount int) bool {
	if argCount != fn.Arity {
		vm.lastCallError = fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.lastCallError = "Stack overflow."
		return false
	}

	frame := &vm.frames[vm.frameCount]
	frame.function = fn
	frame.ip = 0
	frame.base = vm.stack.top - argCount - 1
	vm.frameCount++
	return true
}

func (vm *VM) runtimeError(format string, args ...any) InterpretResult {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(vm.errOut, message)

	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		name := "script"
		if f.function.Name != nil {
			name = f.function.Name.Chars
		}
		fmt.Fprintf(vm.errOut, "[line %d] in %s\n", f.function.Chunk.Lines[f.ip-1], name)
	}

	vm.stack.reset()
	vm.frameCount = 0
	return InterpretRuntimeError
}
