package vm

import (
	"strings"

	"github.com/sirupsen/logrus"

	"ember/compiler"
)

// traceExecution logs the current stack contents and the next
// instruction about to execute, the way the reference implementation's
// DEBUG_TRACE_EXECUTION build flag does. It is a no-op unless SetTrace
// has supplied a logger, since formatting this on every
// dispatch is otherwise pure overhead.
func (vm *VM) traceExecution(frame *callFrame) {
	if vm.log == nil {
		return
	}

	var b strings.Builder
	b.WriteString("          ")
	for i := 0; i < vm.stack.top; i++ {
		b.WriteString("[ ")
		b.WriteString(vm.stack.values[i].String())
		b.WriteString(" ]")
	}

	instruction, _ := compiler.DisassembleInstruction(frame.function.Chunk, frame.ip)
	vm.log.WithField("stack", b.String()).Debug(instruction)
}
