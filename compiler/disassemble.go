package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"

	"ember/value"
)

// Disassemble renders every instruction in chunk as human-facing text,
// one line per instruction, prefixed with the given name as a header.
// Output format and content are non-normative, purely for debugging.
func Disassemble(chunk *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	offset := 0
	for offset < len(chunk.Code) {
		var line string
		line, offset = DisassembleInstruction(chunk, offset)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// DisassembleInstruction renders the single instruction beginning at
// offset and returns that rendering along with the offset of the next
// instruction.
func DisassembleInstruction(chunk *value.Chunk, offset int) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", chunk.Lines[offset])
	}

	op := Opcode(chunk.Code[offset])
	def, err := Get(op)
	if err != nil {
		fmt.Fprintf(&b, "Unknown opcode %d", op)
		return b.String(), offset + 1
	}

	switch {
	case len(def.OperandWidths) == 0:
		b.WriteString(def.Name)
		return b.String(), offset + 1

	case len(def.OperandWidths) == 1 && def.OperandWidths[0] == 1:
		slot := int(chunk.Code[offset+1])
		switch op {
		case OP_CONSTANT, OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL:
			fmt.Fprintf(&b, "%-16s %4d '%s'", def.Name, slot, chunk.Constants[slot].String())
		default:
			fmt.Fprintf(&b, "%-16s %4d", def.Name, slot)
		}
		return b.String(), offset + 2

	case len(def.OperandWidths) == 1 && def.OperandWidths[0] == 2:
		jump := binary.BigEndian.Uint16(chunk.Code[offset+1:])
		direction := 1
		if op == OP_LOOP {
			direction = -1
		}
		fmt.Fprintf(&b, "%-16s %4d -> %d", def.Name, offset, offset+3+direction*int(jump))
		return b.String(), offset + 3

	default:
		fmt.Fprintf(&b, "%-16s (unhandled operand shape)", def.Name)
		return b.String(), offset + 1
	}
}
