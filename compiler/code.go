package compiler

import (
	"encoding/binary"
	"fmt"
)

// Opcode is the one-byte tag that begins every instruction.
type Opcode byte

const (
	OP_CONSTANT Opcode = iota
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_GLOBAL
	OP_DEFINE_GLOBAL
	OP_SET_GLOBAL
	OP_EQUAL
	OP_GREATER
	OP_LESS
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NOT
	OP_NEGATE
	OP_PRINT
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_LOOP
	OP_CALL
	OP_RETURN
)

// OpCodeDefinition names an opcode and the byte width of each of its
// immediate operands, in the order they are encoded.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_CONSTANT:      {"OP_CONSTANT", []int{1}},
	OP_NIL:           {"OP_NIL", nil},
	OP_TRUE:          {"OP_TRUE", nil},
	OP_FALSE:         {"OP_FALSE", nil},
	OP_POP:           {"OP_POP", nil},
	OP_GET_LOCAL:     {"OP_GET_LOCAL", []int{1}},
	OP_SET_LOCAL:     {"OP_SET_LOCAL", []int{1}},
	OP_GET_GLOBAL:    {"OP_GET_GLOBAL", []int{1}},
	OP_DEFINE_GLOBAL: {"OP_DEFINE_GLOBAL", []int{1}},
	OP_SET_GLOBAL:    {"OP_SET_GLOBAL", []int{1}},
	OP_EQUAL:         {"OP_EQUAL", nil},
	OP_GREATER:       {"OP_GREATER", nil},
	OP_LESS:          {"OP_LESS", nil},
	OP_ADD:           {"OP_ADD", nil},
	OP_SUBTRACT:      {"OP_SUBTRACT", nil},
	OP_MULTIPLY:      {"OP_MULTIPLY", nil},
	OP_DIVIDE:        {"OP_DIVIDE", nil},
	OP_NOT:           {"OP_NOT", nil},
	OP_NEGATE:        {"OP_NEGATE", nil},
	OP_PRINT:         {"OP_PRINT", nil},
	OP_JUMP:          {"OP_JUMP", []int{2}},
	OP_JUMP_IF_FALSE: {"OP_JUMP_IF_FALSE", []int{2}},
	OP_LOOP:          {"OP_LOOP", []int{2}},
	OP_CALL:          {"OP_CALL", []int{1}},
	OP_RETURN:        {"OP_RETURN", nil},
}

// Get looks up an opcode's definition.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// MakeInstruction encodes op and its operands into a byte slice, each
// operand written big-endian at the width its definition specifies. This
// is used by tests; the compiler itself emits bytes
// directly onto a chunk a byte or two at a time so it can backpatch jump
// offsets in place.
func MakeInstruction(op Opcode, operands ...int) []byte {
	def, err := Get(op)
	if err != nil {
		return []byte{}
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}

	instruction := make([]byte, length)
	instruction[0] = byte(op)

	offset := 1
	for i, operand := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 1:
			instruction[offset] = byte(operand)
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(operand))
		}
		offset += width
	}
	return instruction
}
