package compiler

import "testing"

func TestMakeInstruction(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		expected []byte
	}{
		{OP_CONSTANT, []int{200}, []byte{byte(OP_CONSTANT), 200}},
		{OP_NIL, nil, []byte{byte(OP_NIL)}},
		{OP_ADD, nil, []byte{byte(OP_ADD)}},
		{OP_MULTIPLY, nil, []byte{byte(OP_MULTIPLY)}},
		{OP_DIVIDE, nil, []byte{byte(OP_DIVIDE)}},
		{OP_SUBTRACT, nil, []byte{byte(OP_SUBTRACT)}},
		{OP_NEGATE, nil, []byte{byte(OP_NEGATE)}},
		{OP_NOT, nil, []byte{byte(OP_NOT)}},
		{OP_PRINT, nil, []byte{byte(OP_PRINT)}},
		{OP_EQUAL, nil, []byte{byte(OP_EQUAL)}},
		{OP_GREATER, nil, []byte{byte(OP_GREATER)}},
		{OP_LESS, nil, []byte{byte(OP_LESS)}},
		{OP_DEFINE_GLOBAL, []int{12}, []byte{byte(OP_DEFINE_GLOBAL), 12}},
		{OP_SET_GLOBAL, []int{12}, []byte{byte(OP_SET_GLOBAL), 12}},
		{OP_GET_GLOBAL, []int{12}, []byte{byte(OP_GET_GLOBAL), 12}},
		{OP_SET_LOCAL, []int{3}, []byte{byte(OP_SET_LOCAL), 3}},
		{OP_GET_LOCAL, []int{3}, []byte{byte(OP_GET_LOCAL), 3}},
		{OP_JUMP, []int{65000}, []byte{byte(OP_JUMP), 253, 232}},
		{OP_JUMP_IF_FALSE, []int{65000}, []byte{byte(OP_JUMP_IF_FALSE), 253, 232}},
		{OP_LOOP, []int{1}, []byte{byte(OP_LOOP), 0, 1}},
		{OP_CALL, []int{2}, []byte{byte(OP_CALL), 2}},
		{OP_POP, nil, []byte{byte(OP_POP)}},
		{OP_RETURN, nil, []byte{byte(OP_RETURN)}},
	}

	for _, tt := range tests {
		got := MakeInstruction(tt.op, tt.operands...)
		if len(got) != len(tt.expected) {
			t.Fatalf("MakeInstruction(%v, %v) has wrong length - got: %d, want: %d", tt.op, tt.operands, len(got), len(tt.expected))
		}
		for i, b := range tt.expected {
			if got[i] != b {
				t.Errorf("MakeInstruction(%v, %v)[%d] = %d, want %d", tt.op, tt.operands, i, got[i], b)
			}
		}
	}
}

func TestGetUnknownOpcode(t *testing.T) {
	if _, err := Get(Opcode(255)); err == nil {
		t.Errorf("Get(255) should have returned an error for an undefined opcode")
	}
}
