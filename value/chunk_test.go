package value

import "testing"

func TestChunkWrite(t *testing.T) {
	var c Chunk
	c.Write(0x01, 1)
	c.Write(0x02, 1)
	c.Write(0x03, 2)

	if len(c.Code) != 3 || len(c.Lines) != 3 {
		t.Fatalf("Code/Lines length mismatch: %d code, %d lines", len(c.Code), len(c.Lines))
	}
	wantLines := []int{1, 1, 2}
	for i, want := range wantLines {
		if c.Lines[i] != want {
			t.Errorf("Lines[%d] = %d, want %d", i, c.Lines[i], want)
		}
	}
}

func TestChunkAddConstant(t *testing.T) {
	var c Chunk
	i0 := c.AddConstant(Number(1))
	i1 := c.AddConstant(Number(2))

	if i0 != 0 || i1 != 1 {
		t.Fatalf("AddConstant indices = %d, %d; want 0, 1", i0, i1)
	}
	if c.Constants[i0].AsNumber() != 1 || c.Constants[i1].AsNumber() != 2 {
		t.Fatalf("constant pool contents wrong: %v", c.Constants)
	}
}
