package proto

import "testing"

func TestDecodeTextRowNullAndValue(t *testing.T) {
	buf := []byte{0xFB, 0x02, 0x34, 0x32}
	cells, err := DecodeTextRow(buf, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !cells[0].Null {
		t.Fatalf("expected first cell NULL, got %+v", cells[0])
	}
	if cells[1].Null {
		t.Fatal("expected second cell non-NULL")
	}
	got := string(buf[cells[1].Offset : cells[1].Offset+cells[1].Length])
	if got != "42" {
		t.Fatalf("got %q, want %q", got, "42")
	}
}

func TestDecodeTextRowTruncated(t *testing.T) {
	buf := []byte{0x05, 0x41, 0x42}
	_, err := DecodeTextRow(buf, 1)
	if err == nil {
		t.Fatal("expected Protocol error for truncated row")
	}
}
