package proto

import (
	"bytes"
	"testing"
)

func TestPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketConn(&buf)
	payload := []byte("SELECT 1")
	if err := w.WritePacket(payload); err != nil {
		t.Fatal(err)
	}

	r := NewPacketConn(&buf)
	got, err := r.ReadPacket()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestPacketSequenceIncrements(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketConn(&buf)
	if err := w.WritePacket([]byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := w.WritePacket([]byte("b")); err != nil {
		t.Fatal(err)
	}

	r := NewPacketConn(&buf)
	first, err := r.ReadPacket()
	if err != nil || string(first) != "a" {
		t.Fatalf("first packet: %q, %v", first, err)
	}
	second, err := r.ReadPacket()
	if err != nil || string(second) != "b" {
		t.Fatalf("second packet: %q, %v", second, err)
	}
}

func TestPacketResetSequence(t *testing.T) {
	var buf bytes.Buffer
	w := NewPacketConn(&buf)
	w.seq = 5
	w.ResetSequence()
	if w.seq != 0 {
		t.Fatalf("expected seq reset to 0, got %d", w.seq)
	}
}
