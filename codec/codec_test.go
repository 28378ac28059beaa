package codec

import "testing"

func TestLenencUintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 250, 251, 65535, 65536, 16777215, 16777216, 1 << 40}
	for _, c := range cases {
		w := NewWriter(0)
		w.PutLenencUint(c)
		r := NewReader(w.Bytes())
		got, err := r.GetLenencUint()
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", c, err)
		}
		if got != c {
			t.Fatalf("roundtrip mismatch: want %d got %d", c, got)
		}
		if r.Len() != 0 {
			t.Fatalf("decoder did not advance exactly the encoded bytes for %d", c)
		}
	}
}

func TestLenencUintPrefixBoundaries(t *testing.T) {
	// 0xfc prefix + u16
	r := NewReader([]byte{0xfc, 0x01, 0x00})
	v, err := r.GetLenencUint()
	if err != nil || v != 1 {
		t.Fatalf("want 1, got %d, %v", v, err)
	}
	// 0xfd prefix + u24
	r = NewReader([]byte{0xfd, 0x01, 0x00, 0x00})
	v, err = r.GetLenencUint()
	if err != nil || v != 1 {
		t.Fatalf("want 1, got %d, %v", v, err)
	}
	// 0xfe prefix + u64
	r = NewReader([]byte{0xfe, 1, 0, 0, 0, 0, 0, 0, 0})
	v, err = r.GetLenencUint()
	if err != nil || v != 1 {
		t.Fatalf("want 1, got %d, %v", v, err)
	}
}

func TestShortReadFailsWithProtocolError(t *testing.T) {
	r := NewReader([]byte{0xfe, 1, 2})
	if _, err := r.GetLenencUint(); err == nil {
		t.Fatal("expected short-read protocol error")
	}
}

func TestNulString(t *testing.T) {
	r := NewReader([]byte("hello\x00world"))
	s, err := r.GetNulString()
	if err != nil || s != "hello" {
		t.Fatalf("got %q, %v", s, err)
	}
	rest, _ := r.GetBytes(r.Len())
	if string(rest) != "world" {
		t.Fatalf("got %q", rest)
	}
}
