package proto

import (
	"bytes"
	"testing"

	"github.com/sqlbridge/sqlbridge/temporal"
)

func TestEncodeTemporalDateOnly(t *testing.T) {
	dt := temporal.DateTime{Date: temporal.Date{Year: 2024, Month: 1, Day: 2}}
	got := EncodeTemporal(dt)
	want := []byte{0x04, 0xE8, 0x07, 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestEncodeTemporalWithMicros(t *testing.T) {
	dt := temporal.DateTime{
		Date: temporal.Date{Year: 2024, Month: 1, Day: 2},
		Time: temporal.Time{Hour: 3, Minute: 4, Second: 5, Micros: 6},
	}
	got := EncodeTemporal(dt)
	want := []byte{0x0B, 0xE8, 0x07, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

func TestEncodeTemporalZero(t *testing.T) {
	got := EncodeTemporal(temporal.DateTime{})
	if !bytes.Equal(got, []byte{0}) {
		t.Fatalf("got % x, want [0]", got)
	}
}

func TestDecodeTemporalRoundTrip(t *testing.T) {
	cases := []temporal.DateTime{
		{},
		{Date: temporal.Date{Year: 2024, Month: 1, Day: 2}},
		{Date: temporal.Date{Year: 2024, Month: 1, Day: 2}, Time: temporal.Time{Hour: 3, Minute: 4, Second: 5}},
		{Date: temporal.Date{Year: 2024, Month: 1, Day: 2}, Time: temporal.Time{Hour: 3, Minute: 4, Second: 5, Micros: 6}},
	}
	for _, dt := range cases {
		encoded := EncodeTemporal(dt)
		decoded, n, err := DecodeTemporal(encoded)
		if err != nil {
			t.Fatalf("decode %+v: %v", dt, err)
		}
		if n != len(encoded) {
			t.Fatalf("consumed %d, want %d", n, len(encoded))
		}
		if decoded != dt {
			t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, dt)
		}
	}
}

func TestDecodeTemporalInvalidLength(t *testing.T) {
	_, _, err := DecodeTemporal([]byte{5, 0, 0, 0, 0, 0})
	if err == nil {
		t.Fatal("expected error for invalid length byte")
	}
}

func TestDecodeTemporalShortBuffer(t *testing.T) {
	_, _, err := DecodeTemporal([]byte{4, 0, 0})
	if err == nil {
		t.Fatal("expected error for short buffer")
	}
}
