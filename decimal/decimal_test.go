package decimal

import "testing"

func TestArithmetic(t *testing.T) {
	a, _ := New("1")
	b, _ := New("1.1")
	if got := a.Add(b).String(); got != "2.1" {
		t.Fatalf("got %s", got)
	}
	if got := a.Sub(b).String(); got != "-0.1" {
		t.Fatalf("got %s", got)
	}
}

func TestWithScaleRounds(t *testing.T) {
	d, _ := New("1.123456")
	if got := d.WithScale(2).String(); got != "1.12" {
		t.Fatalf("got %s", got)
	}
}

func TestValueRoundTrip(t *testing.T) {
	d, _ := New("1.123456")
	v := d.ToValue()
	back, err := FromValue(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.String() != d.String() {
		t.Fatalf("roundtrip mismatch: %s vs %s", back.String(), d.String())
	}
}
