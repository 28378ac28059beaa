package value

import "testing"

func TestUUIDRoundTrip(t *testing.T) {
	v, err := ParseUUID("123e4567-e89b-12d3-a456-426614174000")
	if err != nil {
		t.Fatal(err)
	}
	tag, _, err := v.AsExtension()
	if err != nil || tag != "Uuid" {
		t.Fatalf("expected Uuid extension, got %q, %v", tag, err)
	}
	u, err := AsUUID(v)
	if err != nil {
		t.Fatal(err)
	}
	if u.String() != "123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("unexpected round trip: %s", u.String())
	}
}

func TestParseUUIDInvalid(t *testing.T) {
	if _, err := ParseUUID("not-a-uuid"); err == nil {
		t.Fatal("expected error for malformed UUID")
	}
}

func TestAsUUIDWrongTag(t *testing.T) {
	if _, err := AsUUID(String("x")); err == nil {
		t.Fatal("expected error extracting UUID from non-extension value")
	}
}
