package temporal

import "testing"

func TestTimestampRoundTrip(t *testing.T) {
	cases := []int64{0, 1, 1704153845006, -1000, 1000000000000}
	for _, ms := range cases {
		ts := Timestamp{UnixMilli: ms}
		dt := ts.ToDateTime(0)
		back := FromDateTime(dt, 0)
		if back.UnixMilli != ms {
			t.Fatalf("roundtrip mismatch for %d: got %d (dt=%v)", ms, back.UnixMilli, dt)
		}
	}
}

func TestDateTimeIsZero(t *testing.T) {
	var d DateTime
	if !d.IsZero() {
		t.Fatal("zero-value DateTime must report IsZero")
	}
	d.Year = 2024
	if d.IsZero() {
		t.Fatal("non-zero DateTime must not report IsZero")
	}
}

func TestKnownTimestampConversion(t *testing.T) {
	// 2024-01-02T03:04:05.000006Z
	dt := DateTime{Date{2024, 1, 2}, Time{3, 4, 5, 6}}
	ts := FromDateTime(dt, 0)
	back := ts.ToDateTime(0)
	if back.Year != 2024 || back.Month != 1 || back.Day != 2 || back.Hour != 3 || back.Minute != 4 || back.Second != 5 {
		t.Fatalf("unexpected roundtrip: %v", back)
	}
}
