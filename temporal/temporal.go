// Package temporal defines the broken-down date/time domain types carried
// inside Extension("Date"/"DateTime"/"Time"/"Timestamp") values. The wire
// encoding for MySQL lives in mysqlconn/proto; this package only holds the
// engine-neutral component breakdown.
package temporal

import "fmt"

// Date is a calendar date.
type Date struct {
	Year  uint16
	Month uint8
	Day   uint8
}

// Time is a time-of-day with microsecond resolution.
type Time struct {
	Hour   uint8
	Minute uint8
	Second uint8
	Micros uint32
}

// DateTime is a broken-down civil timestamp, naive of time zone. The UTC
// offset is passed explicitly to Timestamp.ToDateTime and FromDateTime;
// no connection option supplies a default offset.
type DateTime struct {
	Date
	Time
}

// IsZero reports whether every component is zero, the DATETIME the MySQL
// binary codec represents with length byte 0.
func (d DateTime) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0 &&
		d.Hour == 0 && d.Minute == 0 && d.Second == 0 && d.Micros == 0
}

func (d DateTime) String() string {
	if d.Micros == 0 {
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%06d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Micros)
}

// Timestamp is a point in time represented as a Unix
// millisecond count internally; it is converted to/from a broken-down
// DateTime only at the wire boundary.
type Timestamp struct {
	UnixMilli int64
}

// ToDateTime converts a Unix-millisecond Timestamp to a broken-down
// DateTime at the given fixed UTC offset in seconds.
func (t Timestamp) ToDateTime(offsetSec int) DateTime {
	sec := t.UnixMilli/1000 + int64(offsetSec)
	nsec := (t.UnixMilli % 1000) * int64(1e6)
	if t.UnixMilli < 0 && t.UnixMilli%1000 != 0 {
		sec--
		nsec += 1e9
	}
	return civilFromUnix(sec, nsec)
}

// FromDateTime converts a broken-down DateTime interpreted at the given
// UTC offset in seconds back to a Unix-millisecond Timestamp.
func FromDateTime(d DateTime, offsetSec int) Timestamp {
	sec := unixFromCivil(d) - int64(offsetSec)
	millis := sec*1000 + int64(d.Micros)/1000
	return Timestamp{UnixMilli: millis}
}

// civilFromUnix and unixFromCivil implement the standard civil-calendar
// <-> days-since-epoch conversion (Howard Hinnant's algorithm), avoiding a
// dependency on time.Time for a value that must round-trip exactly at
// microsecond resolution without monotonic-reading surprises.
func civilFromUnix(sec, nsec int64) DateTime {
	days := sec / 86400
	rem := sec % 86400
	if rem < 0 {
		rem += 86400
		days--
	}
	y, m, d := civilFromDays(days)
	hour := rem / 3600
	rem -= hour * 3600
	minute := rem / 60
	second := rem - minute*60
	return DateTime{
		Date: Date{Year: uint16(y), Month: uint8(m), Day: uint8(d)},
		Time: Time{Hour: uint8(hour), Minute: uint8(minute), Second: uint8(second), Micros: uint32(nsec / 1000)},
	}
}

func unixFromCivil(d DateTime) int64 {
	days := daysFromCivil(int64(d.Year), int(d.Month), int(d.Day))
	return days*86400 + int64(d.Hour)*3600 + int64(d.Minute)*60 + int64(d.Second)
}

// daysFromCivil and civilFromDays: days since 1970-01-01, proleptic
// Gregorian calendar.
func daysFromCivil(y int64, m, d int) int64 {
	y -= boolToInt64(m <= 2)
	era := divFloor(y, 400)
	yoe := y - era*400
	var mp int64
	if m > 2 {
		mp = int64(m - 3)
	} else {
		mp = int64(m + 9)
	}
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int64) (y int64, m int, d int) {
	z += 719468
	era := divFloor(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y = yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		m = int(mp + 3)
	} else {
		m = int(mp - 9)
	}
	if m <= 2 {
		y++
	}
	return y, m, d
}

func divFloor(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
