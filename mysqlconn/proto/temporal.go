package proto

import (
	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/temporal"
)

// EncodeTemporal writes dt in MySQL's length-prefixed binary temporal
// format (used for DATE/TIME/DATETIME/TIMESTAMP parameter binding). The
// length byte is one of {0,4,7,11}, chosen by classifying which of the
// time components are non-zero; there is never an embedded length prefix
// inside the date/time payload itself, only the one leading byte.
func EncodeTemporal(dt temporal.DateTime) []byte {
	if dt.IsZero() {
		return []byte{0}
	}
	hasTime := dt.Hour != 0 || dt.Minute != 0 || dt.Second != 0
	hasSub := dt.Micros != 0

	var length byte
	switch {
	case hasSub:
		length = 11
	case hasTime:
		length = 7
	default:
		length = 4
	}

	buf := make([]byte, 0, 1+int(length))
	buf = append(buf, length)
	buf = append(buf, byte(dt.Year), byte(dt.Year>>8))
	buf = append(buf, byte(dt.Month), byte(dt.Day))
	if length >= 7 {
		buf = append(buf, byte(dt.Hour), byte(dt.Minute), byte(dt.Second))
	}
	if length >= 11 {
		micros := dt.Micros
		buf = append(buf, byte(micros), byte(micros>>8), byte(micros>>16), byte(micros>>24))
	}
	return buf
}

// DecodeTemporal reads a MySQL binary temporal value starting at buf[0],
// returning the decoded DateTime and the number of bytes consumed
// (1 + the length byte's value).
func DecodeTemporal(buf []byte) (temporal.DateTime, int, error) {
	if len(buf) < 1 {
		return temporal.DateTime{}, 0, dberr.Protocol("short read decoding temporal value")
	}
	length := buf[0]
	switch length {
	case 0, 4, 7, 11:
	default:
		return temporal.DateTime{}, 0, dberr.Protocol("invalid temporal length byte %d", length)
	}
	if len(buf) < 1+int(length) {
		return temporal.DateTime{}, 0, dberr.Protocol("short read decoding temporal value")
	}
	if length == 0 {
		return temporal.DateTime{}, 1, nil
	}

	p := buf[1:]
	var dt temporal.DateTime
	dt.Year = uint16(p[0]) | uint16(p[1])<<8
	dt.Month = p[2]
	dt.Day = p[3]
	if length >= 7 {
		dt.Hour = p[4]
		dt.Minute = p[5]
		dt.Second = p[6]
	}
	if length >= 11 {
		dt.Micros = uint32(p[7]) | uint32(p[8])<<8 | uint32(p[9])<<16 | uint32(p[10])<<24
	}
	return dt, 1 + int(length), nil
}
