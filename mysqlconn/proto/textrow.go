package proto

import "github.com/sqlbridge/sqlbridge/dberr"

// TextCell is one decoded text-protocol column: either absent (SQL NULL)
// or a byte range into the retained row snapshot.
type TextCell struct {
	Null   bool
	Offset int
	Length int
}

// DecodeTextRow decodes one MySQL text-protocol row out of buf, which
// must contain exactly the row payload (no packet header). It returns
// one TextCell per column, referencing byte ranges within buf itself;
// callers that need to retain cells past buf's lifetime must copy buf
// first (mysqlconn's RowStream.Next instead copies each cell into a
// string before the packet buffer is reused).
//
// Algorithm per column, per the MySQL text protocol:
//  1. buf[0] == 0xFB: NULL, advance 1 byte.
//  2. Otherwise: read a length-encoded unsigned integer giving the
//     cell's byte length, bounds-check it against the remaining buffer,
//     then record the offset range and advance.
func DecodeTextRow(buf []byte, numColumns int) ([]TextCell, error) {
	cells := make([]TextCell, 0, numColumns)
	pos := 0
	for col := 0; col < numColumns; col++ {
		if pos >= len(buf) {
			return nil, dberr.Protocol("text row: short buffer at column %d", col)
		}
		if buf[pos] == NullValue {
			cells = append(cells, TextCell{Null: true})
			pos++
			continue
		}
		first := buf[pos]
		size, n, err := readLenencUintAt(buf, pos)
		if err != nil {
			return nil, err
		}
		pos += n
		remaining := len(buf) - pos
		if int(size) > remaining {
			return nil, dberr.Protocol(
				"text row: column %d (first byte 0x%02x) declares length %d but only %d bytes remain",
				col, first, size, remaining)
		}
		cells = append(cells, TextCell{Offset: pos, Length: int(size)})
		pos += int(size)
	}
	return cells, nil
}

// readLenencUintAt mirrors codec.Reader.GetLenencUint but operates on an
// arbitrary offset into buf rather than consuming a cursor, since the
// text-row decoder needs to track (size, offset) pairs rather than just
// decoded values.
func readLenencUintAt(buf []byte, pos int) (value uint64, consumed int, err error) {
	if pos >= len(buf) {
		return 0, 0, dberr.Protocol("text row: short read decoding length")
	}
	first := buf[pos]
	switch {
	case first < 0xfb:
		return uint64(first), 1, nil
	case first == NullValue:
		return 0, 0, dberr.Protocol("text row: unexpected NULL sentinel decoding length")
	case first == 0xfc:
		if pos+3 > len(buf) {
			return 0, 0, dberr.Protocol("text row: short read decoding 2-byte length")
		}
		return uint64(buf[pos+1]) | uint64(buf[pos+2])<<8, 3, nil
	case first == 0xfd:
		if pos+4 > len(buf) {
			return 0, 0, dberr.Protocol("text row: short read decoding 3-byte length")
		}
		return uint64(buf[pos+1]) | uint64(buf[pos+2])<<8 | uint64(buf[pos+3])<<16, 4, nil
	case first == 0xfe:
		if pos+9 > len(buf) {
			return 0, 0, dberr.Protocol("text row: short read decoding 8-byte length")
		}
		v := uint64(0)
		for i := 0; i < 8; i++ {
			v |= uint64(buf[pos+1+i]) << (8 * i)
		}
		return v, 9, nil
	default:
		return 0, 0, dberr.Protocol("text row: invalid length-encoding prefix 0x%02x", first)
	}
}
