// Package codec provides the buffered, allocation-free little-endian
// reader/writer primitives the MySQL text-row decoder and binary
// temporal codec are built on: length-encoded integers, length-prefixed
// and NUL-terminated strings, and bounds-checked fixed-width reads.
package codec

import (
	"encoding/binary"

	"github.com/sqlbridge/sqlbridge/dberr"
)

// Reader is a cursor over an in-memory buffer. It never copies; slices
// returned from it alias the original buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for little-endian, bounds-checked reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Pos returns the current read offset into the original buffer.
func (r *Reader) Pos() int { return r.pos }

// Bytes returns the full backing buffer (not just the unread tail).
func (r *Reader) Bytes() []byte { return r.buf }

func (r *Reader) short() error {
	return dberr.Protocol("short read")
}

// PeekByte returns the next byte without advancing, or an error if the
// buffer is exhausted.
func (r *Reader) PeekByte() (byte, error) {
	if r.Len() < 1 {
		return 0, r.short()
	}
	return r.buf[r.pos], nil
}

// Advance skips n bytes, bounds-checked.
func (r *Reader) Advance(n int) error {
	if r.Len() < n {
		return r.short()
	}
	r.pos += n
	return nil
}

// GetUint8 reads one byte.
func (r *Reader) GetUint8() (uint8, error) {
	if r.Len() < 1 {
		return 0, r.short()
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// GetUint16 reads a little-endian uint16.
func (r *Reader) GetUint16() (uint16, error) {
	if r.Len() < 2 {
		return 0, r.short()
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// GetUint24 reads a little-endian 3-byte unsigned integer (as used by
// the MySQL packet header and length-encoded u24 prefix).
func (r *Reader) GetUint24() (uint32, error) {
	if r.Len() < 3 {
		return 0, r.short()
	}
	v := uint32(r.buf[r.pos]) | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])<<16
	r.pos += 3
	return v, nil
}

// GetUint32 reads a little-endian uint32.
func (r *Reader) GetUint32() (uint32, error) {
	if r.Len() < 4 {
		return 0, r.short()
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// GetUint64 reads a little-endian uint64.
func (r *Reader) GetUint64() (uint64, error) {
	if r.Len() < 8 {
		return 0, r.short()
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// GetBytes returns the next n bytes as a sub-slice of the original
// buffer and advances past them.
func (r *Reader) GetBytes(n int) ([]byte, error) {
	if r.Len() < n {
		return nil, r.short()
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// NullValue is the sentinel byte MySQL's text protocol uses to mark a
// NULL column cell in place of a length-encoded string.
const NullValue = 0xfb

// GetLenencUint decodes a MySQL length-encoded integer:
//
//	0x00..0xfa    -> the byte itself
//	0xfc prefix   -> following 2 bytes, little-endian
//	0xfd prefix   -> following 3 bytes, little-endian
//	0xfe prefix   -> following 8 bytes, little-endian
//
// The decoder advances exactly the bytes consumed.
func (r *Reader) GetLenencUint() (uint64, error) {
	first, err := r.GetUint8()
	if err != nil {
		return 0, err
	}
	switch {
	case first <= 0xfa:
		return uint64(first), nil
	case first == 0xfc:
		v, err := r.GetUint16()
		return uint64(v), err
	case first == 0xfd:
		v, err := r.GetUint24()
		return uint64(v), err
	case first == 0xfe:
		return r.GetUint64()
	default:
		// 0xfb (NULL) and 0xff (error) are not valid lenenc prefixes here.
		return 0, dberr.Protocol("invalid length-encoded integer prefix 0x%02x", first)
	}
}

// GetLenencString reads a length-encoded string: a lenenc integer length
// followed by that many bytes.
func (r *Reader) GetLenencString() (string, error) {
	n, err := r.GetLenencUint()
	if err != nil {
		return "", err
	}
	b, err := r.GetBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetNulString reads bytes up to and including a trailing NUL byte,
// returning the content without the terminator.
func (r *Reader) GetNulString() (string, error) {
	for i := r.pos; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			s := string(r.buf[r.pos:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", r.short()
}

// Writer accumulates bytes for the little-endian wire primitives MySQL
// uses. It never fails; callers size their own buffers.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sized.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// PutUint8 appends one byte.
func (w *Writer) PutUint8(v uint8) { w.buf = append(w.buf, v) }

// PutUint16 appends a little-endian uint16.
func (w *Writer) PutUint16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

// PutUint24 appends a little-endian 3-byte unsigned integer.
func (w *Writer) PutUint24(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16))
}

// PutUint32 appends a little-endian uint32.
func (w *Writer) PutUint32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// PutUint64 appends a little-endian uint64.
func (w *Writer) PutUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// PutBytes appends raw bytes verbatim.
func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutLenencUint encodes v using the same scheme GetLenencUint decodes.
func (w *Writer) PutLenencUint(v uint64) {
	switch {
	case v <= 0xfa:
		w.PutUint8(uint8(v))
	case v <= 0xffff:
		w.PutUint8(0xfc)
		w.PutUint16(uint16(v))
	case v <= 0xffffff:
		w.PutUint8(0xfd)
		w.PutUint24(uint32(v))
	default:
		w.PutUint8(0xfe)
		w.PutUint64(v)
	}
}

// PutLenencString writes a length-encoded string.
func (w *Writer) PutLenencString(s string) {
	w.PutLenencUint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// PutNulString writes s followed by a NUL terminator.
func (w *Writer) PutNulString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
