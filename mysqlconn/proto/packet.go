package proto

import (
	"io"

	"github.com/sqlbridge/sqlbridge/dberr"
)

// MaxPayload is the largest payload a single packet frame can carry
// before it must be split into a series of MaxPayload-sized frames
// followed by a shorter (possibly zero-length) final frame, per the
// MySQL client/server protocol's packet header.
const MaxPayload = MaxPacketSize

// PacketConn frames payloads on top of a byte stream the way the MySQL
// protocol does: a 3-byte little-endian length, a 1-byte sequence
// number that increments per packet and resets to 0 at the start of
// each command, then the payload itself.
type PacketConn struct {
	rw  io.ReadWriter
	seq byte
}

// NewPacketConn wraps rw for packet-framed reads and writes.
func NewPacketConn(rw io.ReadWriter) *PacketConn {
	return &PacketConn{rw: rw}
}

// ResetSequence starts a new command's sequence numbering at 0, as the
// protocol requires at the start of each client command.
func (p *PacketConn) ResetSequence() { p.seq = 0 }

// ReadPacket reads one logical packet, transparently reassembling a
// payload split across several MaxPayload-sized frames.
func (p *PacketConn) ReadPacket() ([]byte, error) {
	var payload []byte
	for {
		header := make([]byte, 4)
		if _, err := io.ReadFull(p.rw, header); err != nil {
			return nil, dberr.IO("read packet header", err)
		}
		length := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
		seq := header[3]
		if seq != p.seq {
			return nil, dberr.Protocol("packet sequence mismatch: expected %d got %d", p.seq, seq)
		}
		p.seq++

		chunk := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(p.rw, chunk); err != nil {
				return nil, dberr.IO("read packet body", err)
			}
		}
		payload = append(payload, chunk...)
		if length < MaxPayload {
			break
		}
	}
	return payload, nil
}

// WritePacket writes payload as one or more frames, splitting it at
// MaxPayload boundaries (emitting a trailing zero-length frame if the
// payload is an exact multiple of MaxPayload, so the reader can tell
// the sequence ended).
func (p *PacketConn) WritePacket(payload []byte) error {
	for {
		n := len(payload)
		if n > MaxPayload {
			n = MaxPayload
		}
		header := []byte{byte(n), byte(n >> 8), byte(n >> 16), p.seq}
		p.seq++
		if _, err := p.rw.Write(header); err != nil {
			return dberr.IO("write packet header", err)
		}
		if n > 0 {
			if _, err := p.rw.Write(payload[:n]); err != nil {
				return dberr.IO("write packet body", err)
			}
		}
		payload = payload[n:]
		if n < MaxPayload {
			return nil
		}
	}
}
