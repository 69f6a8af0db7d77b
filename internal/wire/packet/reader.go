package packet

import (
	"encoding/binary"
	"errors"
)

// ClientFrameSize is the fixed size of every client->server packet
// (spec.md §4.2): 1-byte opcode, 15-byte payload.
const ClientFrameSize = 16

var (
	ErrShortFrame    = errors.New("packet: frame is not exactly 16 bytes")
	ErrUnknownOpcode = errors.New("packet: unknown client opcode")
)

// Reader reads positional fields from a decoded client payload. Byte 0 is
// always the opcode; reads start at byte 1.
type Reader struct {
	data []byte
	off  int
}

// NewReader wraps a full 16-byte client frame. Returns ErrShortFrame if
// len(data) != ClientFrameSize, and ErrUnknownOpcode if the opcode isn't in
// the closed set (spec.md §7, "Protocol error": log and drop).
func NewReader(data []byte) (*Reader, error) {
	if len(data) != ClientFrameSize {
		return nil, ErrShortFrame
	}
	if !knownClientOps[ClientOp(data[0])] {
		return nil, ErrUnknownOpcode
	}
	return &Reader{data: data, off: 1}, nil
}

func (r *Reader) Opcode() ClientOp {
	return ClientOp(r.data[0])
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadH reads 2 bytes little-endian as uint16.
func (r *Reader) ReadH() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes little-endian as int32.
func (r *Reader) ReadD() int32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadQ reads 8 bytes little-endian as uint64 (session tickets, §6.2).
func (r *Reader) ReadQ() uint64 {
	if r.off+8 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

// ReadBytes reads n raw bytes, clamped to what remains in the payload.
func (r *Reader) ReadBytes(n int) []byte {
	if r.off+n > len(r.data) {
		n = len(r.data) - r.off
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// ReadString reads a null-terminated string from the remainder of the
// payload (chat/name chunks, §4.2). Names and chat are plain UTF-8 bytes
// on this wire; there is no codepage transcoding.
func (r *Reader) ReadString(maxLen int) string {
	end := r.off + maxLen
	if end > len(r.data) {
		end = len(r.data)
	}
	raw := r.data[r.off:end]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	r.off = end
	return string(raw[:n])
}

// Remaining reports unread payload bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
