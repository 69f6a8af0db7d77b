package packet

import (
	"encoding/binary"
	"errors"
)

// TileFields is the per-tile field-present bitmask (spec.md §4.2): only
// changed fields are written, never a full tile record.
type TileFields byte

const (
	FieldBackground TileFields = 1 << iota
	FieldFlags1
	FieldFlags2
	FieldItem
	FieldChar
	FieldCharID
	FieldPercentage
)

// TileDelta is one tile's changed fields, as produced by the delta
// streamer (spec.md §4.6). Index is the absolute linear tile index; zero
// fields not marked in Fields are not written and must be ignored on
// decode.
type TileDelta struct {
	Index int

	Fields TileFields

	Background uint16
	Flags1     uint32
	Flags2     uint32

	ItemSprite uint16
	ItemStatus byte

	CharSprite uint16
	CharStatus byte
	StatOffset byte

	CharNr    uint16
	CharID    uint16
	CharSpeed byte

	Percentage byte
}

var ErrTruncatedSetMap = errors.New("packet: truncated SetMap stream")

// SetMapEncoder assembles a sequence of TileDeltas into the wire's
// cursor-relative form. One encoder is used per tick per session; its
// cursor must not be reused across ticks (spec.md §4.6 step 7: "update the
// shadow state ... and advance the session's cursor" happens once per
// tick, not once per encoder lifetime, so callers construct a fresh
// encoder each tick and persist cursor state themselves if they need
// cross-tick continuity beyond what the shadow comparison already gives).
type SetMapEncoder struct {
	buf        []byte
	haveCursor bool
	cursor     int
}

func NewSetMapEncoder() *SetMapEncoder {
	return &SetMapEncoder{}
}

// Encode appends deltas to the stream in ascending Index order. Callers
// MUST sort deltas by Index first (spec.md §4.6 step 4); Encode does not
// sort and will produce a malformed (non-monotonic) stream otherwise,
// since the short form only ever encodes a forward offset.
func (e *SetMapEncoder) Encode(deltas []TileDelta) {
	for _, d := range deltas {
		e.encodeOne(d)
	}
}

func (e *SetMapEncoder) encodeOne(d TileDelta) {
	if !e.haveCursor {
		e.writeAbsolute(d.Index)
	} else {
		offset := d.Index - e.cursor
		if offset > 0 && offset <= 0x7F {
			e.buf = append(e.buf, SetMapDelta|byte(offset))
		} else {
			e.writeAbsolute(d.Index)
		}
	}
	e.cursor = d.Index
	e.haveCursor = true

	e.buf = append(e.buf, byte(d.Fields))
	if d.Fields&FieldBackground != 0 {
		e.putU16(d.Background)
	}
	if d.Fields&FieldFlags1 != 0 {
		e.putU32(d.Flags1)
	}
	if d.Fields&FieldFlags2 != 0 {
		e.putU32(d.Flags2)
	}
	if d.Fields&FieldItem != 0 {
		e.putU16(d.ItemSprite)
		e.buf = append(e.buf, d.ItemStatus)
	}
	if d.Fields&FieldChar != 0 {
		e.putU16(d.CharSprite)
		e.buf = append(e.buf, d.CharStatus, d.StatOffset)
	}
	if d.Fields&FieldCharID != 0 {
		e.putU16(d.CharNr)
		e.putU16(d.CharID)
		e.buf = append(e.buf, d.CharSpeed)
	}
	if d.Fields&FieldPercentage != 0 {
		e.buf = append(e.buf, d.Percentage)
	}
}

// writeAbsolute emits the "offset == 0" short-form marker followed by a
// 16-bit absolute tile index (spec.md §4.2: "low 7 bits carry a positional
// offset delta ... or 0 meaning an absolute 16-bit tile index follows").
func (e *SetMapEncoder) writeAbsolute(index int) {
	e.buf = append(e.buf, SetMapDelta)
	e.putU16(uint16(index))
}

func (e *SetMapEncoder) putU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *SetMapEncoder) putU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *SetMapEncoder) Bytes() []byte { return e.buf }

// DecodeSetMap parses a full SetMap byte stream back into TileDeltas,
// applying the same cursor rule the encoder used. Returns
// ErrTruncatedSetMap (without partial application, per spec.md §4.2's
// decoder contract) if the stream ends mid-record.
func DecodeSetMap(data []byte) ([]TileDelta, error) {
	var out []TileDelta
	off := 0
	cursor := 0
	haveCursor := false

	need := func(n int) bool { return off+n <= len(data) }

	for off < len(data) {
		if !need(1) {
			return nil, ErrTruncatedSetMap
		}
		marker := data[off]
		off++
		offsetBits := marker &^ SetMapDelta
		var index int
		if offsetBits == 0 {
			if !need(2) {
				return nil, ErrTruncatedSetMap
			}
			index = int(binary.LittleEndian.Uint16(data[off:]))
			off += 2
		} else {
			if !haveCursor {
				return nil, ErrTruncatedSetMap
			}
			index = cursor + int(offsetBits)
		}
		cursor = index
		haveCursor = true

		if !need(1) {
			return nil, ErrTruncatedSetMap
		}
		fields := TileFields(data[off])
		off++
		d := TileDelta{Index: index, Fields: fields}

		if fields&FieldBackground != 0 {
			if !need(2) {
				return nil, ErrTruncatedSetMap
			}
			d.Background = binary.LittleEndian.Uint16(data[off:])
			off += 2
		}
		if fields&FieldFlags1 != 0 {
			if !need(4) {
				return nil, ErrTruncatedSetMap
			}
			d.Flags1 = binary.LittleEndian.Uint32(data[off:])
			off += 4
		}
		if fields&FieldFlags2 != 0 {
			if !need(4) {
				return nil, ErrTruncatedSetMap
			}
			d.Flags2 = binary.LittleEndian.Uint32(data[off:])
			off += 4
		}
		if fields&FieldItem != 0 {
			if !need(3) {
				return nil, ErrTruncatedSetMap
			}
			d.ItemSprite = binary.LittleEndian.Uint16(data[off:])
			d.ItemStatus = data[off+2]
			off += 3
		}
		if fields&FieldChar != 0 {
			if !need(4) {
				return nil, ErrTruncatedSetMap
			}
			d.CharSprite = binary.LittleEndian.Uint16(data[off:])
			d.CharStatus = data[off+2]
			d.StatOffset = data[off+3]
			off += 4
		}
		if fields&FieldCharID != 0 {
			if !need(5) {
				return nil, ErrTruncatedSetMap
			}
			d.CharNr = binary.LittleEndian.Uint16(data[off:])
			d.CharID = binary.LittleEndian.Uint16(data[off+2:])
			d.CharSpeed = data[off+4]
			off += 5
		}
		if fields&FieldPercentage != 0 {
			if !need(1) {
				return nil, ErrTruncatedSetMap
			}
			d.Percentage = data[off]
			off++
		}
		out = append(out, d)
	}
	return out, nil
}

// LightRun is a contiguous span of per-tile light deltas, packed as nibble
// pairs (spec.md §4.2, §9 "coordinate packing"): a u16 header (low 11 bits
// = start index within a 2048-tile window, high 4 bits = base light
// level) followed by one nibble per consecutive tile's signed delta from
// the base, biased by +8 to fit unsigned (range -8..7).
type LightRun struct {
	StartIndex int // absolute tile index; only the low 11 bits are packed
	Base       byte
	Deltas     []int8 // one per tile, in range [-8, 7]
}

func EncodeLightRun(r LightRun) []byte {
	header := uint16(r.StartIndex&0x7FF) | uint16(r.Base&0xF)<<11
	out := make([]byte, 2, 2+(len(r.Deltas)+1)/2)
	binary.LittleEndian.PutUint16(out, header)

	for i := 0; i < len(r.Deltas); i += 2 {
		lo := biasNibble(r.Deltas[i])
		hi := byte(0)
		if i+1 < len(r.Deltas) {
			hi = biasNibble(r.Deltas[i+1])
		}
		out = append(out, lo|hi<<4)
	}
	return out
}

func DecodeLightRun(data []byte, count int) (LightRun, error) {
	if len(data) < 2 {
		return LightRun{}, ErrTruncatedSetMap
	}
	header := binary.LittleEndian.Uint16(data)
	run := LightRun{
		StartIndex: int(header & 0x7FF),
		Base:       byte(header >> 11),
		Deltas:     make([]int8, 0, count),
	}
	needBytes := (count + 1) / 2
	if len(data) < 2+needBytes {
		return LightRun{}, ErrTruncatedSetMap
	}
	for i := 0; i < count; i++ {
		b := data[2+i/2]
		var nib byte
		if i%2 == 0 {
			nib = b & 0xF
		} else {
			nib = b >> 4
		}
		run.Deltas = append(run.Deltas, unbiasNibble(nib))
	}
	return run, nil
}

func biasNibble(v int8) byte {
	return byte(v + 8)
}

func unbiasNibble(n byte) int8 {
	return int8(n) - 8
}
