package packet

import (
	"reflect"
	"testing"
)

func TestClientRoundTripMove(t *testing.T) {
	want := MovePacket{X: 7, Y: -3}
	frame := EncodeMove(want)
	r, err := NewReader(frame)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Opcode() != ClMove {
		t.Fatalf("opcode = %v, want ClMove", r.Opcode())
	}
	got := DecodeMove(r)
	if got != want {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestClientRoundTripAttack(t *testing.T) {
	want := AttackPacket{TargetID: 12345}
	r, err := NewReader(EncodeAttack(want))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got := DecodeAttack(r); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestClientRoundTripCTick(t *testing.T) {
	want := CTickPacket{CTick: 60000}
	r, err := NewReader(EncodeCTick(want))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got := DecodeCTick(r); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestClientRoundTripAPILogin(t *testing.T) {
	want := APILoginPacket{Ticket: 0xDEADBEEFCAFEBABE}
	r, err := NewReader(EncodeAPILogin(want))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if got := DecodeAPILogin(r); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestNewReaderRejectsShortFrame(t *testing.T) {
	if _, err := NewReader(make([]byte, 10)); err != ErrShortFrame {
		t.Fatalf("expected ErrShortFrame, got %v", err)
	}
}

func TestNewReaderRejectsUnknownOpcode(t *testing.T) {
	frame := make([]byte, ClientFrameSize)
	frame[0] = 0xFF
	if _, err := NewReader(frame); err != ErrUnknownOpcode {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
}

func TestSetMapRoundTrip(t *testing.T) {
	deltas := []TileDelta{
		{Index: 100, Fields: FieldBackground, Background: 42},
		{Index: 101, Fields: FieldChar | FieldPercentage, CharSprite: 7, CharStatus: 1, StatOffset: 0, Percentage: 50},
		{Index: 250, Fields: FieldFlags1 | FieldFlags2, Flags1: 0x1, Flags2: 0x2}, // offset 149, forces absolute form
		{Index: 251, Fields: FieldItem, ItemSprite: 9, ItemStatus: 3},
	}
	enc := NewSetMapEncoder()
	enc.Encode(deltas)
	got, err := DecodeSetMap(enc.Bytes())
	if err != nil {
		t.Fatalf("DecodeSetMap: %v", err)
	}
	if !reflect.DeepEqual(got, deltas) {
		t.Fatalf("round-trip mismatch:\ngot  %+v\nwant %+v", got, deltas)
	}
}

func TestSetMapShortFormOffset(t *testing.T) {
	deltas := []TileDelta{
		{Index: 1000, Fields: FieldBackground, Background: 1},
		{Index: 1010, Fields: FieldBackground, Background: 2}, // offset 10, fits in 7 bits
	}
	enc := NewSetMapEncoder()
	enc.Encode(deltas)
	b := enc.Bytes()
	// first record: absolute marker (SetMapDelta, 0 offset bits) + 2-byte index + 1 flags byte + 2 bytes field = 6 bytes
	// second record: short marker with offset 10 in low 7 bits
	secondMarker := b[6]
	if secondMarker&SetMapDelta == 0 {
		t.Fatalf("expected high bit set on SetMap marker")
	}
	if secondMarker&^SetMapDelta != 10 {
		t.Fatalf("expected short-form offset 10, got %d", secondMarker&^SetMapDelta)
	}
}

func TestDecodeSetMapTruncated(t *testing.T) {
	enc := NewSetMapEncoder()
	enc.Encode([]TileDelta{{Index: 5, Fields: FieldFlags1, Flags1: 0xFFFF}})
	b := enc.Bytes()
	if _, err := DecodeSetMap(b[:len(b)-2]); err != ErrTruncatedSetMap {
		t.Fatalf("expected ErrTruncatedSetMap, got %v", err)
	}
}

func TestLightRunRoundTrip(t *testing.T) {
	run := LightRun{
		StartIndex: 1500,
		Base:       9,
		Deltas:     []int8{-8, -1, 0, 1, 7, 3},
	}
	encoded := EncodeLightRun(run)
	got, err := DecodeLightRun(encoded, len(run.Deltas))
	if err != nil {
		t.Fatalf("DecodeLightRun: %v", err)
	}
	if got.StartIndex != run.StartIndex || got.Base != run.Base {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if !reflect.DeepEqual(got.Deltas, run.Deltas) {
		t.Fatalf("deltas mismatch: got %v, want %v", got.Deltas, run.Deltas)
	}
}

func TestServerFixedWriterPadsToFrameSize(t *testing.T) {
	w := NewWriter(SvTick)
	w.WriteD(42)
	b := w.Bytes()
	if len(b) != ServerFrameSize {
		t.Fatalf("expected %d bytes, got %d", ServerFrameSize, len(b))
	}
	if b[0] != byte(SvTick) {
		t.Fatalf("expected opcode byte preserved")
	}
}
