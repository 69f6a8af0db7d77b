package packet

// Typed payloads for the subset of client opcodes exercised by the tick
// loop's command dispatch (spec.md §4.8, "process pending 16-byte
// commands"). Each Encode/Decode pair must round-trip per spec.md §8
// property 6.

// MovePacket is CL_MOVE: target tile to walk toward.
type MovePacket struct {
	X, Y int32
}

func DecodeMove(r *Reader) MovePacket {
	return MovePacket{X: r.ReadD(), Y: r.ReadD()}
}

func EncodeMove(p MovePacket) []byte {
	w := rawClientWriter(ClMove)
	w.WriteD(p.X)
	w.WriteD(p.Y)
	return w.bytes()
}

// AttackPacket is CL_ATTACK: target character id.
type AttackPacket struct {
	TargetID int32
}

func DecodeAttack(r *Reader) AttackPacket {
	return AttackPacket{TargetID: r.ReadD()}
}

func EncodeAttack(p AttackPacket) []byte {
	w := rawClientWriter(ClAttack)
	w.WriteD(p.TargetID)
	return w.bytes()
}

// TurnPacket is CL_TURN: new facing, stored as a raw direction byte
// (see internal/direction).
type TurnPacket struct {
	Dir byte
}

func DecodeTurn(r *Reader) TurnPacket {
	return TurnPacket{Dir: r.ReadC()}
}

func EncodeTurn(p TurnPacket) []byte {
	w := rawClientWriter(ClTurn)
	w.WriteC(p.Dir)
	return w.bytes()
}

// UsePacket is CL_USE: inventory slot index and an optional target.
type UsePacket struct {
	Slot   byte
	Target int32
}

func DecodeUse(r *Reader) UsePacket {
	return UsePacket{Slot: r.ReadC(), Target: r.ReadD()}
}

func EncodeUse(p UsePacket) []byte {
	w := rawClientWriter(ClUse)
	w.WriteC(p.Slot)
	w.WriteD(p.Target)
	return w.bytes()
}

// CTickPacket is CL_CTICK: the client's echoed animation counter, used by
// the server to estimate round-trip smoothing (Glossary, "ctick").
type CTickPacket struct {
	CTick uint16
}

func DecodeCTick(r *Reader) CTickPacket {
	return CTickPacket{CTick: r.ReadH()}
}

func EncodeCTick(p CTickPacket) []byte {
	w := rawClientWriter(ClCTick)
	w.WriteH(p.CTick)
	return w.bytes()
}

// APILoginPacket is CL_APILOGIN: a 64-bit opaque session ticket from the
// account service (spec.md §6.2, §6.1 step 3).
type APILoginPacket struct {
	Ticket uint64
}

func DecodeAPILogin(r *Reader) APILoginPacket {
	return APILoginPacket{Ticket: r.ReadQ()}
}

func EncodeAPILogin(p APILoginPacket) []byte {
	w := rawClientWriter(ClAPILogin)
	w.WriteQ(p.Ticket)
	return w.bytes()
}

// rawClientWriter builds a client-side frame for tests and any loopback
// tooling; production client frames arrive over the wire and are only ever
// read, never written, by this server.
type clientWriter struct {
	buf [ClientFrameSize]byte
	off int
}

func rawClientWriter(op ClientOp) *clientWriter {
	w := &clientWriter{off: 1}
	w.buf[0] = byte(op)
	return w
}

func (w *clientWriter) WriteC(v byte) {
	if w.off < ClientFrameSize {
		w.buf[w.off] = v
		w.off++
	}
}

func (w *clientWriter) WriteH(v uint16) {
	if w.off+2 <= ClientFrameSize {
		w.buf[w.off] = byte(v)
		w.buf[w.off+1] = byte(v >> 8)
		w.off += 2
	}
}

func (w *clientWriter) WriteD(v int32) {
	if w.off+4 <= ClientFrameSize {
		u := uint32(v)
		w.buf[w.off] = byte(u)
		w.buf[w.off+1] = byte(u >> 8)
		w.buf[w.off+2] = byte(u >> 16)
		w.buf[w.off+3] = byte(u >> 24)
		w.off += 4
	}
}

func (w *clientWriter) WriteQ(v uint64) {
	if w.off+8 <= ClientFrameSize {
		for i := 0; i < 8; i++ {
			w.buf[w.off+i] = byte(v >> (8 * i))
		}
		w.off += 8
	}
}

func (w *clientWriter) bytes() []byte {
	out := make([]byte, ClientFrameSize)
	copy(out, w.buf[:])
	return out
}
