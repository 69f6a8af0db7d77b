// Package packet implements the fixed 16-byte client codec and the
// fixed/variable server codec described in spec.md §4.2. Naming and byte
// order follow internal/net/packet in the teacher (ReadC/ReadH/ReadD-style
// little-endian helpers), adapted to this protocol's opcode table and
// payload shapes.
package packet

// ClientOp is a client->server opcode. The set is closed: unknown values
// are logged and the packet dropped (spec.md §4.2, §7 "Protocol error").
type ClientOp byte

const (
	ClMove ClientOp = iota + 1
	ClPickup
	ClAttack
	ClMode
	ClInvAction
	ClStatRaise
	ClDrop
	ClGive
	ClLook
	ClInput1
	ClInput2
	ClInput3
	ClInput4
	ClInput5
	ClInput6
	ClInput7
	ClInput8
	ClInvLook
	ClLookItem
	ClUse
	ClSetUser
	ClTurn
	ClAutoLook
	ClReset
	ClShop
	ClSkill
	ClExit
	ClUnique
	ClPasswd
	ClPing
	ClAPILogin
	ClCTick
	ClChallenge
	ClNewLogin
	ClLogin
)

// knownClientOps is used by Decode to reject unrecognized opcodes.
var knownClientOps = map[ClientOp]bool{
	ClMove: true, ClPickup: true, ClAttack: true, ClMode: true,
	ClInvAction: true, ClStatRaise: true, ClDrop: true, ClGive: true,
	ClLook: true, ClInput1: true, ClInput2: true, ClInput3: true,
	ClInput4: true, ClInput5: true, ClInput6: true, ClInput7: true,
	ClInput8: true, ClInvLook: true, ClLookItem: true, ClUse: true,
	ClSetUser: true, ClTurn: true, ClAutoLook: true, ClReset: true,
	ClShop: true, ClSkill: true, ClExit: true, ClUnique: true,
	ClPasswd: true, ClPing: true, ClAPILogin: true, ClCTick: true,
	ClChallenge: true, ClNewLogin: true, ClLogin: true,
}

// ServerOp is a server->client opcode, covering both the fixed-16-byte
// family and the SetMap variable-length family.
type ServerOp byte

const (
	SvChallenge ServerOp = iota + 1
	SvLoginOK
	SvExit
	SvStatUpdate
	SvNameChunk
	SvTick
	SvOrigin
	SvLoadPct
	SvSound
	SvLog1
	SvLog2
	SvLog3
	SvLog4
	SvLook1
	SvLook2
	SvLook3
	SvLook4
	SvLook5
	SvLook6
	SvMod1
	SvMod2
	SvMod3
	SvMod4
	SvMod5
	SvMod6
	SvMod7
	SvMod8
	SvTarget
)

// SetMap family: high bit (0x80) set on the wire; these four low-order
// values select the packed light-header window per spec.md §9 "coordinate
// packing" (opcodes 45/66/67/68 in the original numbering; renumbered here
// relative to this package's own opcode space, the window semantics are
// unchanged).
const (
	SetMapDelta   byte = 0x80 // high bit marker, OR'd with a 7-bit offset or 0
	SetMapLight1  byte = 45
	SetMapLight2  byte = 66
	SetMapLight3  byte = 67
	SetMapLight4  byte = 68
)
