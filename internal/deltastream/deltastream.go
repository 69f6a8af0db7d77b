// Package deltastream implements the per-session tile-delta streamer of
// spec.md §4.6: each tick, diff a player's 40x40 viewport against the
// last-sent projection held in the session's shadow state, and assemble
// the changed tiles into a SetMap packet sequence. There is no teacher
// equivalent (the teacher streams whole-map AOI view packets rather than
// tile deltas; internal/world/aoi.go is read only for the "who's in my
// viewport" windowing idea) — the diff/cursor logic is this spec's core
// novelty, built from the §4.2/4.6 wire contract directly. Rendering a
// tile's occupant into wire fields is injected by the caller, the same
// way internal/visibility injects its sightBlocked predicate, so this
// package never needs to know how a character or item resolves to a
// sprite.
package deltastream

import (
	"sort"

	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/wire/packet"
)

// WindowSize matches visibility.SeeMapSize: the streamer only ever
// diffs the tiles a player can already see.
const WindowSize = 40

// lightWindow is the 2048-tile span a packed light-run header's 11-bit
// start index addresses (spec.md §9 "coordinate packing").
const lightWindow = 2048

// Projection is the wire-relevant state of one tile as last sent to a
// session. Comparable by ==, so diffing two projections is a plain
// field-by-field compare.
type Projection struct {
	Background uint16
	Flags1     uint32
	Flags2     uint32

	HasItem    bool
	ItemSprite uint16
	ItemStatus byte

	HasChar    bool
	CharSprite uint16
	CharStatus byte
	StatOffset byte
	CharNr     uint16
	CharID     uint16
	CharSpeed  byte

	HasPercentage bool
	Percentage    byte

	Light byte
}

// Render produces the current Projection for tile index idx, resolving
// any occupying character/item to its wire sprite/status. Callers with
// access to the full Repository supply this; deltastream has no
// dependency on character/item internals.
type Render func(tiles []repo.Tile, idx int) Projection

// Shadow is one session's per-tile last-sent state plus its SetMap
// cursor continuity (spec.md §4.6 step 7, "update the shadow state ...
// and advance the session's cursor"). Zero value is ready to use: a
// freshly connected session has nothing projected yet, so its first
// Compute naturally emits the whole viewport.
type Shadow struct {
	haveOrigin bool
	originX    int32
	originY    int32
	tiles      [WindowSize * WindowSize]Projection
}

func NewShadow() *Shadow {
	return &Shadow{}
}

// Compute runs spec.md §4.6 steps 1-5 for one tick: determine the
// window, diff each tile against the shadow, and return the changed
// tiles sorted by absolute index (step 4) along with their encoded
// SetMap bytes. render must be called fresh each tick since tick
// ordering guarantees a full tick's state is stable while diffing runs
// (§4.6 "Ordering and atomicity").
func (s *Shadow) Compute(tiles []repo.Tile, centerX, centerY int32, render Render) []byte {
	originX := centerX - WindowSize/2
	originY := centerY - WindowSize/2
	oldX, oldY, hadOrigin := s.originX, s.originY, s.haveOrigin
	if !s.haveOrigin || originX != s.originX || originY != s.originY {
		s.recenter(originX, originY)
	}

	var deltas []packet.TileDelta
	for ly := 0; ly < WindowSize; ly++ {
		for lx := 0; lx < WindowSize; lx++ {
			wx, wy := originX+int32(lx), originY+int32(ly)
			idx := repo.Index(wx, wy)
			if idx < 0 {
				continue
			}
			local := ly*WindowSize + lx
			cur := render(tiles, idx)
			prev := s.tiles[local]
			td, changed := diffTile(prev, cur, idx)
			if !hadOrigin || wx < oldX || wx >= oldX+WindowSize || wy < oldY || wy >= oldY+WindowSize {
				// A tile new to the window is sent whole, even where it
				// equals the zero Projection.
				td.Fields |= packet.FieldBackground | packet.FieldFlags1 | packet.FieldFlags2
				td.Background, td.Flags1, td.Flags2 = cur.Background, cur.Flags1, cur.Flags2
				changed = true
			}
			if changed {
				deltas = append(deltas, td)
			}
			s.tiles[local] = cur
		}
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Index < deltas[j].Index })

	enc := packet.NewSetMapEncoder()
	enc.Encode(deltas)
	return enc.Bytes()
}

// recenter shifts the retained shadow to a new window origin, carrying
// over projections for tiles still inside the window and defaulting
// newly-entered tiles to the zero Projection so the next diff reports
// them as fresh (spec.md S4: "moving P one tile east emits exactly the
// tiles that entered/left the window plus the player's new position
// tile"). Tiles that left the window are simply dropped; there is no
// "unsee" opcode in the wire contract.
func (s *Shadow) recenter(originX, originY int32) {
	var next [WindowSize * WindowSize]Projection
	if s.haveOrigin {
		// A new-window cell at local (lx, ly) is world tile (originX+lx,
		// originY+ly); that same world tile sat at old-window local
		// (lx+dx, ly+dy) where dx/dy is how far the origin moved.
		dx := originX - s.originX
		dy := originY - s.originY
		for ly := 0; ly < WindowSize; ly++ {
			for lx := 0; lx < WindowSize; lx++ {
				srcX, srcY := lx+int(dx), ly+int(dy)
				if srcX < 0 || srcX >= WindowSize || srcY < 0 || srcY >= WindowSize {
					continue
				}
				next[ly*WindowSize+lx] = s.tiles[srcY*WindowSize+srcX]
			}
		}
	}
	s.tiles = next
	s.originX, s.originY = originX, originY
	s.haveOrigin = true
}

func diffTile(prev, cur Projection, idx int) (packet.TileDelta, bool) {
	td := packet.TileDelta{Index: idx}
	var fields packet.TileFields

	if cur.Background != prev.Background {
		fields |= packet.FieldBackground
		td.Background = cur.Background
	}
	if cur.Flags1 != prev.Flags1 {
		fields |= packet.FieldFlags1
		td.Flags1 = cur.Flags1
	}
	if cur.Flags2 != prev.Flags2 {
		fields |= packet.FieldFlags2
		td.Flags2 = cur.Flags2
	}
	if cur.HasItem != prev.HasItem || (cur.HasItem && (cur.ItemSprite != prev.ItemSprite || cur.ItemStatus != prev.ItemStatus)) {
		fields |= packet.FieldItem
		td.ItemSprite = cur.ItemSprite
		td.ItemStatus = cur.ItemStatus
	}
	if cur.HasChar != prev.HasChar || (cur.HasChar && (cur.CharSprite != prev.CharSprite || cur.CharStatus != prev.CharStatus || cur.StatOffset != prev.StatOffset)) {
		fields |= packet.FieldChar
		td.CharSprite = cur.CharSprite
		td.CharStatus = cur.CharStatus
		td.StatOffset = cur.StatOffset
	}
	if cur.HasChar != prev.HasChar || (cur.HasChar && (cur.CharNr != prev.CharNr || cur.CharID != prev.CharID || cur.CharSpeed != prev.CharSpeed)) {
		fields |= packet.FieldCharID
		td.CharNr = cur.CharNr
		td.CharID = cur.CharID
		td.CharSpeed = cur.CharSpeed
	}
	if cur.HasPercentage != prev.HasPercentage || (cur.HasPercentage && cur.Percentage != prev.Percentage) {
		fields |= packet.FieldPercentage
		td.Percentage = cur.Percentage
	}

	td.Fields = fields
	return td, fields != 0
}

// LightChange is one tile whose light level differs from the shadow
// (spec.md §4.6 step 6, emitted via the LightRun bulk opcodes rather
// than as a TileDelta field, since TileFields carries no light bit).
type LightChange struct {
	Index int
	Light byte
}

// LightChanges scans the window for light-level differences against
// the shadow, separately from Compute, since bulk light updates are
// common after day/night or lantern events and benefit from their own
// contiguous-run grouping (BuildLightRuns) rather than per-tile
// TileDelta packets.
func (s *Shadow) LightChanges(tiles []repo.Tile, centerX, centerY int32, lightOf func(tiles []repo.Tile, idx int) byte) []LightChange {
	originX := centerX - WindowSize/2
	originY := centerY - WindowSize/2
	var out []LightChange
	for ly := 0; ly < WindowSize; ly++ {
		for lx := 0; lx < WindowSize; lx++ {
			wx, wy := originX+int32(lx), originY+int32(ly)
			idx := repo.Index(wx, wy)
			if idx < 0 {
				continue
			}
			local := ly*WindowSize + lx
			cur := lightOf(tiles, idx)
			if cur != s.tiles[local].Light {
				out = append(out, LightChange{Index: idx, Light: cur})
				s.tiles[local].Light = cur
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// BuildLightRuns groups sorted light changes into contiguous runs that
// fit the LightRun wire format: consecutive tile indices, never
// crossing a 2048-tile packed-window boundary (the header's start index
// is only 11 bits), and never exceeding the base's +-8 nibble range. A
// change that can't extend the current run starts a new one.
func BuildLightRuns(changes []LightChange) []packet.LightRun {
	var runs []packet.LightRun
	var cur *packet.LightRun
	var lastIndex int

	flush := func() {
		if cur != nil {
			runs = append(runs, *cur)
			cur = nil
		}
	}

	for _, c := range changes {
		sameWindow := cur != nil && c.Index/lightWindow == cur.StartIndex/lightWindow
		contiguous := cur != nil && c.Index == lastIndex+1
		if cur != nil && sameWindow && contiguous {
			delta := int(c.Light) - int(cur.Base)
			if delta >= -8 && delta <= 7 {
				cur.Deltas = append(cur.Deltas, int8(delta))
				lastIndex = c.Index
				continue
			}
		}
		flush()
		cur = &packet.LightRun{StartIndex: c.Index, Base: c.Light, Deltas: []int8{0}}
		lastIndex = c.Index
	}
	flush()
	return runs
}
