// Package worldmap implements tile movement eligibility and light
// propagation over the repo.Tile grid (spec.md §4.3). Grounded on
// original_source/server/src/path_finding.rs (is_passable) and
// state.rs::do_add_light (bounding-box + squared-distance cutoff); the
// attenuation formula itself is invented (see SPEC_FULL.md) since the
// original's loop body is a stub.
package worldmap

import "github.com/originrealm/worldserver/internal/repo"

// Mover describes the entity asking whether a tile is passable, enough to
// evaluate the monster/player/usurp exceptions in spec.md §4.3.
type Mover struct {
	IsMonster   bool
	IsUsurpLike bool // usurp or thrall; treated as a player for NOMONST/DEATHTRAP
}

// Passable reports whether (x, y) can be entered by mover, per spec.md
// §4.3's movement eligibility rule. itemBlocked lets the driver exception
// list (spec.md "with specific driver exceptions") be supplied by the
// caller rather than hardcoded here.
func Passable(tiles []repo.Tile, x, y int32, mover Mover, itemBlocked bool) bool {
	idx := repo.Index(x, y)
	if idx < 0 {
		return false
	}
	t := &tiles[idx]
	if t.Flags&repo.MfMoveBlock != 0 {
		return false
	}
	if t.Ch != 0 || t.ToCh != 0 {
		return false
	}
	if itemBlocked {
		return false
	}
	if t.Flags&repo.MfNoMonst != 0 && mover.IsMonster && !mover.IsUsurpLike {
		return false
	}
	if t.Flags&repo.MfDeathTrap != 0 && !mover.IsUsurpLike {
		return false
	}
	return true
}

// ItemBlocks reports whether a ground item at the tile blocks movement,
// applying the IF_MOVEBLOCK flag with the "driver != 2" exception ported
// from path_finding.rs::is_passable (driver 2 is the flying/ghost class
// of movement that ignores item clutter).
func ItemBlocks(item *repo.Item, moverDriverClass int) bool {
	if item == nil || item.Used == repo.UseEmpty {
		return false
	}
	if item.Flags&repo.IfMoveBlock == 0 {
		return false
	}
	return moverDriverClass != 2
}

// AddLight increments the light field at the source tile by strength and
// propagates a linear falloff to every tile within the circular
// LightDist footprint (spec.md §4.3). Removal is AddLight with -strength;
// spec.md §8 property 8 requires add followed by remove to restore the
// map's light field byte-for-byte, so the same integer formula is used in
// both directions and never rounds differently depending on sign.
func AddLight(tiles []repo.Tile, cx, cy int32, strength int32) {
	propagate(tiles, cx, cy, strength)
}

func RemoveLight(tiles []repo.Tile, cx, cy int32, strength int32) {
	propagate(tiles, cx, cy, -strength)
}

func propagate(tiles []repo.Tile, cx, cy int32, strength int32) {
	if idx := repo.Index(cx, cy); idx >= 0 {
		addDLight(&tiles[idx], strength)
	}
	abs := strength
	if abs < 0 {
		abs = -abs
	}
	for dy := -int32(repo.LightDist); dy <= repo.LightDist; dy++ {
		for dx := -int32(repo.LightDist); dx <= repo.LightDist; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if dx*dx+dy*dy > repo.LightDist*repo.LightDist {
				continue
			}
			idx := repo.Index(cx+dx, cy+dy)
			if idx < 0 {
				continue
			}
			dist := isqrt(dx*dx + dy*dy)
			contribution := linearFalloff(strength, dist)
			if contribution != 0 {
				addDLight(&tiles[idx], contribution)
			}
		}
	}
}

// linearFalloff computes the signed contribution of a source of the given
// (possibly negative) strength at integer distance d from its center,
// clamped to zero at d >= LightDist.
func linearFalloff(strength int32, d int32) int32 {
	if d >= repo.LightDist {
		return 0
	}
	mag := strength
	neg := mag < 0
	if neg {
		mag = -mag
	}
	contribution := mag - (mag*d)/repo.LightDist
	if contribution < 0 {
		contribution = 0
	}
	if neg {
		return -contribution
	}
	return contribution
}

// addDLight folds delta into the tile's signed accumulator and re-derives
// the clamped on-wire Light nibble from it. DLight, not Light, is the
// value add/remove pairs must restore exactly; Light is a pure function
// of DLight so it comes back byte-for-byte whenever DLight does (spec.md
// §8 property 8).
func addDLight(t *repo.Tile, delta int32) {
	t.DLight += delta
	total := t.DLight
	if total < 0 {
		total = 0
	}
	if total > 15 {
		total = 15
	}
	t.Light = uint8(total)
}

// isqrt is an integer square root, sufficient precision for light falloff
// distance banding (no need for float math on the hot light-propagation
// path).
func isqrt(n int32) int32 {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
