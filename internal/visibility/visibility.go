// Package visibility implements per-character line-of-sight caching
// (spec.md §4.5). The shadow-casting sweep itself has no source to port:
// original_source/server/src/state.rs's can_see/can_map_see/check_vis are
// stubs, so this is hand-written from the spec's prose description using
// the standard recursive-octant shadowcasting idiom.
package visibility

import (
	"sync/atomic"

	"github.com/originrealm/worldserver/internal/repo"
)

// SeeMapSize is the edge length of the cached visibility window (Glossary
// "SeeMap"): 40x40 tiles centered on the character.
const SeeMapSize = 40
const seeMapHalf = SeeMapSize / 2

// MaxLight is the shadow-cast horizon (spec.md §4.5, "out to MAXLIGHT
// tiles").
const MaxLight = 20

// SeeMap is a character's cached visibility window. OriginX/OriginY are
// the world coordinates of the map's (0,0) cell (top-left of the window).
type SeeMap struct {
	OriginX, OriginY int32
	Visible          [SeeMapSize * SeeMapSize]bool
}

func (m *SeeMap) index(x, y int32) int {
	lx, ly := x-m.OriginX, y-m.OriginY
	if lx < 0 || lx >= SeeMapSize || ly < 0 || ly >= SeeMapSize {
		return -1
	}
	return int(lx + ly*SeeMapSize)
}

func (m *SeeMap) IsVisible(x, y int32) bool {
	idx := m.index(x, y)
	return idx >= 0 && m.Visible[idx]
}

// Stats are process-wide cache hit/miss counters (spec.md §4.5, "cache
// hit/miss counters are exported"), updated atomically so concurrent
// diagnostic reads never race the tick loop.
type Stats struct {
	hits, misses uint64
}

func (s *Stats) Hits() uint64   { return atomic.LoadUint64(&s.hits) }
func (s *Stats) Misses() uint64 { return atomic.LoadUint64(&s.misses) }

// Recompute rebuilds a SeeMap centered on (cx, cy) via recursive
// shadowcasting over the eight octants, stopping at MF_SIGHTBLOCK tiles
// and the MaxLight horizon. sightBlocked reports whether (x,y) blocks
// sight past it; it is injected so callers can fold in per-character
// hidden-state rules (spec.md §4.5, "blocking by some character states")
// without this package depending on repo.Character directly.
func Recompute(m *SeeMap, cx, cy int32, sightBlocked func(x, y int32) bool) {
	*m = SeeMap{OriginX: cx - seeMapHalf, OriginY: cy - seeMapHalf}
	if idx := m.index(cx, cy); idx >= 0 {
		m.Visible[idx] = true
	}
	for octant := 0; octant < 8; octant++ {
		castOctant(m, cx, cy, 1, 1.0, 0.0, octant, sightBlocked)
	}
}

// castOctant is the standard recursive shadowcasting sweep (Bjorn
// Bergstrom's algorithm), transformed into each of the 8 octants via
// transformOctant.
func castOctant(m *SeeMap, cx, cy, row int32, startSlope, endSlope float64, octant int, blocked func(x, y int32) bool) {
	if startSlope < endSlope {
		return
	}
	var blockedByPrev bool
	var newStart float64

	for dist := row; dist <= MaxLight; dist++ {
		blockedByPrev = false
		dy := -dist
		for dx := -dist; dx <= 0; dx++ {
			dxF, dyF := float64(dx), float64(dy)
			leftSlope := (dxF - 0.5) / (dyF + 0.5)
			rightSlope := (dxF + 0.5) / (dyF - 0.5)
			if rightSlope > startSlope {
				continue
			}
			if leftSlope < endSlope {
				break
			}

			wx, wy := transformOctant(cx, cy, dx, dy, octant)
			if dx*dx+dy*dy <= MaxLight*MaxLight {
				if idx := m.index(wx, wy); idx >= 0 {
					m.Visible[idx] = true
				}
			}

			isBlocked := blocked(wx, wy)
			if blockedByPrev {
				if isBlocked {
					newStart = rightSlope
					continue
				}
				blockedByPrev = false
				startSlope = newStart
			} else if isBlocked && dist < MaxLight {
				blockedByPrev = true
				castOctant(m, cx, cy, dist+1, startSlope, leftSlope, octant, blocked)
				newStart = rightSlope
			}
		}
		if blockedByPrev {
			break
		}
	}
}

// transformOctant maps the canonical (dx<=0, dy<0) sweep coordinates used
// by castOctant into one of the 8 real octants around (cx, cy).
func transformOctant(cx, cy int32, dx, dy int32, octant int) (int32, int32) {
	switch octant {
	case 0:
		return cx + dy, cy + dx
	case 1:
		return cx - dy, cy + dx
	case 2:
		return cx + dx, cy + dy
	case 3:
		return cx - dx, cy + dy
	case 4:
		return cx + dx, cy - dy
	case 5:
		return cx - dx, cy - dy
	case 6:
		return cx + dy, cy - dx
	default:
		return cx - dy, cy - dx
	}
}

// CanSee implements spec.md §4.5's contract: true iff (bx, by) is marked
// visible in a's SeeMap AND a has enough light on the target tile.
func CanSee(a *SeeMap, tiles []repo.Tile, bx, by int32, minLight uint8, stats *Stats) bool {
	if !a.IsVisible(bx, by) {
		if stats != nil {
			atomic.AddUint64(&stats.misses, 1)
		}
		return false
	}
	if stats != nil {
		atomic.AddUint64(&stats.hits, 1)
	}
	idx := repo.Index(bx, by)
	if idx < 0 {
		return false
	}
	return tiles[idx].Light >= minLight
}

// SightBlockedFromTiles adapts the repo tile grid to the sightBlocked
// signature Recompute expects.
func SightBlockedFromTiles(tiles []repo.Tile) func(x, y int32) bool {
	return func(x, y int32) bool {
		idx := repo.Index(x, y)
		if idx < 0 {
			return true
		}
		return tiles[idx].Flags&repo.MfSightBlock != 0
	}
}
