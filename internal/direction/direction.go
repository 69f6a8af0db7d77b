// Package direction holds the eight-way movement/facing model shared by
// movement resolution, the pathfinder, and combat facing checks. Spec §9
// asks for a single table rather than per-direction branches scattered
// through the codebase; dcoorToDir and turnCount below are ported from
// original_source/server/src/path_finding.rs.
package direction

// Direction is one of the eight facings, matching the wire protocol's
// animation/status byte layout (status 0..7 = idle per direction).
type Direction uint8

const (
	None Direction = iota
	Up
	Down
	Left
	Right
	LeftUp
	LeftDown
	RightUp
	RightDown
)

// delta is the (dx, dy) step for each direction. Index by Direction.
var delta = [9][2]int32{
	None:      {0, 0},
	Up:        {0, -1},
	Down:      {0, 1},
	Left:      {-1, 0},
	Right:     {1, 0},
	LeftUp:    {-1, -1},
	LeftDown:  {-1, 1},
	RightUp:   {1, -1},
	RightDown: {1, 1},
}

// Delta returns the (dx, dy) single-step offset for d.
func (d Direction) Delta() (dx, dy int32) {
	v := delta[d]
	return v[0], v[1]
}

// IsDiagonal reports whether d is one of the four diagonal directions
// (step cost 3, vs. 2 for orthogonal — spec §4.4).
func (d Direction) IsDiagonal() bool {
	switch d {
	case LeftUp, LeftDown, RightUp, RightDown:
		return true
	default:
		return false
	}
}

// StepCost is the base A* step cost before the turn penalty: 2 orthogonal,
// 3 diagonal (spec §4.4).
func (d Direction) StepCost() int32 {
	if d.IsDiagonal() {
		return 3
	}
	return 2
}

// FromDelta converts a signed (dx, dy) into the closest single-step
// direction. Ported from path_finding.rs::dcoor_to_dir. Returns None if
// dx == dy == 0.
func FromDelta(dx, dy int32) Direction {
	sx, sy := sign(dx), sign(dy)
	switch {
	case sx == 1 && sy == 1:
		return RightDown
	case sx == 1 && sy == 0:
		return Right
	case sx == 1 && sy == -1:
		return RightUp
	case sx == 0 && sy == 1:
		return Down
	case sx == 0 && sy == -1:
		return Up
	case sx == -1 && sy == 1:
		return LeftDown
	case sx == -1 && sy == 0:
		return Left
	case sx == -1 && sy == -1:
		return LeftUp
	default:
		return None
	}
}

func sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// TurnCount returns the number of 45-degree turns needed to go from dir1 to
// dir2 facing: 0 (same), 1 (adjacent), 2 (perpendicular), 3, or 4 (opposite).
// Ported from path_finding.rs::turn_count. Invalid directions yield 99, a
// sentinel that a correct caller should never observe. None turning into
// any real direction (the start of a path, no prior facing) costs 0.
func TurnCount(from, to Direction) int32 {
	if from == to || from == None {
		return 0
	}
	if table, ok := turnTable[from]; ok {
		if c, ok := table[to]; ok {
			return c
		}
	}
	return 99
}

var turnTable = map[Direction]map[Direction]int32{
	Up: {
		Down: 4, RightUp: 1, LeftUp: 1, Right: 2, Left: 2,
		RightDown: 3, LeftDown: 3,
	},
	Down: {
		Up: 4, RightDown: 1, LeftDown: 1, Right: 2, Left: 2,
		RightUp: 3, LeftUp: 3,
	},
	Left: {
		Right: 4, LeftUp: 1, LeftDown: 1, Up: 2, Down: 2,
		RightUp: 3, RightDown: 3,
	},
	Right: {
		Left: 4, RightUp: 1, RightDown: 1, Up: 2, Down: 2,
		LeftUp: 3, LeftDown: 3,
	},
	LeftUp: {
		RightDown: 4, Up: 1, Left: 1, RightUp: 2, LeftDown: 2,
		Down: 3, Right: 3,
	},
	LeftDown: {
		RightUp: 4, Down: 1, Left: 1, RightDown: 2, LeftUp: 2,
		Up: 3, Right: 3,
	},
	RightUp: {
		LeftDown: 4, Up: 1, Right: 1, RightDown: 2, LeftUp: 2,
		Down: 3, Left: 3,
	},
	RightDown: {
		LeftUp: 4, Down: 1, Right: 1, RightUp: 2, LeftDown: 2,
		Up: 3, Left: 3,
	},
}

// All lists the eight real directions in a stable order, used by callers
// that need to enumerate neighbors (flee-weight scans, successor expansion).
var All = [8]Direction{Up, Down, Left, Right, LeftUp, LeftDown, RightUp, RightDown}
