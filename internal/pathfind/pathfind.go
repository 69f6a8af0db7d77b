// Package pathfind implements weighted A* over the 8-connected tile grid
// (spec.md §4.4). Ported closely from
// original_source/server/src/path_finding.rs: the node/open-set shape,
// the turn-cost heuristic, bad-target memoization, and node budgets all
// follow that file's structure, re-expressed with container/heap instead
// of a hand-rolled binary heap.
package pathfind

import (
	"container/heap"

	"github.com/originrealm/worldserver/internal/direction"
	"github.com/originrealm/worldserver/internal/repo"
)

// Mode selects the goal test and heuristic shape (spec.md §4.4).
type Mode int

const (
	// ModeExact requires reaching the goal tile exactly.
	ModeExact Mode = iota
	// ModeAdjacent succeeds on any tile with dx+dy == 1 from the goal.
	ModeAdjacent
	// ModeTwoGoals succeeds adjacent to either of two goals, taking the
	// cheaper estimate with a turn-difference bonus (spec.md §4.4).
	ModeTwoGoals
)

const maxNodesHardCap = 4096

// node is one explored A* state. index points into the search's nodes slice so
// that the first-step direction can be read back without walking a
// parent chain (ported from path_finding.rs's flat Node/nodes-by-index
// design).
type node struct {
	x, y   int32
	dir    direction.Direction // first step taken from the start to reach this node
	cdir   direction.Direction // facing upon arrival, for the next turn-cost calc
	cost   int32               // accumulated path cost
	total  int32               // cost + heuristic, the heap key
	index  int                 // position in the search's nodes slice
	heapIx int                 // index.Heap bookkeeping
}

// Passable reports whether (x, y) is enterable; callers inject world
// state (repo.Tile flags, occupancy, items) without this package needing
// to know the Repository's locking discipline.
type Passable func(x, y int32) bool

// Request describes one pathfind call.
type Request struct {
	StartX, StartY   int32
	StartFacing      direction.Direction
	GoalX, GoalY     int32
	Goal2X, Goal2Y   int32 // only used in ModeTwoGoals
	Mode             Mode
	IsCombat         bool // selects the tighter node budget
	MaxNodesOverride int  // 0 means "use the formula"
}

// Result is the outcome of one A* search.
type Result struct {
	Found     bool
	FirstStep direction.Direction
	NodesUsed int
}

// openHeap implements container/heap.Interface ordered by total cost,
// the "priority queue keyed by total_cost" of spec.md §4.4.
type openHeap []*node

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].total < h[j].total }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].heapIx, h[j].heapIx = i, j }
func (h *openHeap) Push(x interface{}) { n := x.(*node); n.heapIx = len(*h); *h = append(*h, n) }
func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// heuristic implements spec.md §4.4: h = 2*max(dx,dy) + min(dx,dy).
func heuristic(x, y, tx, ty int32) int32 {
	dx := abs(x - tx)
	dy := abs(y - ty)
	if dx > dy {
		return dx<<1 + dy
	}
	return dy<<1 + dx
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// estimate computes the heuristic for a Request's mode, including the
// ModeTwoGoals turn-difference bonus (spec.md §4.4: "the minimum of the
// two per-goal estimates with a direction-difference bonus applied to the
// cheaper one").
func estimate(x, y int32, cdir direction.Direction, req Request) int32 {
	switch req.Mode {
	case ModeTwoGoals:
		h1 := heuristic(x, y, req.GoalX, req.GoalY)
		h2 := heuristic(x, y, req.Goal2X, req.Goal2Y)
		dir1 := direction.FromDelta(req.GoalX-x, req.GoalY-y)
		dir2 := direction.FromDelta(req.Goal2X-x, req.Goal2Y-y)
		c1 := h1 + 12 + direction.TurnCount(cdir, dir1)
		c2 := h2 + direction.TurnCount(cdir, dir2)
		if c1 < c2 {
			return c1
		}
		return c2
	default:
		return heuristic(x, y, req.GoalX, req.GoalY)
	}
}

func atGoal(x, y int32, req Request) bool {
	switch req.Mode {
	case ModeExact:
		return x == req.GoalX && y == req.GoalY
	case ModeAdjacent:
		return abs(x-req.GoalX)+abs(y-req.GoalY) == 1
	case ModeTwoGoals:
		return abs(x-req.GoalX)+abs(y-req.GoalY) == 1 || abs(x-req.Goal2X)+abs(y-req.Goal2Y) == 1
	}
	return false
}

// NodeBudget computes max_step per spec.md §4.4: distance*4+50 for combat
// searches, distance*8+100 otherwise, capped at 4096.
func NodeBudget(req Request) int {
	if req.MaxNodesOverride > 0 {
		if req.MaxNodesOverride < maxNodesHardCap {
			return req.MaxNodesOverride
		}
		return maxNodesHardCap
	}
	dist := heuristic(req.StartX, req.StartY, req.GoalX, req.GoalY)
	var budget int32
	if req.IsCombat {
		budget = dist*4 + 50
	} else {
		budget = dist*8 + 100
	}
	if budget > maxNodesHardCap {
		budget = maxNodesHardCap
	}
	return int(budget)
}

// Search runs one A* pass. passable is consulted for every candidate tile
// (including the goal when Mode == ModeExact, per spec.md §4.4's
// "target-passability check for mode 0").
func Search(req Request, passable Passable) Result {
	budget := NodeBudget(req)

	nodes := make([]*node, 0, budget)
	bestCost := make(map[int64]int32, budget)
	visited := make(map[int64]bool, budget)

	open := &openHeap{}
	heap.Init(open)

	start := &node{x: req.StartX, y: req.StartY, dir: direction.None, cdir: req.StartFacing, cost: 0}
	start.total = estimate(start.x, start.y, start.cdir, req)
	start.index = len(nodes)
	nodes = append(nodes, start)
	heap.Push(open, start)
	key := tileKey(start.x, start.y)
	bestCost[key] = 0

	if atGoal(start.x, start.y, req) {
		return Result{Found: true, FirstStep: direction.None, NodesUsed: 1}
	}

	for open.Len() > 0 {
		if len(nodes) > budget {
			return Result{Found: false, NodesUsed: len(nodes)}
		}
		current := heap.Pop(open).(*node)
		ck := tileKey(current.x, current.y)
		if visited[ck] {
			continue
		}
		visited[ck] = true

		if atGoal(current.x, current.y, req) {
			return Result{Found: true, FirstStep: firstStepOf(nodes, current), NodesUsed: len(nodes)}
		}

		for _, d := range direction.All {
			dx, dy := d.Delta()
			nx, ny := current.x+dx, current.y+dy

			if d.IsDiagonal() {
				cardA := direction.FromDelta(dx, 0)
				cardB := direction.FromDelta(0, dy)
				adxA, adyA := cardA.Delta()
				adxB, adyB := cardB.Delta()
				if !passable(current.x+adxA, current.y+adyA) || !passable(current.x+adxB, current.y+adyB) {
					continue
				}
			}
			if !passable(nx, ny) {
				continue
			}

			step := d.StepCost() + direction.TurnCount(current.cdir, d)
			newCost := current.cost + step
			nk := tileKey(nx, ny)
			if prev, ok := bestCost[nk]; ok && prev <= newCost {
				continue
			}
			bestCost[nk] = newCost

			firstDir := current.dir
			if current.dir == direction.None {
				firstDir = d
			}
			n := &node{
				x: nx, y: ny, dir: firstDir, cdir: d,
				cost: newCost,
			}
			n.total = newCost + estimate(nx, ny, d, req)
			n.index = len(nodes)
			nodes = append(nodes, n)
			heap.Push(open, n)
		}
	}
	return Result{Found: false, NodesUsed: len(nodes)}
}

func firstStepOf(nodes []*node, n *node) direction.Direction {
	if n.dir == direction.None {
		return direction.None
	}
	return n.dir
}

func tileKey(x, y int32) int64 {
	return int64(x)<<32 | int64(uint32(y))
}

// BadTargets memoizes failed goal tiles for the remainder of the current
// tick (spec.md §4.4, "memoizes (tx, ty) as a bad target for one tick").
// Ported from path_finding.rs's BadTarget{tick} map: an entry is valid
// while its recorded tick is still the current tick.
type BadTargets struct {
	entries map[int64]uint64
}

func NewBadTargets() *BadTargets {
	return &BadTargets{entries: make(map[int64]uint64)}
}

func (b *BadTargets) IsBad(x, y int32, currentTick uint64) bool {
	tick, ok := b.entries[tileKey(x, y)]
	return ok && tick > currentTick
}

func (b *BadTargets) MarkBad(x, y int32, currentTick uint64) {
	b.entries[tileKey(x, y)] = currentTick + 1
}

// PassableFromRepo adapts repo's tile grid to the Passable signature,
// folding in occupancy and the MF_NOMONST/MF_DEATHTRAP mover exceptions
// (internal/worldmap.Passable). Kept separate from Search so batch
// callers can pass a cheaper snapshot-backed predicate instead.
func PassableFromRepo(tiles []repo.Tile, itemBlockedAt func(x, y int32) bool, moverIsMonster, moverIsUsurpLike bool) Passable {
	return func(x, y int32) bool {
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
		if itemBlockedAt != nil && itemBlockedAt(x, y) {
			return false
		}
		if t.Flags&repo.MfNoMonst != 0 && moverIsMonster && !moverIsUsurpLike {
			return false
		}
		if t.Flags&repo.MfDeathTrap != 0 && !moverIsUsurpLike {
			return false
		}
		return true
	}
}
