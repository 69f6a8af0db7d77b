package pathfind

import (
	"testing"

	"github.com/originrealm/worldserver/internal/direction"
)

// openField builds a passability predicate for a w x h open field with
// walls everywhere else.
func openField(w, h int32) Passable {
	return func(x, y int32) bool {
		return x >= 0 && x < w && y >= 0 && y < h
	}
}

func TestSearchStraightLine(t *testing.T) {
	req := Request{StartX: 0, StartY: 0, StartFacing: direction.Right, GoalX: 10, GoalY: 0, Mode: ModeExact}
	res := Search(req, openField(30, 30))
	if !res.Found {
		t.Fatalf("expected path to be found")
	}
	if res.FirstStep != direction.Right {
		t.Fatalf("expected first step Right, got %v", res.FirstStep)
	}
}

// TestTurnPenaltyFirstStepStable checks, on a straight unobstructed row of
// an open field, that the first step toward the goal does not depend on
// the starting facing: a search starting faced Right and one starting
// faced Left both find the goal with the same first step. Path cost is
// not exposed on Result, so only the first step is compared.
func TestTurnPenaltyFirstStepStable(t *testing.T) {
	field := openField(30, 30)
	reqEast := Request{StartX: 0, StartY: 5, StartFacing: direction.Right, GoalX: 20, GoalY: 5, Mode: ModeExact}
	reqWest := Request{StartX: 0, StartY: 5, StartFacing: direction.Left, GoalX: 20, GoalY: 5, Mode: ModeExact}
	resEast := Search(reqEast, field)
	resWest := Search(reqWest, field)
	if !resEast.Found || !resWest.Found {
		t.Fatalf("expected both searches to find a path")
	}
	if resEast.FirstStep != direction.Right || resWest.FirstStep != direction.Right {
		t.Fatalf("expected first step Right regardless of starting facing, got east=%v west=%v", resEast.FirstStep, resWest.FirstStep)
	}
}

func TestBadTargetMemoization(t *testing.T) {
	bt := NewBadTargets()
	const tick = uint64(5)
	if bt.IsBad(3, 3, tick) {
		t.Fatalf("fresh BadTargets should report nothing bad")
	}
	bt.MarkBad(3, 3, tick)
	if !bt.IsBad(3, 3, tick) {
		t.Fatalf("expected (3,3) to be marked bad for the current tick")
	}
	if bt.IsBad(3, 3, tick+1) {
		t.Fatalf("bad-target memoization must not carry into the next tick")
	}
}

func TestSearchFailsWhenGoalWalledOff(t *testing.T) {
	walled := func(x, y int32) bool {
		if x == 5 && y == 5 {
			return false // the goal itself is blocked
		}
		return x >= 0 && x < 10 && y >= 0 && y < 10 && !(x == 4 && y == 5) && !(x == 6 && y == 5) &&
			!(x == 5 && y == 4) && !(x == 5 && y == 6)
	}
	req := Request{StartX: 0, StartY: 5, GoalX: 5, GoalY: 5, Mode: ModeExact}
	res := Search(req, walled)
	if res.Found {
		t.Fatalf("expected search to fail: goal is fully walled off")
	}
}

func TestNodeBudgetFormula(t *testing.T) {
	req := Request{StartX: 0, StartY: 0, GoalX: 10, GoalY: 0, IsCombat: true}
	// heuristic(0,0,10,0) = 20 (dx=10 > dy=0 => 10*2+0)
	if got, want := NodeBudget(req), 20*4+50; got != want {
		t.Fatalf("combat budget = %d, want %d", got, want)
	}
	req.IsCombat = false
	if got, want := NodeBudget(req), 20*8+100; got != want {
		t.Fatalf("non-combat budget = %d, want %d", got, want)
	}
}

func TestNodeBudgetHardCap(t *testing.T) {
	req := Request{StartX: 0, StartY: 0, GoalX: 5000, GoalY: 5000}
	if got := NodeBudget(req); got != maxNodesHardCap {
		t.Fatalf("expected hard cap %d, got %d", maxNodesHardCap, got)
	}
}

func TestSearchGoalExactMatch(t *testing.T) {
	req := Request{StartX: 5, StartY: 5, GoalX: 5, GoalY: 5, Mode: ModeExact}
	res := Search(req, openField(10, 10))
	if !res.Found {
		t.Fatalf("starting on the goal tile should immediately succeed")
	}
	if res.FirstStep != direction.None {
		t.Fatalf("expected no step needed, got %v", res.FirstStep)
	}
}
