package direction

import "testing"

func TestFromDelta(t *testing.T) {
	cases := []struct {
		dx, dy int32
		want   Direction
	}{
		{0, 0, None},
		{1, 0, Right},
		{-1, 0, Left},
		{0, 1, Down},
		{0, -1, Up},
		{1, 1, RightDown},
		{-1, -1, LeftUp},
		{5, 0, Right},
		{-3, -3, LeftUp},
	}
	for _, c := range cases {
		if got := FromDelta(c.dx, c.dy); got != c.want {
			t.Errorf("FromDelta(%d,%d) = %v, want %v", c.dx, c.dy, got, c.want)
		}
	}
}

func TestTurnCountSameDirection(t *testing.T) {
	for _, d := range All {
		if TurnCount(d, d) != 0 {
			t.Errorf("TurnCount(%v, %v) should be 0", d, d)
		}
	}
}

func TestTurnCountFromNone(t *testing.T) {
	for _, d := range All {
		if TurnCount(None, d) != 0 {
			t.Errorf("TurnCount(None, %v) should be 0, first step has no prior facing", d)
		}
	}
}

func TestTurnCountOpposite(t *testing.T) {
	pairs := []struct{ a, b Direction }{
		{Up, Down}, {Left, Right}, {LeftUp, RightDown}, {LeftDown, RightUp},
	}
	for _, p := range pairs {
		if got := TurnCount(p.a, p.b); got != 4 {
			t.Errorf("TurnCount(%v, %v) = %d, want 4 (opposite)", p.a, p.b, got)
		}
	}
}

func TestTurnCountAdjacent(t *testing.T) {
	if got := TurnCount(Up, RightUp); got != 1 {
		t.Errorf("TurnCount(Up, RightUp) = %d, want 1", got)
	}
	if got := TurnCount(Up, LeftUp); got != 1 {
		t.Errorf("TurnCount(Up, LeftUp) = %d, want 1", got)
	}
}

func TestStepCost(t *testing.T) {
	if Up.StepCost() != 2 {
		t.Errorf("orthogonal step cost should be 2")
	}
	if LeftUp.StepCost() != 3 {
		t.Errorf("diagonal step cost should be 3")
	}
}
