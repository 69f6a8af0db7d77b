package visibility

import (
	"testing"

	"github.com/originrealm/worldserver/internal/repo"
)

func TestRecomputeCenterAlwaysVisible(t *testing.T) {
	var m SeeMap
	Recompute(&m, 100, 100, func(x, y int32) bool { return false })
	if !m.IsVisible(100, 100) {
		t.Fatalf("center tile must always be visible")
	}
}

func TestRecomputeOpenFieldSeesNeighbors(t *testing.T) {
	var m SeeMap
	Recompute(&m, 100, 100, func(x, y int32) bool { return false })
	if !m.IsVisible(102, 100) {
		t.Fatalf("expected nearby tile in an open field to be visible")
	}
}

func TestRecomputeWallBlocksBehind(t *testing.T) {
	var m SeeMap
	blocked := func(x, y int32) bool {
		return x == 105 && y == 100
	}
	Recompute(&m, 100, 100, blocked)
	if m.IsVisible(110, 100) {
		t.Fatalf("expected tile directly behind a sight-blocking wall to be hidden")
	}
}

func TestCanSeeRequiresVisibilityAndLight(t *testing.T) {
	var m SeeMap
	Recompute(&m, 100, 100, func(x, y int32) bool { return false })
	tiles := make([]repo.Tile, repo.MapW*repo.MapH)
	tiles[repo.Index(102, 100)].Light = 3

	var stats Stats
	if !CanSee(&m, tiles, 102, 100, 2, &stats) {
		t.Fatalf("expected visible, sufficiently lit tile to be seen")
	}
	if stats.Hits() != 1 {
		t.Fatalf("expected one cache hit, got %d", stats.Hits())
	}
	if CanSee(&m, tiles, 102, 100, 10, &stats) {
		t.Fatalf("expected insufficiently lit tile to be unseen")
	}
	if CanSee(&m, tiles, 999, 999, 0, &stats) {
		t.Fatalf("expected out-of-window tile to be unseen")
	}
	if stats.Misses() != 1 {
		t.Fatalf("expected one cache miss for the out-of-window tile, got %d", stats.Misses())
	}
}
