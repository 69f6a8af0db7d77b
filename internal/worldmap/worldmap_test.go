package worldmap

import (
	"testing"

	"github.com/originrealm/worldserver/internal/repo"
)

func newTiles() []repo.Tile {
	return make([]repo.Tile, repo.MapW*repo.MapH)
}

func TestLightRoundTrip(t *testing.T) {
	tiles := newTiles()
	cx, cy := int32(100), int32(100)

	before := make([]repo.Tile, len(tiles))
	copy(before, tiles)

	AddLight(tiles, cx, cy, 7)

	idx := repo.Index(cx, cy)
	if tiles[idx].Light != 7 {
		t.Fatalf("center light = %d, want 7", tiles[idx].Light)
	}
	near := repo.Index(cx+5, cy)
	if tiles[near].Light > 7 {
		t.Fatalf("near-tile light %d exceeds source strength 7", tiles[near].Light)
	}
	far := repo.Index(cx+repo.LightDist+1, cy)
	if tiles[far].Light != 0 {
		t.Fatalf("tile beyond LightDist+1 should be unlit, got %d", tiles[far].Light)
	}

	RemoveLight(tiles, cx, cy, 7)

	for i := range tiles {
		if tiles[i] != before[i] {
			t.Fatalf("tile %d not restored after add+remove: got %+v, want %+v", i, tiles[i], before[i])
		}
	}
}

func TestPassableRejectsMoveBlock(t *testing.T) {
	tiles := newTiles()
	idx := repo.Index(5, 5)
	tiles[idx].Flags |= repo.MfMoveBlock
	if Passable(tiles, 5, 5, Mover{}, false) {
		t.Fatalf("expected MF_MOVEBLOCK tile to be impassable")
	}
}

func TestPassableRejectsOccupiedTile(t *testing.T) {
	tiles := newTiles()
	tiles[repo.Index(5, 5)].Ch = 1
	if Passable(tiles, 5, 5, Mover{}, false) {
		t.Fatalf("expected occupied tile to be impassable")
	}
}

func TestPassableNoMonstBlocksNonUsurpMonster(t *testing.T) {
	tiles := newTiles()
	tiles[repo.Index(5, 5)].Flags |= repo.MfNoMonst
	if Passable(tiles, 5, 5, Mover{IsMonster: true}, false) {
		t.Fatalf("expected MF_NOMONST to block a plain monster")
	}
	if !Passable(tiles, 5, 5, Mover{IsMonster: true, IsUsurpLike: true}, false) {
		t.Fatalf("expected MF_NOMONST not to block a usurped monster body")
	}
	if !Passable(tiles, 5, 5, Mover{IsMonster: false}, false) {
		t.Fatalf("expected MF_NOMONST not to block a player")
	}
}

func TestPassableDeathTrapBlocksNonUsurp(t *testing.T) {
	tiles := newTiles()
	tiles[repo.Index(5, 5)].Flags |= repo.MfDeathTrap
	if Passable(tiles, 5, 5, Mover{}, false) {
		t.Fatalf("expected MF_DEATHTRAP to block a plain mover")
	}
	if !Passable(tiles, 5, 5, Mover{IsUsurpLike: true}, false) {
		t.Fatalf("expected MF_DEATHTRAP not to block a usurp/player-like mover")
	}
}

func TestPassableOutOfBounds(t *testing.T) {
	tiles := newTiles()
	if Passable(tiles, -1, 0, Mover{}, false) {
		t.Fatalf("expected out-of-bounds tile to be impassable")
	}
}

func TestItemBlocksDriverException(t *testing.T) {
	it := &repo.Item{Used: repo.UseActive, Flags: repo.IfMoveBlock}
	if !ItemBlocks(it, 0) {
		t.Fatalf("expected IF_MOVEBLOCK item to block driver class 0")
	}
	if ItemBlocks(it, 2) {
		t.Fatalf("expected driver class 2 to be exempt from IF_MOVEBLOCK")
	}
	if ItemBlocks(nil, 0) {
		t.Fatalf("nil item should never block")
	}
}
