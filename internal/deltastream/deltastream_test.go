package deltastream

import (
	"testing"

	"github.com/originrealm/worldserver/internal/repo"
	"github.com/originrealm/worldserver/internal/wire/packet"
)

func renderFromTiles(tiles []repo.Tile, idx int) Projection {
	t := tiles[idx]
	p := Projection{Background: uint16(t.Background), Flags1: uint32(t.Flags)}
	if t.It != 0 {
		p.HasItem = true
		p.ItemSprite = uint16(t.It)
	}
	if t.Ch != 0 {
		p.HasChar = true
		p.CharSprite = uint16(t.Ch)
		p.CharID = uint16(t.Ch)
	}
	return p
}

func newTiles() []repo.Tile {
	return make([]repo.Tile, repo.MapW*repo.MapH)
}

func TestComputeFirstTickEmitsWholeViewport(t *testing.T) {
	tiles := newTiles()
	tiles[repo.Index(500, 500)].Background = 7

	sh := NewShadow()
	data := sh.Compute(tiles, 500, 500, renderFromTiles)
	if len(data) == 0 {
		t.Fatalf("expected a non-empty SetMap stream on first tick")
	}
	deltas, err := packet.DecodeSetMap(data)
	if err != nil {
		t.Fatalf("DecodeSetMap: %v", err)
	}
	if len(deltas) != WindowSize*WindowSize {
		t.Fatalf("got %d deltas, want %d (whole window)", len(deltas), WindowSize*WindowSize)
	}
}

func TestComputeStaticAreaEmitsNothingOnSecondTick(t *testing.T) {
	tiles := newTiles()
	sh := NewShadow()
	sh.Compute(tiles, 500, 500, renderFromTiles)

	data := sh.Compute(tiles, 500, 500, renderFromTiles)
	if len(data) != 0 {
		t.Fatalf("expected zero bytes for an unchanged viewport, got %d", len(data))
	}
}

func TestComputeOnlyChangedTileIsEmitted(t *testing.T) {
	tiles := newTiles()
	sh := NewShadow()
	sh.Compute(tiles, 500, 500, renderFromTiles)

	tiles[repo.Index(501, 500)].Background = 42
	data := sh.Compute(tiles, 500, 500, renderFromTiles)

	deltas, err := packet.DecodeSetMap(data)
	if err != nil {
		t.Fatalf("DecodeSetMap: %v", err)
	}
	if len(deltas) != 1 {
		t.Fatalf("got %d deltas, want 1", len(deltas))
	}
	if deltas[0].Index != repo.Index(501, 500) {
		t.Fatalf("delta index = %d, want %d", deltas[0].Index, repo.Index(501, 500))
	}
	if deltas[0].Fields&packet.FieldBackground == 0 || deltas[0].Background != 42 {
		t.Fatalf("expected background delta 42, got %+v", deltas[0])
	}
}

func TestComputeMovingOneTileEastOnlyDiffsEdges(t *testing.T) {
	tiles := newTiles()
	for i := range tiles {
		tiles[i].Background = 1
	}
	sh := NewShadow()
	sh.Compute(tiles, 500, 500, renderFromTiles)

	data := sh.Compute(tiles, 501, 500, renderFromTiles)
	deltas, err := packet.DecodeSetMap(data)
	if err != nil {
		t.Fatalf("DecodeSetMap: %v", err)
	}
	// Every background tile is identical (all 1), so a pure recenter
	// with no real content change should carry over the retained column
	// and only the newly entered column (which the shadow had zeroed)
	// should register as changed.
	if len(deltas) != WindowSize {
		t.Fatalf("got %d deltas, want %d (one new column)", len(deltas), WindowSize)
	}
}

func TestBuildLightRunsGroupsContiguousChanges(t *testing.T) {
	base := repo.Index(500, 500)
	changes := []LightChange{
		{Index: base, Light: 10},
		{Index: base + 1, Light: 11},
		{Index: base + 2, Light: 9},
		{Index: base + 10, Light: 5}, // not contiguous: starts a new run
	}
	runs := BuildLightRuns(changes)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].StartIndex != base || len(runs[0].Deltas) != 3 {
		t.Fatalf("unexpected first run: %+v", runs[0])
	}
	if runs[1].StartIndex != base+10 || len(runs[1].Deltas) != 1 {
		t.Fatalf("unexpected second run: %+v", runs[1])
	}
}

func TestBuildLightRunsSplitsOnWindowBoundary(t *testing.T) {
	changes := []LightChange{
		{Index: lightWindow - 1, Light: 4},
		{Index: lightWindow, Light: 4},
	}
	runs := BuildLightRuns(changes)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2 (window boundary must split)", len(runs))
	}
}

func TestLightRunRoundTripsThroughWireEncoding(t *testing.T) {
	run := packet.LightRun{StartIndex: 100, Base: 8, Deltas: []int8{-2, 0, 3, -8, 7}}
	data := packet.EncodeLightRun(run)
	got, err := packet.DecodeLightRun(data, len(run.Deltas))
	if err != nil {
		t.Fatalf("DecodeLightRun: %v", err)
	}
	if got.StartIndex != run.StartIndex&0x7FF || got.Base != run.Base {
		t.Fatalf("header mismatch: %+v", got)
	}
	for i, d := range run.Deltas {
		if got.Deltas[i] != d {
			t.Fatalf("delta[%d] = %d, want %d", i, got.Deltas[i], d)
		}
	}
}
