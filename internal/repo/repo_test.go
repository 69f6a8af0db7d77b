package repo

import "testing"

func TestAllocCharacterFreeListReuse(t *testing.T) {
	r := New()
	id, err := r.AllocCharacter()
	if err != nil {
		t.Fatalf("AllocCharacter: %v", err)
	}
	if id == 0 {
		t.Fatalf("got sentinel id 0")
	}
	if err := r.FreeCharacter(id); err != nil {
		t.Fatalf("FreeCharacter: %v", err)
	}
	id2, err := r.AllocCharacter()
	if err != nil {
		t.Fatalf("AllocCharacter after free: %v", err)
	}
	if id2 != id {
		t.Fatalf("expected free-list reuse of id %d, got %d", id, id2)
	}
}

func TestAllocCharacterArenaFull(t *testing.T) {
	r := New()
	for i := 1; i < MaxChars; i++ {
		if _, err := r.AllocCharacter(); err != nil {
			t.Fatalf("unexpected error allocating char %d: %v", i, err)
		}
	}
	if _, err := r.AllocCharacter(); err != ErrArenaFull {
		t.Fatalf("expected ErrArenaFull, got %v", err)
	}
}

func TestPlaceCharacterSingleOccupant(t *testing.T) {
	r := New()
	a, _ := r.AllocCharacter()
	b, _ := r.AllocCharacter()
	if err := r.PlaceCharacter(a, 5, 5); err != nil {
		t.Fatalf("place a: %v", err)
	}
	if err := r.PlaceCharacter(b, 5, 5); err == nil {
		t.Fatalf("expected invariant breach placing b on occupied tile")
	}
	if err := r.PlaceCharacter(a, 6, 5); err != nil {
		t.Fatalf("move a off tile: %v", err)
	}
	if err := r.PlaceCharacter(b, 5, 5); err != nil {
		t.Fatalf("place b after a vacates: %v", err)
	}
}

func TestPlaceCharacterOutOfBounds(t *testing.T) {
	r := New()
	a, _ := r.AllocCharacter()
	if err := r.PlaceCharacter(a, -1, 0); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := r.PlaceCharacter(a, MapW, 0); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestGiveItemTransfersOwnership(t *testing.T) {
	r := New()
	owner, _ := r.AllocCharacter()
	it, _ := r.AllocItem()
	if err := r.DropItem(it, 3, 3); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if err := r.GiveItem(owner, it); err != nil {
		t.Fatalf("give: %v", err)
	}
	r.Items(func(items *[MaxItems]Item) {
		if items[it].Carried != owner {
			t.Fatalf("expected item carried by %d, got %d", owner, items[it].Carried)
		}
		if items[it].X != 0 || items[it].Y != 0 {
			t.Fatalf("expected ground position cleared on pickup")
		}
	})
	r.Characters(func(chs *[MaxChars]Character) {
		found := false
		for _, v := range chs[owner].Carried {
			if v == it {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected item in owner's carried slots")
		}
	})
}

func TestGiveItemReassignsFromPreviousOwner(t *testing.T) {
	r := New()
	a, _ := r.AllocCharacter()
	b, _ := r.AllocCharacter()
	it, _ := r.AllocItem()
	if err := r.GiveItem(a, it); err != nil {
		t.Fatalf("give a: %v", err)
	}
	if err := r.GiveItem(b, it); err != nil {
		t.Fatalf("give b: %v", err)
	}
	r.Characters(func(chs *[MaxChars]Character) {
		for _, v := range chs[a].Carried {
			if v == it {
				t.Fatalf("item still listed under previous owner %d", a)
			}
		}
	})
}

func TestCheckInvariantsCleanRepo(t *testing.T) {
	r := New()
	a, _ := r.AllocCharacter()
	if err := r.PlaceCharacter(a, 10, 10); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := r.CheckInvariants(); err != nil {
		t.Fatalf("expected clean repo, got %v", err)
	}
}

func TestSixTupleRecompute(t *testing.T) {
	s := SixTuple{Base: 10, Preset: 2, Dynamic: 20, Difficulty: 50, Max: 100}
	s.Recompute()
	// dyn = 20 * 50 / 100 = 10; total = 10 + 2 + 10 = 22
	if s.Total != 22 {
		t.Fatalf("expected total 22, got %d", s.Total)
	}
	s2 := SixTuple{Base: 90, Preset: 90, Dynamic: 90, Max: 100}
	s2.Recompute()
	if s2.Total != 100 {
		t.Fatalf("expected clamp to Max=100, got %d", s2.Total)
	}
}
