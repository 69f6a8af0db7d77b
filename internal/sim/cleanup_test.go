package sim

import (
	"testing"
	"time"

	"github.com/originrealm/worldserver/internal/repo"
)

func TestCleanupExpiresEffect(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCleanupSystem(s)

	r.EffectsMut(func(fx []repo.Effect) {
		fx[1] = repo.Effect{Used: true, Kind: 1, Expiry: r.Tick()}
	})

	cs.Update(time.Millisecond)

	r.Effects(func(fx []repo.Effect) {
		if fx[1].Used {
			t.Fatalf("expected expired effect to be cleared")
		}
	})
}

func TestCleanupKeepsEffectNotYetExpired(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCleanupSystem(s)

	r.EffectsMut(func(fx []repo.Effect) {
		fx[1] = repo.Effect{Used: true, Kind: 1, Expiry: r.Tick() + 1000}
	})

	cs.Update(time.Millisecond)

	r.Effects(func(fx []repo.Effect) {
		if !fx[1].Used {
			t.Fatalf("expected not-yet-expired effect to remain")
		}
	})
}

func TestCleanupExpiresWornSpellItem(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCleanupSystem(s)

	id := activeChar(t, r)
	itemID, err := r.AllocItem()
	if err != nil {
		t.Fatalf("AllocItem: %v", err)
	}
	r.ItemsMut(func(items *[repo.MaxItems]repo.Item) {
		items[itemID].Used = repo.UseActive
		items[itemID].AgeActive = 5
		items[itemID].AgeActiveMax = 5
	})
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Spells[0] = itemID
	})

	cs.Update(time.Millisecond)

	r.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].Spells[0] != 0 {
			t.Fatalf("expected expired spell slot cleared, got %d", chars[id].Spells[0])
		}
	})
	r.Items(func(items *[repo.MaxItems]repo.Item) {
		if items[itemID].Used != repo.UseEmpty {
			t.Fatalf("expected expired spell item freed back to pool")
		}
	})
}

func TestCleanupKeepsWornSpellItemNotYetExpired(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCleanupSystem(s)

	id := activeChar(t, r)
	itemID, err := r.AllocItem()
	if err != nil {
		t.Fatalf("AllocItem: %v", err)
	}
	r.ItemsMut(func(items *[repo.MaxItems]repo.Item) {
		items[itemID].Used = repo.UseActive
		items[itemID].AgeActive = 1
		items[itemID].AgeActiveMax = 5
	})
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Spells[0] = itemID
	})

	cs.Update(time.Millisecond)

	r.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].Spells[0] != itemID {
			t.Fatalf("expected not-yet-expired spell slot to remain set")
		}
	})
}

func TestCleanupReclaimsStaleLoggedOutBody(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCleanupSystem(s)

	id := activeChar(t, r)
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Used = repo.UseNonActive
		chars[id].Idle = nonActiveExpiryTicks + 1
	})

	cs.Update(time.Millisecond)

	r.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].Used != repo.UseEmpty {
			t.Fatalf("expected stale logged-out body freed back to pool, Used=%v", chars[id].Used)
		}
	})
}

func TestCleanupKeepsFreshLoggedOutBody(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	cs := NewCleanupSystem(s)

	id := activeChar(t, r)
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Used = repo.UseNonActive
		chars[id].Idle = 0
	})

	cs.Update(time.Millisecond)

	r.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].Used != repo.UseNonActive {
			t.Fatalf("expected fresh logged-out body to stay reserved, Used=%v", chars[id].Used)
		}
	})
}
