package combat

import (
	"math/rand"
	"testing"

	"github.com/originrealm/worldserver/internal/repo"
)

func TestResolveAttackKillsWhenHPDepleted(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	attacker := Combatant{WeaponSkill: 80, WeaponDamage: 1000, AttackAttr: 50}
	defender := Combatant{DefenseSkill: 0, DefenseAttr: 0, ArmorValue: 0}
	ahp := int32(500)
	out := ResolveAttack(attacker, defender, &ahp, rng)
	if !out.Hit {
		t.Fatalf("expected a hit with overwhelming attacker stats")
	}
	if !out.Killed || ahp != 0 {
		t.Fatalf("expected defender killed and ahp clamped to 0, got killed=%v ahp=%d", out.Killed, ahp)
	}
}

func TestResolveAttackMissesWeakAttacker(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	attacker := Combatant{WeaponSkill: 0, WeaponDamage: 10}
	defender := Combatant{DefenseSkill: 200, DefenseAttr: 200}
	ahp := int32(100000)
	misses := 0
	for i := 0; i < 50; i++ {
		out := ResolveAttack(attacker, defender, &ahp, rng)
		if !out.Hit {
			misses++
		}
	}
	if misses == 0 {
		t.Fatalf("expected at least one miss against a vastly superior defender over 50 swings")
	}
}

func TestCastSkillRejectsInsufficientMana(t *testing.T) {
	res := CastSkill(50, 10, 1)
	if res.Cast {
		t.Fatalf("expected cast to fail with insufficient mana")
	}
}

func TestCastSkillSpendsProportionalMana(t *testing.T) {
	res := CastSkill(50, 10, 1000)
	if !res.Cast {
		t.Fatalf("expected cast to succeed")
	}
	if res.ManaSpent != 50 {
		t.Fatalf("expected mana cost 50 (50*10/10), got %d", res.ManaSpent)
	}
}

func TestExpireStatusesClearsAgedOutSlot(t *testing.T) {
	var spells [repo.SpellSize]repo.ItemID
	var items [repo.MaxItems]repo.Item
	spells[0] = 5
	items[5] = repo.Item{Used: repo.UseActive, AgeActive: 9, AgeActiveMax: 10}

	expired := ExpireStatuses(&spells, &items)
	if len(expired) != 1 || expired[0] != 5 {
		t.Fatalf("expected item 5 to expire, got %v", expired)
	}
	if spells[0] != 0 {
		t.Fatalf("expected spell slot cleared after expiry")
	}
}

func TestIsLabRestricted(t *testing.T) {
	zones := []LabZone{{MapID: 4, X0: 10, Y0: 10, X1: 20, Y1: 20}}
	if !IsLabRestricted(zones, 4, 15, 15) {
		t.Fatalf("expected point inside zone to be restricted")
	}
	if IsLabRestricted(zones, 4, 25, 25) {
		t.Fatalf("expected point outside zone to be unrestricted")
	}
	if IsLabRestricted(zones, 5, 15, 15) {
		t.Fatalf("expected zone to be map-specific")
	}
}
