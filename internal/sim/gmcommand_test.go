package sim

import (
	"context"
	"testing"

	"github.com/originrealm/worldserver/internal/admin"
	"github.com/originrealm/worldserver/internal/repo"
)

func TestRunGMCommandAppliesHPChangeAndReturnsReply(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	s.Ledger = admin.NewLedger(nil)

	id := activeChar(t, r)
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].HP.Total = 100
	})

	lines, err := s.RunGMCommand(context.Background(), int32(id), 1, ".hp 40")
	if err != nil {
		t.Fatalf("RunGMCommand: %v", err)
	}
	if len(lines) != 1 || lines[0] != "hp set to 40" {
		t.Fatalf("unexpected reply lines: %v", lines)
	}
	r.Characters(func(chars *[repo.MaxChars]repo.Character) {
		if chars[id].AHP != 40*1000 {
			t.Fatalf("expected AHP=40000 (40 HP in milli-units), got %d", chars[id].AHP)
		}
	})
}

func TestRunGMCommandRejectsInactiveCharacter(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	s.Ledger = admin.NewLedger(nil)

	if _, err := s.RunGMCommand(context.Background(), 999, 1, ".hp 40"); err == nil {
		t.Fatalf("expected error for out-of-range character id")
	}
}
