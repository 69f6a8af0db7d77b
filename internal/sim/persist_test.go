package sim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/originrealm/worldserver/internal/persist"
	"github.com/originrealm/worldserver/internal/repo"
)

func TestPersistSavesPlayerCharactersRoundRobin(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	dir := t.TempDir()
	s.CharStore = persist.NewCharacterStore(dir)
	s.GlobalsStore = persist.NewGlobalsStore(dir)
	ps := NewPersistSystem(s)

	id := activeChar(t, r)
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Flags |= repo.CfPlayer
		chars[id].SetName("roundrobin")
	})

	ps.Update(time.Millisecond)

	saved, err := s.CharStore.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.NameString() != "roundrobin" {
		t.Fatalf("expected saved character name preserved, got %q", saved.NameString())
	}
}

func TestPersistSkipsNonPlayerCharacters(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	dir := t.TempDir()
	s.CharStore = persist.NewCharacterStore(dir)
	s.GlobalsStore = persist.NewGlobalsStore(dir)
	ps := NewPersistSystem(s)

	id := activeChar(t, r)
	r.CharactersMut(func(chars *[repo.MaxChars]repo.Character) {
		chars[id].Flags &^= repo.CfPlayer
	})

	ps.Update(time.Millisecond)

	if _, err := os.Stat(filepath.Join(dir, "char_"+itoa(int32(id))+".dat")); err == nil {
		t.Fatalf("expected non-player NPC body to be skipped by the save sweep")
	}
}

func TestPersistSavesGlobalsOnCadence(t *testing.T) {
	r := repo.New()
	s := newTestSim(r)
	dir := t.TempDir()
	s.CharStore = persist.NewCharacterStore(dir)
	s.GlobalsStore = persist.NewGlobalsStore(dir)
	ps := NewPersistSystem(s)

	r.GlobalsMut(func(g *repo.Globals) {
		g.Ticker = persistBatch * 3
		g.MaxOnline = 7
	})

	ps.Update(time.Millisecond)

	loaded, err := s.GlobalsStore.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MaxOnline != 7 {
		t.Fatalf("expected globals saved on a persistBatch-aligned tick, got MaxOnline=%d", loaded.MaxOnline)
	}
}
