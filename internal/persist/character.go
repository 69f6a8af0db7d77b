package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/originrealm/worldserver/internal/repo"
)

// CharacterStore reads and writes one fixed-layout file per character
// under a root directory (spec.md §6.3, "Character file per character").
type CharacterStore struct {
	dir string
}

func NewCharacterStore(dir string) *CharacterStore {
	return &CharacterStore{dir: dir}
}

func (s *CharacterStore) path(id repo.CharID) string {
	return filepath.Join(s.dir, fmt.Sprintf("char_%d.dat", id))
}

// Save writes ch as an idempotent snapshot, overwriting any prior file.
func (s *CharacterStore) Save(ch *repo.Character) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("persist: mkdir: %w", err)
	}
	buf := encodeCharacter(ch)

	tmp := s.path(ch.ID) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("persist: create: %w", err)
	}
	if err := writeChecksummed(f, buf); err != nil {
		f.Close()
		return fmt.Errorf("persist: write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("persist: close: %w", err)
	}
	return os.Rename(tmp, s.path(ch.ID))
}

// Load reads and validates a character's file. A missing file is
// reported via os.IsNotExist on the returned error, not wrapped.
func (s *CharacterStore) Load(id repo.CharID) (*repo.Character, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := readChecksummed(f, charRecordLen)
	if err != nil {
		return nil, fmt.Errorf("persist: load character %d: %w", id, err)
	}
	return decodeCharacter(buf), nil
}

// LoadAll loads every character file present under dir, for process
// startup (spec.md §6.3 "On startup, all files are fully loaded into
// Repository arenas").
func (s *CharacterStore) LoadAll() ([]*repo.Character, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: read dir: %w", err)
	}
	var out []*repo.Character
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".dat" {
			continue
		}
		f, err := os.Open(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("persist: open %s: %w", e.Name(), err)
		}
		buf, err := readChecksummed(f, charRecordLen)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("persist: load %s: %w", e.Name(), err)
		}
		out = append(out, decodeCharacter(buf))
	}
	return out, nil
}

func encodeCharacter(ch *repo.Character) []byte {
	buf := make([]byte, charRecordLen)
	off := 0
	off = putU8(buf, off, uint8(ch.Used))
	off = putI32(buf, off, int32(ch.ID))
	off = putBytes(buf, off, ch.Name[:])
	off = putI32(buf, off, int32(ch.Kindred))
	off = putI32(buf, off, ch.Align)

	for _, s := range []repo.SixTuple{ch.Str, ch.Dex, ch.Con, ch.Wis, ch.Intl, ch.Cha, ch.HP, ch.Endurance, ch.Mana} {
		off = putSixTuple(buf, off, s)
	}
	for i := range ch.Skill {
		off = putSixTuple(buf, off, ch.Skill[i])
	}

	off = putI32(buf, off, ch.AHP)
	off = putI32(buf, off, ch.AEnd)
	off = putI32(buf, off, ch.AMana)
	off = putI32(buf, off, ch.X)
	off = putI32(buf, off, ch.Y)
	off = putI32(buf, off, ch.ToX)
	off = putI32(buf, off, ch.ToY)
	off = putI32(buf, off, ch.FrX)
	off = putI32(buf, off, ch.FrY)
	off = putU8(buf, off, ch.Dir)
	off = putU8(buf, off, ch.Status)
	off = putU8(buf, off, ch.Status2)

	off = putI32(buf, off, int32(ch.Intent.AttackCn))
	off = putI32(buf, off, ch.Intent.SkillNr)
	off = putI32(buf, off, int32(ch.Intent.SkillTarget1))
	off = putI32(buf, off, int32(ch.Intent.SkillTarget2))
	off = putI32(buf, off, ch.Intent.GotoX)
	off = putI32(buf, off, ch.Intent.GotoY)
	off = putI32(buf, off, ch.Intent.UseNr)
	off = putI32(buf, off, ch.Intent.MiscAction)
	off = putI32(buf, off, int32(ch.Intent.MiscTarget1))
	off = putI32(buf, off, int32(ch.Intent.MiscTarget2))

	for _, id := range ch.Carried {
		off = putI32(buf, off, int32(id))
	}
	for _, id := range ch.Worn {
		off = putI32(buf, off, int32(id))
	}
	for _, id := range ch.Spells {
		off = putI32(buf, off, int32(id))
	}
	for _, id := range ch.Depot {
		off = putI32(buf, off, int32(id))
	}
	off = putI32(buf, off, int32(ch.CItem))

	off = putI64(buf, off, int64(ch.Flags))
	off = putI32(buf, off, ch.EscapeTimer)
	off = putI32(buf, off, ch.Stunned)
	off = putI32(buf, off, ch.Retry)
	off = putI32(buf, off, ch.Idle)
	off = putI64(buf, off, ch.LoginDate)
	off = putI64(buf, off, ch.LogoutDate)
	off = putI32(buf, off, ch.Light)
	off = putI32(buf, off, ch.Player)
	off = putI32(buf, off, ch.TemplateID)

	for _, v := range ch.Data {
		off = putI32(buf, off, v)
	}
	return buf
}

func decodeCharacter(buf []byte) *repo.Character {
	ch := &repo.Character{}
	off := 0
	var used uint8
	used, off = getU8(buf, off)
	ch.Used = repo.UseState(used)
	var id int32
	id, off = getI32(buf, off)
	ch.ID = repo.CharID(id)
	var name []byte
	name, off = getBytes(buf, off, 40)
	copy(ch.Name[:], name)
	var kin int32
	kin, off = getI32(buf, off)
	ch.Kindred = repo.Kindred(kin)
	ch.Align, off = getI32(buf, off)

	tuples := make([]*repo.SixTuple, 0, 9)
	tuples = append(tuples, &ch.Str, &ch.Dex, &ch.Con, &ch.Wis, &ch.Intl, &ch.Cha, &ch.HP, &ch.Endurance, &ch.Mana)
	for _, t := range tuples {
		*t, off = getSixTuple(buf, off)
	}
	for i := range ch.Skill {
		ch.Skill[i], off = getSixTuple(buf, off)
	}

	ch.AHP, off = getI32(buf, off)
	ch.AEnd, off = getI32(buf, off)
	ch.AMana, off = getI32(buf, off)
	ch.X, off = getI32(buf, off)
	ch.Y, off = getI32(buf, off)
	ch.ToX, off = getI32(buf, off)
	ch.ToY, off = getI32(buf, off)
	ch.FrX, off = getI32(buf, off)
	ch.FrY, off = getI32(buf, off)
	ch.Dir, off = getU8(buf, off)
	ch.Status, off = getU8(buf, off)
	ch.Status2, off = getU8(buf, off)

	var tmp int32
	tmp, off = getI32(buf, off)
	ch.Intent.AttackCn = repo.CharID(tmp)
	ch.Intent.SkillNr, off = getI32(buf, off)
	tmp, off = getI32(buf, off)
	ch.Intent.SkillTarget1 = repo.CharID(tmp)
	tmp, off = getI32(buf, off)
	ch.Intent.SkillTarget2 = repo.CharID(tmp)
	ch.Intent.GotoX, off = getI32(buf, off)
	ch.Intent.GotoY, off = getI32(buf, off)
	ch.Intent.UseNr, off = getI32(buf, off)
	ch.Intent.MiscAction, off = getI32(buf, off)
	tmp, off = getI32(buf, off)
	ch.Intent.MiscTarget1 = repo.CharID(tmp)
	tmp, off = getI32(buf, off)
	ch.Intent.MiscTarget2 = repo.CharID(tmp)

	for i := range ch.Carried {
		tmp, off = getI32(buf, off)
		ch.Carried[i] = repo.ItemID(tmp)
	}
	for i := range ch.Worn {
		tmp, off = getI32(buf, off)
		ch.Worn[i] = repo.ItemID(tmp)
	}
	for i := range ch.Spells {
		tmp, off = getI32(buf, off)
		ch.Spells[i] = repo.ItemID(tmp)
	}
	for i := range ch.Depot {
		tmp, off = getI32(buf, off)
		ch.Depot[i] = repo.ItemID(tmp)
	}
	tmp, off = getI32(buf, off)
	ch.CItem = repo.ItemID(tmp)

	var flags int64
	flags, off = getI64(buf, off)
	ch.Flags = repo.CharFlags(flags)
	ch.EscapeTimer, off = getI32(buf, off)
	ch.Stunned, off = getI32(buf, off)
	ch.Retry, off = getI32(buf, off)
	ch.Idle, off = getI32(buf, off)
	ch.LoginDate, off = getI64(buf, off)
	ch.LogoutDate, off = getI64(buf, off)
	ch.Light, off = getI32(buf, off)
	ch.Player, off = getI32(buf, off)
	ch.TemplateID, off = getI32(buf, off)

	for i := range ch.Data {
		ch.Data[i], off = getI32(buf, off)
	}
	return ch
}
