package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/originrealm/worldserver/internal/repo"
)

// ItemStore reads and writes one fixed-layout file per item instance
// (spec.md §6.3, "Item file (fixed-layout records per item instance)").
type ItemStore struct {
	dir string
}

func NewItemStore(dir string) *ItemStore {
	return &ItemStore{dir: dir}
}

func (s *ItemStore) path(id repo.ItemID) string {
	return filepath.Join(s.dir, fmt.Sprintf("item_%d.dat", id))
}

func (s *ItemStore) Save(it *repo.Item) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("persist: mkdir: %w", err)
	}
	buf := encodeItem(it)

	tmp := s.path(it.ID) + ".tmp"
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
	return os.Rename(tmp, s.path(it.ID))
}

func (s *ItemStore) Load(id repo.ItemID) (*repo.Item, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := readChecksummed(f, itemRecordLen)
	if err != nil {
		return nil, fmt.Errorf("persist: load item %d: %w", id, err)
	}
	return decodeItem(buf), nil
}

func (s *ItemStore) LoadAll() ([]*repo.Item, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: read dir: %w", err)
	}
	var out []*repo.Item
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".dat" {
			continue
		}
		f, err := os.Open(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("persist: open %s: %w", e.Name(), err)
		}
		buf, err := readChecksummed(f, itemRecordLen)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("persist: load %s: %w", e.Name(), err)
		}
		out = append(out, decodeItem(buf))
	}
	return out, nil
}

func encodeItem(it *repo.Item) []byte {
	buf := make([]byte, itemRecordLen)
	off := 0
	off = putU8(buf, off, uint8(it.Used))
	off = putI32(buf, off, int32(it.ID))
	off = putI32(buf, off, it.TemplateID)
	off = putI32(buf, off, it.GfxInactive)
	off = putI32(buf, off, it.GfxActive)
	off = putI32(buf, off, int32(it.Placement))
	off = putI32(buf, off, int32(it.Flags))

	off = putI32(buf, off, it.Str.Total)
	off = putI32(buf, off, it.Dex.Total)
	off = putI32(buf, off, it.Con.Total)
	off = putI32(buf, off, it.Wis.Total)
	off = putI32(buf, off, it.Intl.Total)
	off = putI32(buf, off, it.Cha.Total)

	off = putI32(buf, off, int32(it.Carried))
	off = putI32(buf, off, it.X)
	off = putI32(buf, off, it.Y)
	off = putI32(buf, off, it.AgeInactive)
	off = putI32(buf, off, it.AgeInactiveMax)
	off = putI32(buf, off, it.AgeActive)
	off = putI32(buf, off, it.AgeActiveMax)
	off = putI32(buf, off, it.Damage)
	off = putI32(buf, off, it.Light)
	off = putI32(buf, off, it.Count)
	return buf
}

func decodeItem(buf []byte) *repo.Item {
	it := &repo.Item{}
	off := 0
	var used uint8
	used, off = getU8(buf, off)
	it.Used = repo.UseState(used)
	var tmp int32
	tmp, off = getI32(buf, off)
	it.ID = repo.ItemID(tmp)
	it.TemplateID, off = getI32(buf, off)
	it.GfxInactive, off = getI32(buf, off)
	it.GfxActive, off = getI32(buf, off)
	tmp, off = getI32(buf, off)
	it.Placement = repo.ItemPlacement(tmp)
	tmp, off = getI32(buf, off)
	it.Flags = repo.ItemFlags(tmp)

	it.Str.Total, off = getI32(buf, off)
	it.Dex.Total, off = getI32(buf, off)
	it.Con.Total, off = getI32(buf, off)
	it.Wis.Total, off = getI32(buf, off)
	it.Intl.Total, off = getI32(buf, off)
	it.Cha.Total, off = getI32(buf, off)

	tmp, off = getI32(buf, off)
	it.Carried = repo.CharID(tmp)
	it.X, off = getI32(buf, off)
	it.Y, off = getI32(buf, off)
	it.AgeInactive, off = getI32(buf, off)
	it.AgeInactiveMax, off = getI32(buf, off)
	it.AgeActive, off = getI32(buf, off)
	it.AgeActiveMax, off = getI32(buf, off)
	it.Damage, off = getI32(buf, off)
	it.Light, off = getI32(buf, off)
	it.Count, off = getI32(buf, off)
	return it
}
