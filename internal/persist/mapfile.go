package persist

import (
	"fmt"
	"os"

	"github.com/originrealm/worldserver/internal/repo"
)

// MapStore persists the flat row-major tile array (spec.md §6.3, "Map
// tile file (flat row-major array of the tile record)"). Unlike
// character/item files there is exactly one of these per world, and a
// single top-level checksum covers the whole array rather than one per
// tile, since the file is always read/written in one pass at startup and
// shutdown.
type MapStore struct {
	path string
}

func NewMapStore(path string) *MapStore {
	return &MapStore{path: path}
}

func (s *MapStore) Save(tiles []repo.Tile) error {
	if len(tiles) != repo.MapW*repo.MapH {
		return fmt.Errorf("persist: save map: got %d tiles, want %d", len(tiles), repo.MapW*repo.MapH)
	}
	buf := make([]byte, len(tiles)*tileRecordLen)
	for i, t := range tiles {
		off := i * tileRecordLen
		off = putI32(buf, off, t.Background)
		off = putI32(buf, off, t.Foreground)
		off = putI32(buf, off, int32(t.Flags))
		off = putI32(buf, off, int32(t.Ch))
		off = putI32(buf, off, int32(t.ToCh))
		off = putI32(buf, off, int32(t.It))
	}

	tmp := s.path + ".tmp"
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
	return os.Rename(tmp, s.path)
}

// Load returns a freshly zeroed MapW x MapH grid if no map file exists
// yet (new world). Light/DLight are intentionally not persisted: they
// are a derived runtime accumulator (internal/worldmap), rebuilt from
// light sources at startup, not stored state.
func (s *MapStore) Load() ([]repo.Tile, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make([]repo.Tile, repo.MapW*repo.MapH), nil
		}
		return nil, err
	}
	defer f.Close()

	want := repo.MapW * repo.MapH * tileRecordLen
	buf, err := readChecksummed(f, want)
	if err != nil {
		return nil, fmt.Errorf("persist: load map: %w", err)
	}

	tiles := make([]repo.Tile, repo.MapW*repo.MapH)
	for i := range tiles {
		off := i * tileRecordLen
		tiles[i].Background, off = getI32(buf, off)
		tiles[i].Foreground, off = getI32(buf, off)
		var flags int32
		flags, off = getI32(buf, off)
		tiles[i].Flags = repo.MapFlags(flags)
		var ch int32
		ch, off = getI32(buf, off)
		tiles[i].Ch = repo.CharID(ch)
		var toCh int32
		toCh, off = getI32(buf, off)
		tiles[i].ToCh = repo.CharID(toCh)
		var it int32
		it, _ = getI32(buf, off)
		tiles[i].It = repo.ItemID(it)
	}
	return tiles, nil
}
