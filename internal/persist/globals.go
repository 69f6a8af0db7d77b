package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/originrealm/worldserver/internal/repo"
)

const globalsRecordLen = 32

// GlobalsStore persists the global counters file (spec.md §6.3).
type GlobalsStore struct {
	path string
}

func NewGlobalsStore(dir string) *GlobalsStore {
	return &GlobalsStore{path: filepath.Join(dir, "globals.dat")}
}

func (s *GlobalsStore) Save(g repo.Globals) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("persist: mkdir: %w", err)
	}
	buf := make([]byte, globalsRecordLen)
	off := 0
	off = putI64(buf, off, int64(g.Ticker))
	off = putI32(buf, off, int32(g.HourCounter))
	off = putI32(buf, off, g.NextItemObjID)
	off = putI32(buf, off, g.MaxOnline)
	off = putI64(buf, off, int64(g.OnlineTicks))

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

// Load returns zero-value Globals if no globals file exists yet (fresh
// world), since that's a valid startup state, not corruption.
func (s *GlobalsStore) Load() (repo.Globals, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return repo.Globals{}, nil
		}
		return repo.Globals{}, err
	}
	defer f.Close()

	buf, err := readChecksummed(f, globalsRecordLen)
	if err != nil {
		return repo.Globals{}, fmt.Errorf("persist: load globals: %w", err)
	}

	var g repo.Globals
	off := 0
	var ticker int64
	ticker, off = getI64(buf, off)
	g.Ticker = uint64(ticker)
	var hour int32
	hour, off = getI32(buf, off)
	g.HourCounter = uint32(hour)
	g.NextItemObjID, off = getI32(buf, off)
	g.MaxOnline, off = getI32(buf, off)
	var online int64
	online, off = getI64(buf, off)
	g.OnlineTicks = uint64(online)
	return g, nil
}
