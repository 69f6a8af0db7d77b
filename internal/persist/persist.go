// Package persist implements the flat-file storage layout of spec.md
// §6.3: one fixed-layout record per character, one per item, a global
// counters file, and a flat row-major map tile file. Grounded on the
// teacher's internal/persist package for the repo-over-a-store shape
// (Load/Save pairs, one type per entity kind) but rebuilt against
// encoding/binary fixed records instead of pgx/SQL rows, since spec.md
// is explicit these are files, not a database — the teacher's own SQL
// persistence layer has no work left to do here (see DESIGN.md).
package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/originrealm/worldserver/internal/repo"
)

// ErrCorruptPersistence is spec.md §7's "Corrupt persistence" error kind:
// file size mismatch or checksum failure. Callers must fail startup, not
// attempt a partial load.
var ErrCorruptPersistence = errors.New("persist: corrupt file")

// charRecordLen is a conservative fixed width wide enough for a Character
// record (the largest fixed-layout entity): name, flags, six-tuples,
// position, intent, inventory arrays, and the 100-word driver scratch
// area. Chosen once, up front, because spec.md requires fixed-layout
// records, not length-prefixed ones.
const charRecordLen = 3072
const itemRecordLen = 128
const tileRecordLen = 24

// writeChecksummed writes payload followed by its xxhash64 checksum.
func writeChecksummed(w io.Writer, payload []byte) error {
	if _, err := w.Write(payload); err != nil {
		return err
	}
	sum := xxhash.Sum64(payload)
	var sumBuf [8]byte
	binary.LittleEndian.PutUint64(sumBuf[:], sum)
	_, err := w.Write(sumBuf[:])
	return err
}

// readChecksummed reads exactly payloadLen bytes plus an 8-byte trailing
// checksum, verifying the checksum before returning the payload.
func readChecksummed(r io.Reader, payloadLen int) ([]byte, error) {
	buf := make([]byte, payloadLen+8)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: short read: %v", ErrCorruptPersistence, err)
		}
		return nil, err
	}
	payload := buf[:payloadLen]
	want := binary.LittleEndian.Uint64(buf[payloadLen:])
	got := xxhash.Sum64(payload)
	if got != want {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptPersistence)
	}
	return payload, nil
}

func putBytes(buf []byte, off int, b []byte) int {
	copy(buf[off:], b)
	return off + len(b)
}

func putI32(buf []byte, off int, v int32) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	return off + 4
}

func putU8(buf []byte, off int, v uint8) int {
	buf[off] = v
	return off + 1
}

func putI64(buf []byte, off int, v int64) int {
	binary.LittleEndian.PutUint64(buf[off:], uint64(v))
	return off + 8
}

func getBytes(buf []byte, off, n int) ([]byte, int) {
	return buf[off : off+n], off + n
}

func getI32(buf []byte, off int) (int32, int) {
	return int32(binary.LittleEndian.Uint32(buf[off:])), off + 4
}

func getU8(buf []byte, off int) (uint8, int) {
	return buf[off], off + 1
}

func getI64(buf []byte, off int) (int64, int) {
	return int64(binary.LittleEndian.Uint64(buf[off:])), off + 8
}

func putSixTuple(buf []byte, off int, s repo.SixTuple) int {
	off = putI32(buf, off, s.Base)
	off = putI32(buf, off, s.Preset)
	off = putI32(buf, off, s.Max)
	off = putI32(buf, off, s.Difficulty)
	off = putI32(buf, off, s.Dynamic)
	off = putI32(buf, off, s.Total)
	return off
}

func getSixTuple(buf []byte, off int) (repo.SixTuple, int) {
	var s repo.SixTuple
	s.Base, off = getI32(buf, off)
	s.Preset, off = getI32(buf, off)
	s.Max, off = getI32(buf, off)
	s.Difficulty, off = getI32(buf, off)
	s.Dynamic, off = getI32(buf, off)
	s.Total, off = getI32(buf, off)
	return s, off
}
