package digestcodec

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// Entry is one entity position as it enters a digest.
type Entry struct {
	ID uint32
	X  float32
	Y  float32
}

// TickDigest hashes a full position mapping for one tick. Entries are sorted
// by ID first, so callers may pass them in map iteration order.
func TickDigest(tick uint64, entries []Entry) string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], tick)
	h.Write(tmp[:])
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(sorted)))
	h.Write(tmp[:])
	for _, e := range sorted {
		binary.LittleEndian.PutUint32(tmp[:4], e.ID)
		h.Write(tmp[:4])
		binary.LittleEndian.PutUint32(tmp[:4], math.Float32bits(e.X))
		h.Write(tmp[:4])
		binary.LittleEndian.PutUint32(tmp[:4], math.Float32bits(e.Y))
		h.Write(tmp[:4])
	}
	return hex.EncodeToString(h.Sum(nil))
}
