package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// StateDigest returns a canonical sha256 over the full grid state:
// every populated cell and owner, in sorted key order, with fixed-width
// big-endian field encoding. Two engines that processed the same move
// log must produce identical digests. This is the bit-identical
// replay check made executable.
func (e *Engine) StateDigest() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.digestLocked()
}

func (e *Engine) digestLocked() string {
	seen := make(map[Position]struct{})
	e.store.Range(func(p Position, _ Cell) bool {
		seen[p] = struct{}{}
		return true
	})
	e.store.RangeOwners(func(p Position, _ string) bool {
		seen[p] = struct{}{}
		return true
	})

	keys := make([]Position, 0, len(seen))
	for p := range seen {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	h := sha256.New()
	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeU32 := func(v uint32) {
		binary.BigEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}

	for _, p := range keys {
		c := e.store.Cell(p)
		owner := e.store.Owner(p)
		writeU64(uint64(p))
		writeU32(c.LastUpdate)
		writeU32(c.EpochAdded)
		writeU32(c.Life)
		writeU32(uint32(c.Delta))
		h.Write([]byte{byte(c.Color), c.EnemyMask})
		writeU32(uint32(len(owner)))
		h.Write([]byte(owner))
	}
	return hex.EncodeToString(h.Sum(nil))
}
