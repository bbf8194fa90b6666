package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// BatchEnvelope is the wire form of one player's move batch. Epoch 0
// means "resolve at the oracle's current epoch". Hash, when present,
// is the continuation hash the submitter committed to; it must match
// the canonical encoding of the moves or the batch is rejected before
// any state is touched.
type BatchEnvelope struct {
	Player string       `json:"player"`
	Epoch  uint32       `json:"epoch,omitempty"`
	Moves  []MoveRecord `json:"moves"`
	Hash   string       `json:"hash,omitempty"`
}

// DecodeBatch converts a verified envelope into engine moves. All
// validation that can fail happens here; the move processor trusts
// its input.
func DecodeBatch(env BatchEnvelope) ([]Move, error) {
	moves := make([]Move, len(env.Moves))
	for i, m := range env.Moves {
		color, err := ParseColor(m.Color)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}
		moves[i] = Move{Position: Pack(m.X, m.Y), Color: color}
	}
	if env.Hash != "" && BatchHash(moves) != env.Hash {
		return nil, ErrHashMismatch
	}
	return moves, nil
}

// BatchHash is the canonical continuation hash: hex sha256 over each
// move's x, y (big-endian int32) and color byte, in order.
func BatchHash(moves []Move) string {
	h := sha256.New()
	var buf [9]byte
	for _, mv := range moves {
		x, y := mv.Position.Unpack()
		binary.BigEndian.PutUint32(buf[0:4], uint32(x))
		binary.BigEndian.PutUint32(buf[4:8], uint32(y))
		buf[8] = byte(mv.Color)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
