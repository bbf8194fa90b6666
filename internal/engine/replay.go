package engine

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Replayer is the independent-observer side of the determinism
// contract: it reconstructs state from a JSONL resolution log on a
// fresh engine and checks every batch digest bit for bit.
type Replayer struct {
	engine *Engine
	ledger *MemoryLedger
}

// NewReplayer creates a replayer with a fresh engine and in-memory
// ledger. cfg must match the values the log was produced with.
func NewReplayer(cfg Config) *Replayer {
	ledger := NewMemoryLedger()
	return &Replayer{
		engine: New(Options{Config: cfg, Sink: ledger}),
		ledger: ledger,
	}
}

// Engine exposes the reconstructed engine for inspection.
func (r *Replayer) Engine() *Engine { return r.engine }

// Ledger exposes the reconstructed balances.
func (r *Replayer) Ledger() *MemoryLedger { return r.ledger }

// ReplayMismatch records one batch whose replayed outcome diverged
// from the log.
type ReplayMismatch struct {
	Sequence uint64 `json:"sequence"`
	Player   string `json:"player"`
	Epoch    uint32 `json:"epoch"`
	Want     string `json:"want"`
	Got      string `json:"got"`
}

// ReplayResult summarizes one replay run.
type ReplayResult struct {
	Batches    int              `json:"batches"`
	Moves      int              `json:"moves"`
	Digest     string           `json:"digest"`
	Mismatches []ReplayMismatch `json:"mismatches,omitempty"`
}

// Clean reports whether every batch replayed to its logged digest.
func (r *ReplayResult) Clean() bool { return len(r.Mismatches) == 0 }

// ReplayFile replays the log at path.
func (r *Replayer) ReplayFile(path string) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Replay(f)
}

// Replay re-applies every batch_resolved entry in order. Audit entries
// (deaths, transfers, injects) are skipped: they are consequences the
// replay re-derives. A batch that fails to apply is a hard error; a
// digest divergence is recorded and the replay continues, so one bad
// batch surfaces every downstream divergence it causes.
func (r *Replayer) Replay(src io.Reader) (*ReplayResult, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	res := &ReplayResult{}
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("replay: bad log line: %w", err)
		}
		if ev.Type != EventTypeBatchResolved {
			continue
		}
		var pl BatchResolvedPayload
		if err := json.Unmarshal(ev.Payload, &pl); err != nil {
			return nil, fmt.Errorf("replay: bad batch payload at seq %d: %w", ev.Sequence, err)
		}

		moves, err := DecodeBatch(BatchEnvelope{Moves: pl.Moves})
		if err != nil {
			return nil, fmt.Errorf("replay: batch at seq %d: %w", ev.Sequence, err)
		}
		result, err := r.engine.ResolveBatch(pl.Player, pl.Epoch, moves)
		if err != nil {
			return nil, fmt.Errorf("replay: batch at seq %d: %w", ev.Sequence, err)
		}

		res.Batches++
		res.Moves += len(moves)

		digest := r.engine.StateDigest()
		if digest != pl.Digest || result != pl.Result {
			res.Mismatches = append(res.Mismatches, ReplayMismatch{
				Sequence: ev.Sequence,
				Player:   pl.Player,
				Epoch:    pl.Epoch,
				Want:     pl.Digest,
				Got:      digest,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	res.Digest = r.engine.StateDigest()
	return res, nil
}
