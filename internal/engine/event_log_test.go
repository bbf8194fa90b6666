package engine

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEventLogDisabled(t *testing.T) {
	el := NewEventLog()
	if el.Emit(NewEvent(EventTypeTransfer, 1, "alice", TransferPayload{Recipient: "a", Amount: 1})) {
		t.Error("stopped log accepted an event")
	}
	if err := el.Start(""); err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if el.Emit(NewEvent(EventTypeTransfer, 1, "alice", nil)) {
		t.Error("disabled log accepted an event")
	}
}

func TestEventLogWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		ok := el.Emit(NewEvent(EventTypeCellDeath, uint32(i+1), "alice", CellDeathPayload{
			X: int32(i), Y: 0, Color: "blue", DeathEpoch: uint32(i + 1), Stake: 100,
		}))
		if !ok {
			t.Fatalf("Emit %d rejected", i)
		}
	}
	el.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var seq uint64
	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		lines++
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line %d: %v", lines, err)
		}
		if ev.Version != EventVersion {
			t.Errorf("line %d version = %d", lines, ev.Version)
		}
		if ev.Type != EventTypeCellDeath {
			t.Errorf("line %d type = %v", lines, ev.Type)
		}
		if ev.Sequence != seq+1 {
			t.Errorf("line %d sequence = %d, want %d", lines, ev.Sequence, seq+1)
		}
		seq = ev.Sequence
	}
	if lines != 3 {
		t.Fatalf("flushed %d lines, want 3", lines)
	}

	stats := el.GetStats()
	if stats["total"].(uint64) != 3 || stats["flushed"].(uint64) != 3 {
		t.Errorf("stats = %v", stats)
	}
}

func TestEventLogStopIdempotent(t *testing.T) {
	el := NewEventLog()
	if err := el.Start(filepath.Join(t.TempDir(), "x.jsonl")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	el.Stop()
	el.Stop()
}
