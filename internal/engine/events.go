package engine

import (
	"encoding/json"
	"time"
)

// EventType classifies log entries.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeBatchResolved
	EventTypeCellDeath
	EventTypeTransfer
	EventTypeInject
)

// EventVersion guards replay across schema changes.
const EventVersion uint8 = 1

// Event is one entry of the append-only resolution log. A
// BatchResolved entry carries everything an independent observer needs
// to re-run the batch; death and transfer entries are audit detail.
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix nano, informational only
	Sequence  uint64          `json:"sequence"`
	Epoch     uint32          `json:"epoch"`
	Player    string          `json:"player,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (t EventType) String() string {
	switch t {
	case EventTypeBatchResolved:
		return "batch_resolved"
	case EventTypeCellDeath:
		return "cell_death"
	case EventTypeTransfer:
		return "transfer"
	case EventTypeInject:
		return "inject"
	default:
		return "unknown"
	}
}

// MoveRecord is the logged form of one move.
type MoveRecord struct {
	X     int32  `json:"x"`
	Y     int32  `json:"y"`
	Color string `json:"color"`
}

// BatchResolvedPayload is logged once per committed batch. Digest is
// the canonical state digest immediately after the commit; a replayer
// must land on the same value bit for bit.
type BatchResolvedPayload struct {
	Player string      `json:"player"`
	Epoch  uint32      `json:"epoch"`
	Moves  []MoveRecord `json:"moves"`
	Result BatchResult `json:"result"`
	Digest string      `json:"digest"`
}

// CellDeathPayload records one cell death and its payout fan-out.
type CellDeathPayload struct {
	X          int32  `json:"x"`
	Y          int32  `json:"y"`
	Color      string `json:"color"`
	DeathEpoch uint32 `json:"deathEpoch"`
	Stake      uint64 `json:"stake"`
}

// TransferPayload records one settled external transfer.
type TransferPayload struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// InjectPayload records a debug bulk-load.
type InjectPayload struct {
	Cells int    `json:"cells"`
	Epoch uint32 `json:"epoch"`
}

// EncodePayload marshals a payload; nil on failure (payloads are plain
// structs, failure would be a programming error).
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent stamps an event with the current wall-clock time. The
// timestamp is diagnostic only and excluded from replay comparison.
func NewEvent(eventType EventType, epoch uint32, player string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Epoch:     epoch,
		Player:    player,
		Payload:   EncodePayload(payload),
	}
}
