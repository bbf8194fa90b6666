package engine

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

const (
	// EventBufferSize is the pending-event high-water mark: reaching it
	// forces a synchronous flush instead of dropping.
	EventBufferSize = 4096

	// BatchFlushInterval is how often the async writer drains.
	BatchFlushInterval = 100 * time.Millisecond
)

// EventLog appends resolution events as newline-delimited JSON. Writes
// are buffered and flushed by a background goroutine, but the log is
// LOSSLESS: replay reconstructs state from it, so a full buffer blocks
// the producer through a synchronous flush rather than dropping.
type EventLog struct {
	mu      sync.Mutex
	file    *os.File
	pending []Event
	seq     uint64
	running bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	totalCount   uint64
	flushedCount uint64
}

// NewEventLog creates a stopped log. Start opens the file and the
// writer.
func NewEventLog() *EventLog {
	return &EventLog{stopChan: make(chan struct{})}
}

// Start begins appending to filePath. An empty path leaves the log
// disabled; Emit then reports false and resolution proceeds unlogged.
func (el *EventLog) Start(filePath string) error {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.running || filePath == "" {
		return nil
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	el.file = file
	el.running = true
	el.wg.Add(1)
	go el.flushLoop()
	return nil
}

// Stop drains the buffer and closes the file. Safe to call more than
// once.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		close(el.stopChan)
		el.wg.Wait()

		el.mu.Lock()
		defer el.mu.Unlock()
		el.flushLocked()
		el.running = false
		if el.file != nil {
			el.file.Close()
			el.file = nil
		}
	})
}

// Emit appends one event, assigning it the next sequence number.
// Returns false when the log is not running.
func (el *EventLog) Emit(event Event) bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	if !el.running {
		return false
	}
	el.seq++
	event.Sequence = el.seq
	el.pending = append(el.pending, event)
	el.totalCount++
	if len(el.pending) >= EventBufferSize {
		el.flushLocked()
	}
	return true
}

func (el *EventLog) flushLoop() {
	defer el.wg.Done()
	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.mu.Lock()
			el.flushLocked()
			el.mu.Unlock()
		}
	}
}

func (el *EventLog) flushLocked() {
	if el.file == nil {
		el.pending = el.pending[:0]
		return
	}
	for _, event := range el.pending {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte{'\n'})
		el.flushedCount++
	}
	el.pending = el.pending[:0]
}

// GetStats returns log counters for monitoring.
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	defer el.mu.Unlock()
	return map[string]interface{}{
		"total":   el.totalCount,
		"flushed": el.flushedCount,
		"pending": len(el.pending),
		"running": el.running,
	}
}
