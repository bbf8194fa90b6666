// Package epoch derives discrete game epochs from wall-clock time.
// The resolution core consumes this only through the Oracle shape; it
// never reads the clock itself.
package epoch

import "time"

// Clock maps wall-clock time onto epochs: a fixed genesis instant, a
// fixed epoch duration, and a leading fraction of each epoch reserved
// for move commitments. Resolution is only open outside that window.
//
// Epochs are numbered from 1; the core reserves 0 for "never".
type Clock struct {
	genesis        time.Time
	epochDuration  time.Duration
	commitFraction float64

	// now is swappable for tests.
	now func() time.Time
}

// NewClock creates a clock. commitFraction is clamped to [0, 1);
// epochDuration must be positive.
func NewClock(genesis time.Time, epochDuration time.Duration, commitFraction float64) *Clock {
	if epochDuration <= 0 {
		epochDuration = time.Minute
	}
	if commitFraction < 0 || commitFraction >= 1 {
		commitFraction = 0.5
	}
	return &Clock{
		genesis:        genesis,
		epochDuration:  epochDuration,
		commitFraction: commitFraction,
		now:            time.Now,
	}
}

// CurrentEpoch returns the running epoch and whether the commit phase
// is still open within it. Before genesis the clock reports epoch 1,
// commit phase open.
func (c *Clock) CurrentEpoch() (uint32, bool) {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 1, true
	}
	n := uint64(elapsed / c.epochDuration)
	into := elapsed - time.Duration(n)*c.epochDuration
	commit := into < time.Duration(float64(c.epochDuration)*c.commitFraction)
	return uint32(n) + 1, commit
}

// Fixed is an Oracle pinned to one epoch. Tests and replay tooling use
// it to take wall-clock time out of the picture.
type Fixed struct {
	Epoch  uint32
	Commit bool
}

// CurrentEpoch returns the pinned values.
func (f Fixed) CurrentEpoch() (uint32, bool) { return f.Epoch, f.Commit }
