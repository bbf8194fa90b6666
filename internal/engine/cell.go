package engine

// Cell is the per-position record. The zero value is an unpopulated
// cell: positions are implicitly created on first read and never
// deleted. Death zeroes Life and Delta but keeps the stale Color and
// EnemyMask, which the fresh-placement rule and payout routing read.
type Cell struct {
	// LastUpdate is the epoch at which Life and Delta were last brought
	// current. 0 means the cell was never initialized.
	LastUpdate uint32

	// EpochAdded is the epoch the current token was placed. Same-epoch
	// collision detection compares it against the resolving epoch.
	EpochAdded uint32

	// Life is the remaining health, in [0, MaxLife].
	Life uint32

	// Delta is the signed per-epoch life change: friends minus enemies
	// among the four neighbors, as of LastUpdate.
	Delta int32

	// Color is the occupying token's color, None if empty.
	Color Color

	// EnemyMask has Direction.Bit set for each cardinal neighbor that
	// was an enemy as of LastUpdate.
	EnemyMask uint8
}

// Alive reports whether the cell holds a live token.
func (c Cell) Alive() bool { return c.Color != None && c.Life > 0 }

// Zero reports whether the cell is indistinguishable from an
// unpopulated position.
func (c Cell) Zero() bool { return c == Cell{} }
