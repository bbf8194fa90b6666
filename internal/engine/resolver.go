package engine

import (
	"fmt"
	"math"
	"sync"
)

// Config tunes the engine's fixed rules. Both sides of a replay must
// run identical values; they are part of the determinism contract.
type Config struct {
	// MaxLife is the life saturation bound.
	MaxLife uint32

	// StakePerGem is the value, in ledger units, locked behind every
	// placed token and redistributed on death.
	StakePerGem uint64

	// MaxMovesPerBatch bounds a single resolution call.
	MaxMovesPerBatch int
}

// DefaultConfig returns the production rule set.
func DefaultConfig() Config {
	return Config{
		MaxLife:          7,
		StakePerGem:      1_000_000,
		MaxMovesPerBatch: 64,
	}
}

// EpochOracle reports the current epoch and whether the commit phase
// is active. The engine never computes wall-clock time itself.
type EpochOracle interface {
	CurrentEpoch() (epoch uint32, isCommitPhase bool)
}

// Options wires the engine's collaborators at construction.
type Options struct {
	Config Config

	// Sink receives settled transfers. Required.
	Sink TransferSink

	// Oracle supplies the epoch for ResolveCurrent. Optional; batches
	// resolved with an explicit epoch never consult it.
	Oracle EpochOracle

	// Authorize guards the debug state-injection surface. Nil means
	// injection is disabled entirely.
	Authorize func(token string) bool
}

// Engine is the deterministic resolution core: an unbounded sparse
// grid of cells plus the move processor operating on it. Execution is
// strictly sequential per batch; the mutex only serializes whole
// batches and reads against each other, there is no internal
// parallelism.
type Engine struct {
	mu    sync.RWMutex
	cfg   Config
	store *Store
	sink  TransferSink

	oracle    EpochOracle
	authorize func(token string) bool

	eventLog *EventLog

	// Stats, guarded by mu.
	batches   uint64
	moves     uint64
	deaths    uint64
	transfers uint64
}

// New creates an engine. Panics if no sink is supplied: a resolution
// core with nowhere to settle value is a wiring bug, not a runtime
// condition.
func New(opts Options) *Engine {
	if opts.Sink == nil {
		panic("engine: nil TransferSink")
	}
	cfg := opts.Config
	if cfg.MaxLife == 0 || cfg.StakePerGem == 0 || cfg.MaxMovesPerBatch == 0 {
		def := DefaultConfig()
		if cfg.MaxLife == 0 {
			cfg.MaxLife = def.MaxLife
		}
		if cfg.StakePerGem == 0 {
			cfg.StakePerGem = def.StakePerGem
		}
		if cfg.MaxMovesPerBatch == 0 {
			cfg.MaxMovesPerBatch = def.MaxMovesPerBatch
		}
	}
	return &Engine{
		cfg:       cfg,
		store:     NewStore(),
		sink:      opts.Sink,
		oracle:    opts.Oracle,
		authorize: opts.Authorize,
		eventLog:  NewEventLog(),
	}
}

// Config returns the active rule set.
func (e *Engine) Config() Config { return e.cfg }

// Move is one {position, color} instruction. Color None is a leave
// move.
type Move struct {
	Position Position
	Color    Color
}

// BatchResult accounts for every gem staked on a batch: each move
// carries exactly one, and it ends up placed on the board, burnt, or
// returned to the player.
type BatchResult struct {
	TokensPlaced   uint64 `json:"tokensPlaced"`
	TokensBurnt    uint64 `json:"tokensBurnt"`
	TokensReturned uint64 `json:"tokensReturned"`
	Deaths         uint64 `json:"deaths"`
}

// resolution carries the in-flight state of one ResolveBatch call.
// Everything here is discarded on rollback.
type resolution struct {
	player    string
	epoch     uint32
	result    BatchResult
	transfers *transferList
	deaths    []CellDeathPayload
}

// ResolveCurrent resolves a batch at the oracle's current epoch,
// rejecting it while the commit phase is open.
func (e *Engine) ResolveCurrent(player string, moves []Move) (BatchResult, error) {
	if e.oracle == nil {
		return BatchResult{}, fmt.Errorf("engine: no epoch oracle configured")
	}
	epoch, commit := e.oracle.CurrentEpoch()
	if commit {
		return BatchResult{}, ErrCommitPhase
	}
	return e.ResolveBatch(player, epoch, moves)
}

// ResolveBatch applies one player's moves, in order, at the given
// epoch. Later moves observe earlier mutations (same-epoch collision
// detection depends on this). All death payouts pool into a single
// coalesced transfer list settled once at the end. On error the store
// is rolled back and nothing is settled: batches are all-or-nothing.
func (e *Engine) ResolveBatch(player string, epoch uint32, moves []Move) (BatchResult, error) {
	if player == "" {
		return BatchResult{}, ErrEmptyPlayer
	}
	if epoch == 0 {
		return BatchResult{}, ErrEpochZero
	}
	if len(moves) == 0 {
		return BatchResult{}, nil
	}
	if len(moves) > e.cfg.MaxMovesPerBatch {
		return BatchResult{}, fmt.Errorf("%w: %d > %d", ErrTooManyMoves, len(moves), e.cfg.MaxMovesPerBatch)
	}
	for i, mv := range moves {
		if !mv.Color.Valid() {
			return BatchResult{}, fmt.Errorf("move %d: %w", i, ErrBadColor)
		}
		x, y := mv.Position.Unpack()
		if onGridEdge(x) || onGridEdge(y) {
			// Neighbor arithmetic would wrap past int32; the state
			// would no longer be trustworthy.
			return BatchResult{}, fmt.Errorf("move %d at %v: %w", i, mv.Position, ErrPositionRange)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rx := &resolution{
		player:    player,
		epoch:     epoch,
		transfers: newTransferList(NumDirections * len(moves)),
	}

	e.store.Begin()
	for i, mv := range moves {
		if err := e.applyMove(rx, mv); err != nil {
			e.store.Rollback()
			return BatchResult{}, fmt.Errorf("move %d at %v: %w", i, mv.Position, err)
		}
	}

	var settled []TransferPayload
	err := rx.transfers.settle(e.sink, func(recipient string, amount uint64) {
		settled = append(settled, TransferPayload{Recipient: recipient, Amount: amount})
	})
	if err != nil {
		e.store.Rollback()
		return BatchResult{}, err
	}
	e.store.Commit()

	e.batches++
	e.moves += uint64(len(moves))
	e.deaths += rx.result.Deaths
	e.transfers += uint64(len(settled))

	e.emitBatchEvents(rx, moves, settled)
	return rx.result, nil
}

// emitBatchEvents logs a committed batch: deaths and transfers first
// (audit detail), then the batch_resolved entry that replay consumes.
func (e *Engine) emitBatchEvents(rx *resolution, moves []Move, settled []TransferPayload) {
	for _, d := range rx.deaths {
		e.eventLog.Emit(NewEvent(EventTypeCellDeath, rx.epoch, rx.player, d))
	}
	for _, tp := range settled {
		e.eventLog.Emit(NewEvent(EventTypeTransfer, rx.epoch, rx.player, tp))
	}

	records := make([]MoveRecord, len(moves))
	for i, mv := range moves {
		x, y := mv.Position.Unpack()
		records[i] = MoveRecord{X: x, Y: y, Color: mv.Color.String()}
	}
	e.eventLog.Emit(NewEvent(EventTypeBatchResolved, rx.epoch, rx.player, BatchResolvedPayload{
		Player: rx.player,
		Epoch:  rx.epoch,
		Moves:  records,
		Result: rx.result,
		Digest: e.digestLocked(),
	}))
}

// applyMove is the per-move state transition. The branch order is
// fixed: leave, same-epoch collision, fresh placement, invalid.
func (e *Engine) applyMove(rx *resolution, mv Move) error {
	pos := mv.Position
	cell := e.store.Cell(pos)

	// Bring the cell current. A death observed here is committed
	// immediately, before the move logic runs against the corpse.
	life, used := ComputeNewLife(cell.LastUpdate, cell.Delta, cell.EnemyMask, cell.Life, rx.epoch, e.cfg.MaxLife)
	if life > e.cfg.MaxLife {
		return ErrLifeOutOfRange
	}
	if cell.Life > 0 && life == 0 {
		if err := e.killCell(rx, pos, cell, used); err != nil {
			return err
		}
		cell = e.store.Cell(pos)
	} else if cell.Alive() {
		cell.Life = life
	}

	switch {
	case mv.Color == None:
		return e.applyLeave(rx, pos, cell)

	case cell.EpochAdded == rx.epoch:
		return e.applyCollision(rx, pos, cell)

	case cell.Life == 0 && canPlaceOn(cell, mv.Color, rx.epoch):
		return e.applyPlacement(rx, pos, cell, mv.Color)

	default:
		// Occupied by a live token: the stake is burnt, not returned.
		rx.result.TokensBurnt++
		if cell.Life == 0 {
			// Transitionally dead but not placeable: bookkeeping only.
			e.store.SetOwner(pos, "")
		}
		return nil
	}
}

// canPlaceOn decides fresh-placement eligibility for a cell already
// known to be at zero life: virgin ground, a dead enemy gem, or a cell
// vacated in an earlier epoch. Re-entering a cell vacated this same
// epoch is blocked (the leave stamped LastUpdate), as is re-placing on
// one's own dead color.
func canPlaceOn(cell Cell, color Color, epoch uint32) bool {
	switch {
	case cell.LastUpdate == 0:
		return true
	case cell.Color != None:
		return cell.Color != color
	default:
		return cell.LastUpdate < epoch
	}
}

// applyLeave withdraws a fully matured gem. Valid only when the caller
// owns the cell and its life sits at the maximum; anything else is a
// no-op that hands the attached stake back.
func (e *Engine) applyLeave(rx *resolution, pos Position, cell Cell) error {
	owner := e.store.Owner(pos)
	if !cell.Alive() || cell.Life != e.cfg.MaxLife || owner != rx.player {
		rx.result.TokensReturned++
		return nil
	}

	oldColor := cell.Color
	// LastUpdate keeps the leave epoch to block same-epoch re-entry.
	e.store.SetCell(pos, Cell{LastUpdate: rx.epoch})
	e.store.SetOwner(pos, "")

	if err := e.propagate(rx, pos, oldColor, None); err != nil {
		return err
	}

	rx.result.TokensReturned++
	// The boarded gem's value leaves through settlement, like a payout.
	return rx.transfers.add(rx.player, e.cfg.StakePerGem)
}

// applyCollision handles a second token landing on a cell already
// claimed this same epoch by an earlier move. The earlier placer is
// refunded through settlement, the later stake is returned directly,
// and the cell ends the epoch empty.
func (e *Engine) applyCollision(rx *resolution, pos Position, cell Cell) error {
	prevOwner := e.store.Owner(pos)

	if cell.Alive() {
		oldColor := cell.Color
		e.store.SetCell(pos, Cell{LastUpdate: rx.epoch})
		e.store.SetOwner(pos, "")
		if err := e.propagate(rx, pos, oldColor, None); err != nil {
			return err
		}
		if err := rx.transfers.add(prevOwner, e.cfg.StakePerGem); err != nil {
			return err
		}
	} else {
		// Already dead within its own placement epoch; its stake was
		// distributed when the death was committed.
		e.store.SetOwner(pos, "")
	}

	rx.result.TokensReturned++
	return nil
}

// applyPlacement charges the stake and installs the token with one
// life point. The new cell starts with delta 0 and an empty enemy
// mask; the neighborhood is announced but not read back (the consistent
// recomputation exists only on the forced-injection path).
func (e *Engine) applyPlacement(rx *resolution, pos Position, cell Cell, color Color) error {
	oldColor := cell.Color
	e.store.SetCell(pos, Cell{
		LastUpdate: rx.epoch,
		EpochAdded: rx.epoch,
		Life:       1,
		Color:      color,
	})
	e.store.SetOwner(pos, rx.player)
	rx.result.TokensPlaced++

	if oldColor != color {
		return e.propagate(rx, pos, oldColor, color)
	}
	return nil
}

// propagate announces a color change at pos to all four neighbors. The
// direction passed to each neighbor is the one pointing from that
// neighbor back toward pos.
func (e *Engine) propagate(rx *resolution, pos Position, oldColor, newColor Color) error {
	for d := Direction(0); d < NumDirections; d++ {
		if _, err := e.applyNeighborUpdate(rx, pos.Neighbor(d), oldColor, newColor, d.Opposite()); err != nil {
			return err
		}
	}
	return nil
}

// killCell commits a death observed at deathEpoch and queues the stake
// distribution. The stale color and enemy mask stay in place: the
// fresh-placement rule and payout routing both read them.
func (e *Engine) killCell(rx *resolution, pos Position, cell Cell, deathEpoch uint32) error {
	mask := cell.EnemyMask
	cell.Life = 0
	cell.Delta = 0
	cell.LastUpdate = deathEpoch
	e.store.SetCell(pos, cell)

	rx.result.Deaths++
	x, y := pos.Unpack()
	rx.deaths = append(rx.deaths, CellDeathPayload{
		X:          x,
		Y:          y,
		Color:      cell.Color.String(),
		DeathEpoch: deathEpoch,
		Stake:      e.cfg.StakePerGem,
	})
	return e.distributeDeath(rx, pos, mask, deathEpoch)
}

// onGridEdge reports a coordinate whose neighbor arithmetic would wrap.
func onGridEdge(v int32) bool {
	return v == math.MinInt32 || v == math.MaxInt32
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Batches   uint64 `json:"batches"`
	Moves     uint64 `json:"moves"`
	Deaths    uint64 `json:"deaths"`
	Transfers uint64 `json:"transfers"`
	LiveCells int    `json:"liveCells"`
}

// Stats returns cumulative resolution counters plus the live cell
// count.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	live := 0
	e.store.Range(func(_ Position, c Cell) bool {
		if c.Alive() {
			live++
		}
		return true
	})
	return Stats{
		Batches:   e.batches,
		Moves:     e.moves,
		Deaths:    e.deaths,
		Transfers: e.transfers,
		LiveCells: live,
	}
}

// StartEventLog begins appending resolution events to filePath.
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and stops the event log.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLogStats exposes log counters for monitoring.
func (e *Engine) EventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}
