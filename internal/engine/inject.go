package engine

import "fmt"

// ForcedCell is one entry of a debug bulk-load: a token installed as
// if it had been placed in a previous epoch, skipping the normal
// placement rules.
type ForcedCell struct {
	X     int32  `json:"x"`
	Y     int32  `json:"y"`
	Color string `json:"color"`
	Life  uint32 `json:"life"`
	Owner string `json:"owner"`
}

// InjectCells installs a batch of cells at the given epoch and then
// recomputes delta and enemy mask for every injected cell and every
// live neighbor, so the loaded board satisfies the bidirectional
// enemy-marking invariant from the start. Test tooling only: the
// authorization capability supplied at construction gates it, and
// out-of-range life values are rejected before anything enters the
// store.
func (e *Engine) InjectCells(token string, epoch uint32, cells []ForcedCell) error {
	if e.authorize == nil || !e.authorize(token) {
		return ErrNotAuthorized
	}
	if epoch == 0 {
		return ErrEpochZero
	}

	type staged struct {
		pos   Position
		color Color
		life  uint32
		owner string
	}
	batch := make([]staged, len(cells))
	for i, fc := range cells {
		color, err := ParseColor(fc.Color)
		if err != nil {
			return fmt.Errorf("inject cell %d: %w", i, err)
		}
		if color == None {
			return fmt.Errorf("inject cell %d: %w", i, ErrBadColor)
		}
		if fc.Life == 0 || fc.Life > e.cfg.MaxLife {
			return fmt.Errorf("inject cell %d: life %d: %w", i, fc.Life, ErrLifeOutOfRange)
		}
		if onGridEdge(fc.X) || onGridEdge(fc.Y) {
			return fmt.Errorf("inject cell %d: %w", i, ErrPositionRange)
		}
		batch[i] = staged{pos: Pack(fc.X, fc.Y), color: color, life: fc.Life, owner: fc.Owner}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, st := range batch {
		e.store.SetCell(st.pos, Cell{
			LastUpdate: epoch,
			EpochAdded: epoch,
			Life:       st.life,
			Color:      st.color,
		})
		e.store.SetOwner(st.pos, st.owner)
	}

	// Recompute the injected cells and their live neighbors from the
	// final board, keeping A-marks-B-iff-B-marks-A intact.
	touched := make(map[Position]struct{})
	for _, st := range batch {
		touched[st.pos] = struct{}{}
		for _, np := range st.pos.Neighbors() {
			touched[np] = struct{}{}
		}
	}
	for p := range touched {
		e.recomputePressure(p)
	}

	e.eventLog.Emit(NewEvent(EventTypeInject, epoch, "", InjectPayload{
		Cells: len(cells),
		Epoch: epoch,
	}))
	return nil
}

// recomputePressure rebuilds one live cell's delta and enemy mask from
// its actual neighborhood.
func (e *Engine) recomputePressure(p Position) {
	cell := e.store.Cell(p)
	if !cell.Alive() {
		return
	}
	var delta int32
	var mask uint8
	for d := Direction(0); d < NumDirections; d++ {
		nc := e.store.Cell(p.Neighbor(d))
		if !nc.Alive() {
			continue
		}
		if nc.Color == cell.Color {
			delta++
		} else {
			delta--
			mask |= d.Bit()
		}
	}
	cell.Delta = delta
	cell.EnemyMask = mask
	e.store.SetCell(p, cell)
}

// SetCellRaw writes an arbitrary cell record and owner directly,
// bypassing every transition rule except the life bound. Test harness
// accessor for constructing adversarial fixtures.
func (e *Engine) SetCellRaw(token string, x, y int32, cell Cell, owner string) error {
	if e.authorize == nil || !e.authorize(token) {
		return ErrNotAuthorized
	}
	if cell.Life > e.cfg.MaxLife {
		return ErrLifeOutOfRange
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p := Pack(x, y)
	e.store.SetCell(p, cell)
	e.store.SetOwner(p, owner)
	return nil
}

// RawCell reads the stored cell record and owner without any epoch
// advancement.
func (e *Engine) RawCell(x, y int32) (Cell, string) {
	p := Pack(x, y)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Cell(p), e.store.Owner(p)
}
