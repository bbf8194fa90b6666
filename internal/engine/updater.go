package engine

// friendSignal is the updater's report back to the caller: +1 the
// updated cell matches the new color, -1 it differs, 0 it is empty.
func friendSignal(cellColor, newColor Color) int32 {
	switch {
	case cellColor == None:
		return 0
	case cellColor == newColor:
		return 1
	default:
		return -1
	}
}

// applyNeighborUpdate lands a color change from an adjacent cell onto
// the cell at pos. oldColor -> newColor is the transition at the
// acting cell; dir points from pos toward the acting cell, so dir.Bit
// is the enemy-mask bit being maintained here.
//
// Empty and dead cells are never mutated; the friend/enemy signal is
// still computed for the caller's bookkeeping. A live cell is first
// advanced to the resolving epoch; if that advance kills it, the
// death is committed (with its distribution queued) and the update
// lands on nothing.
func (e *Engine) applyNeighborUpdate(rx *resolution, pos Position, oldColor, newColor Color, dir Direction) (int32, error) {
	cell := e.store.Cell(pos)
	if cell.Color == None {
		return 0, nil
	}
	if cell.Life == 0 {
		return friendSignal(cell.Color, newColor), nil
	}

	life, used := ComputeNewLife(cell.LastUpdate, cell.Delta, cell.EnemyMask, cell.Life, rx.epoch, e.cfg.MaxLife)
	if life > e.cfg.MaxLife {
		return 0, ErrLifeOutOfRange
	}
	if life == 0 {
		// Time alone killed it before this update could land.
		if err := e.killCell(rx, pos, cell, used); err != nil {
			return 0, err
		}
		return friendSignal(cell.Color, newColor), nil
	}
	cell.Life = life

	switch {
	case newColor == None:
		// The neighbor left or was cleared.
		if cell.Color == oldColor {
			cell.Delta-- // lost a friend
		} else {
			cell.Delta++
			// Reverts a spurious enemy flag from a same-epoch collision.
			cell.EnemyMask &^= dir.Bit()
		}

	case cell.Color == oldColor:
		// A friend flipped to an enemy.
		cell.Delta -= 2
		cell.EnemyMask |= dir.Bit()

	case cell.Color == newColor:
		// Gained a friend; +2 when it replaces an enemy.
		if oldColor == None {
			cell.Delta++
		} else {
			cell.Delta += 2
		}
		cell.EnemyMask &^= dir.Bit()

	case oldColor == None:
		// A new enemy arrived on empty ground.
		cell.Delta--
		cell.EnemyMask |= dir.Bit()

	default:
		// Enemy replaced by a different enemy: pressure unchanged, the
		// bit stays set.
		cell.EnemyMask |= dir.Bit()
	}

	cell.LastUpdate = rx.epoch
	e.store.SetCell(pos, cell)
	return friendSignal(cell.Color, newColor), nil
}
