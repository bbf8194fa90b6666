package engine

import "sort"

// CellView is the read-only query form of one populated cell.
type CellView struct {
	X          int32  `json:"x"`
	Y          int32  `json:"y"`
	Color      string `json:"color"`
	Life       uint32 `json:"life"`
	Delta      int32  `json:"delta"`
	EnemyMask  uint8  `json:"enemyMask"`
	LastUpdate uint32 `json:"lastUpdate"`
	EpochAdded uint32 `json:"epochAdded"`
	Owner      string `json:"owner,omitempty"`
}

// BoardSnapshot is a consistent copy of one rectangular window of the
// grid, taken under the read lock. Cells are sorted by (y, x) so the
// output is deterministic.
type BoardSnapshot struct {
	Cells     []CellView `json:"cells"`
	LiveCells int        `json:"liveCells"`
}

// SnapshotRect copies every populated cell with x0<=x<=x1, y0<=y<=y1.
// Bounds are normalized, so callers can pass corners in any order.
func (e *Engine) SnapshotRect(x0, y0, x1, y1 int32) BoardSnapshot {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var snap BoardSnapshot
	e.store.Range(func(p Position, c Cell) bool {
		x, y := p.Unpack()
		if x < x0 || x > x1 || y < y0 || y > y1 {
			return true
		}
		snap.Cells = append(snap.Cells, e.viewLocked(p, c))
		if c.Alive() {
			snap.LiveCells++
		}
		return true
	})

	sort.Slice(snap.Cells, func(i, j int) bool {
		if snap.Cells[i].Y != snap.Cells[j].Y {
			return snap.Cells[i].Y < snap.Cells[j].Y
		}
		return snap.Cells[i].X < snap.Cells[j].X
	})
	return snap
}

// CellAt reads a single cell. Unpopulated positions read as an empty
// view with the coordinates filled in.
func (e *Engine) CellAt(x, y int32) CellView {
	p := Pack(x, y)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.viewLocked(p, e.store.Cell(p))
}

func (e *Engine) viewLocked(p Position, c Cell) CellView {
	x, y := p.Unpack()
	return CellView{
		X:          x,
		Y:          y,
		Color:      c.Color.String(),
		Life:       c.Life,
		Delta:      c.Delta,
		EnemyMask:  c.EnemyMask,
		LastUpdate: c.LastUpdate,
		EpochAdded: c.EpochAdded,
		Owner:      e.store.Owner(p),
	}
}
