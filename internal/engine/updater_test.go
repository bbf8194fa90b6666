package engine

import "testing"

func rawDelta(t *testing.T, e *Engine, x, y int32) (int32, uint8) {
	t.Helper()
	cell, _ := e.RawCell(x, y)
	return cell.Delta, cell.EnemyMask
}

func TestNeighborFriendArrival(t *testing.T) {
	eng, _ := newTestEngine(t)

	mustResolve(t, eng, "alice", 1, []Move{{Pack(0, 0), Blue}})
	mustResolve(t, eng, "bob", 2, []Move{{Pack(1, 0), Blue}})

	delta, mask := rawDelta(t, eng, 0, 0)
	if delta != 1 || mask != 0 {
		t.Errorf("after friend arrival: delta=%d mask=%d, want 1, 0", delta, mask)
	}
}

func TestNeighborEnemyArrival(t *testing.T) {
	eng, _ := newTestEngine(t)

	mustResolve(t, eng, "alice", 1, []Move{{Pack(0, 0), Blue}})
	mustResolve(t, eng, "bob", 2, []Move{{Pack(0, 1), Red}}) // below

	delta, mask := rawDelta(t, eng, 0, 0)
	if delta != -1 || mask != DirDown.Bit() {
		t.Errorf("after enemy arrival: delta=%d mask=%d, want -1, %d", delta, mask, DirDown.Bit())
	}
}

// A friend's corpse being claimed by an enemy color swings pressure by
// two: the friend is gone and an enemy stands in its place.
func TestNeighborFriendBecomesEnemy(t *testing.T) {
	eng, _ := newTestEngine(t)

	if err := eng.SetCellRaw(testToken, 0, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Life: 3, Color: Blue,
	}, "alice"); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}
	// Dead blue corpse to the right.
	if err := eng.SetCellRaw(testToken, 1, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Color: Blue,
	}, ""); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}

	mustResolve(t, eng, "bob", 2, []Move{{Pack(1, 0), Red}})

	delta, mask := rawDelta(t, eng, 0, 0)
	if delta != -2 || mask != DirRight.Bit() {
		t.Errorf("friend->enemy: delta=%d mask=%d, want -2, %d", delta, mask, DirRight.Bit())
	}
}

// An enemy corpse claimed by a different enemy color leaves pressure
// untouched: still one enemy in that direction.
func TestNeighborEnemyReplacedByDifferentEnemy(t *testing.T) {
	eng, _ := newTestEngine(t)

	if err := eng.SetCellRaw(testToken, 0, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Life: 3, Delta: -1, Color: Blue, EnemyMask: DirRight.Bit(),
	}, "alice"); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}
	// Dead red corpse to the right.
	if err := eng.SetCellRaw(testToken, 1, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Color: Red,
	}, ""); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}

	mustResolve(t, eng, "bob", 2, []Move{{Pack(1, 0), Green}})

	cell, _ := eng.RawCell(0, 0)
	if cell.Delta != -1 || cell.EnemyMask != DirRight.Bit() {
		t.Errorf("enemy->enemy: delta=%d mask=%d, want -1, %d", cell.Delta, cell.EnemyMask, DirRight.Bit())
	}
	// One epoch of -1 pressure was consumed by the advance.
	if cell.Life != 2 || cell.LastUpdate != 2 {
		t.Errorf("advance: life=%d lastUpdate=%d, want 2, 2", cell.Life, cell.LastUpdate)
	}
}

// An enemy leaving releases its pressure and clears the mask bit.
func TestNeighborEnemyDeparture(t *testing.T) {
	eng, _ := newTestEngine(t)
	maxLife := eng.Config().MaxLife

	if err := eng.SetCellRaw(testToken, 0, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Life: 3, Delta: -1, Color: Blue, EnemyMask: DirRight.Bit(),
	}, "alice"); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}
	// Matured red gem to the right, isolated enough to hold its life.
	if err := eng.SetCellRaw(testToken, 1, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Life: maxLife, Color: Red,
	}, "bob"); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}

	mustResolve(t, eng, "bob", 2, []Move{{Pack(1, 0), None}})

	cell, _ := eng.RawCell(0, 0)
	if cell.Delta != 0 || cell.EnemyMask != 0 {
		t.Errorf("enemy departure: delta=%d mask=%d, want 0, 0", cell.Delta, cell.EnemyMask)
	}
	if cell.Life != 2 {
		t.Errorf("life = %d, want 2 (one decay epoch before release)", cell.Life)
	}
}

// A friend leaving just drops the friendly pressure.
func TestNeighborFriendDeparture(t *testing.T) {
	eng, _ := newTestEngine(t)
	maxLife := eng.Config().MaxLife

	if err := eng.SetCellRaw(testToken, 0, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Life: 3, Delta: 1, Color: Blue,
	}, "alice"); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}
	if err := eng.SetCellRaw(testToken, 1, 0, Cell{
		LastUpdate: 1, EpochAdded: 1, Life: maxLife, Color: Blue,
	}, "bob"); err != nil {
		t.Fatalf("SetCellRaw: %v", err)
	}

	mustResolve(t, eng, "bob", 2, []Move{{Pack(1, 0), None}})

	delta, mask := rawDelta(t, eng, 0, 0)
	if delta != 0 || mask != 0 {
		t.Errorf("friend departure: delta=%d mask=%d, want 0, 0", delta, mask)
	}
}

// Injection rebuilds pressure from the final board, so enemy marks are
// bidirectional from the first epoch.
func TestInjectRecomputesPressure(t *testing.T) {
	eng, _ := newTestEngine(t)

	err := eng.InjectCells(testToken, 1, []ForcedCell{
		{X: 0, Y: 0, Color: "blue", Life: 3, Owner: "alice"},
		{X: 1, Y: 0, Color: "red", Life: 3, Owner: "bob"},
		{X: 0, Y: 1, Color: "blue", Life: 3, Owner: "alice"},
	})
	if err != nil {
		t.Fatalf("inject: %v", err)
	}

	// (0,0): friend below, enemy right.
	if delta, mask := rawDelta(t, eng, 0, 0); delta != 0 || mask != DirRight.Bit() {
		t.Errorf("(0,0): delta=%d mask=%d, want 0, %d", delta, mask, DirRight.Bit())
	}
	// (1,0): enemy left.
	if delta, mask := rawDelta(t, eng, 1, 0); delta != -1 || mask != DirLeft.Bit() {
		t.Errorf("(1,0): delta=%d mask=%d, want -1, %d", delta, mask, DirLeft.Bit())
	}
	// (0,1): friend above.
	if delta, mask := rawDelta(t, eng, 0, 1); delta != 1 || mask != 0 {
		t.Errorf("(0,1): delta=%d mask=%d, want 1, 0", delta, mask)
	}

	// Mutual marking: A marks B iff B marks A.
	a, _ := eng.RawCell(0, 0)
	b, _ := eng.RawCell(1, 0)
	if (a.EnemyMask&DirRight.Bit() != 0) != (b.EnemyMask&DirLeft.Bit() != 0) {
		t.Error("enemy marking is not bidirectional")
	}
}

func TestInjectValidation(t *testing.T) {
	eng, _ := newTestEngine(t)

	if err := eng.InjectCells("wrong-token", 1, nil); err != ErrNotAuthorized {
		t.Errorf("bad token: %v", err)
	}
	if err := eng.InjectCells(testToken, 0, nil); err != ErrEpochZero {
		t.Errorf("epoch zero: %v", err)
	}
	if err := eng.InjectCells(testToken, 1, []ForcedCell{
		{X: 0, Y: 0, Color: "none", Life: 1},
	}); err == nil {
		t.Error("colorless inject accepted")
	}
	if err := eng.InjectCells(testToken, 1, []ForcedCell{
		{X: 0, Y: 0, Color: "blue", Life: eng.Config().MaxLife + 1},
	}); err == nil {
		t.Error("over-max life accepted")
	}
}
