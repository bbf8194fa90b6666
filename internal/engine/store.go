package engine

// Store is the only mutable state the core touches: cells and owners
// keyed by packed position. Owners live beside cells, not inside them,
// because ownership must survive the window between a death and its
// distribution settlement.
//
// A batch journal records the prior value of every key touched since
// Begin, so a failed resolution rolls back all-or-nothing. The store
// itself is not goroutine safe; the engine serializes access.
type Store struct {
	cells  map[Position]Cell
	owners map[Position]string

	journaling bool
	cellUndo   map[Position]Cell
	ownerUndo  map[Position]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		cells:  make(map[Position]Cell),
		owners: make(map[Position]string),
	}
}

// Cell reads the cell at p. Unpopulated positions read as the zero
// Cell; no entry is created.
func (s *Store) Cell(p Position) Cell { return s.cells[p] }

// SetCell writes the cell at p, journaling the prior value when a
// batch is open.
func (s *Store) SetCell(p Position, c Cell) {
	if s.journaling {
		if _, done := s.cellUndo[p]; !done {
			s.cellUndo[p] = s.cells[p]
		}
	}
	s.cells[p] = c
}

// Owner returns the account holding the token at p, or "".
func (s *Store) Owner(p Position) string { return s.owners[p] }

// SetOwner records ownership of p. An empty owner clears the entry.
func (s *Store) SetOwner(p Position, owner string) {
	if s.journaling {
		if _, done := s.ownerUndo[p]; !done {
			s.ownerUndo[p] = s.owners[p]
		}
	}
	if owner == "" {
		delete(s.owners, p)
		return
	}
	s.owners[p] = owner
}

// Begin opens a batch journal. Panics if one is already open: batches
// never nest.
func (s *Store) Begin() {
	if s.journaling {
		panic("store: nested batch")
	}
	s.journaling = true
	s.cellUndo = make(map[Position]Cell)
	s.ownerUndo = make(map[Position]string)
}

// Commit discards the journal, keeping all writes.
func (s *Store) Commit() {
	s.journaling = false
	s.cellUndo = nil
	s.ownerUndo = nil
}

// Rollback restores every key touched since Begin.
func (s *Store) Rollback() {
	for p, c := range s.cellUndo {
		if c.Zero() {
			delete(s.cells, p)
			continue
		}
		s.cells[p] = c
	}
	for p, o := range s.ownerUndo {
		if o == "" {
			delete(s.owners, p)
			continue
		}
		s.owners[p] = o
	}
	s.Commit()
}

// Range calls fn for every populated, non-zero cell until fn returns
// false. Iteration order is map order; callers needing determinism
// sort the keys themselves.
func (s *Store) Range(fn func(Position, Cell) bool) {
	for p, c := range s.cells {
		if c.Zero() {
			continue
		}
		if !fn(p, c) {
			return
		}
	}
}

// RangeOwners calls fn for every owned position until fn returns false.
func (s *Store) RangeOwners(fn func(Position, string) bool) {
	for p, o := range s.owners {
		if !fn(p, o) {
			return
		}
	}
}
