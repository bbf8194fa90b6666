package engine

import "fmt"

// Position is a signed 32-bit (x, y) grid coordinate packed into a
// single uint64 key: x in the low 32 bits, y in the high 32 bits,
// both two's complement. Packing is a lossless bijection over the full
// int32 range; the grid has no bounds beyond that range.
type Position uint64

// Pack builds a position key from signed coordinates.
func Pack(x, y int32) Position {
	return Position(uint64(uint32(x)) | uint64(uint32(y))<<32)
}

// Unpack recovers the signed coordinates from a position key.
func (p Position) Unpack() (x, y int32) {
	return int32(uint32(p)), int32(uint32(p >> 32))
}

func (p Position) String() string {
	x, y := p.Unpack()
	return fmt.Sprintf("(%d,%d)", x, y)
}

// Direction indexes the four cardinal neighbors. The numeric order
// up, left, down, right is load-bearing: it fixes the enemy-mask bit
// layout and the payout iteration order on death.
type Direction uint8

const (
	DirUp Direction = iota
	DirLeft
	DirDown
	DirRight

	// NumDirections is the cardinal neighbor count.
	NumDirections = 4
)

// Bit returns the enemy-mask bit for this direction.
func (d Direction) Bit() uint8 { return 1 << d }

// Opposite returns the reciprocal direction (up<->down, left<->right).
func (d Direction) Opposite() Direction { return (d + 2) % NumDirections }

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirLeft:
		return "left"
	case DirDown:
		return "down"
	case DirRight:
		return "right"
	default:
		return "invalid"
	}
}

// Neighbor returns the adjacent position in the given direction.
func (p Position) Neighbor(d Direction) Position {
	x, y := p.Unpack()
	switch d {
	case DirUp:
		return Pack(x, y-1)
	case DirLeft:
		return Pack(x-1, y)
	case DirDown:
		return Pack(x, y+1)
	default:
		return Pack(x+1, y)
	}
}

// Neighbors returns the four axis-aligned neighbors in the fixed
// direction order up, left, down, right.
func (p Position) Neighbors() [NumDirections]Position {
	x, y := p.Unpack()
	return [NumDirections]Position{
		Pack(x, y-1),
		Pack(x-1, y),
		Pack(x, y+1),
		Pack(x+1, y),
	}
}
