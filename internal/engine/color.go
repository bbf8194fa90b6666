package engine

import "fmt"

// Color is a gem color. None means the cell holds no token. Colors are
// symmetric: equal colors are friends, differing non-None colors are
// enemies.
type Color uint8

const (
	None Color = iota
	Blue
	Red
	Green
	Yellow
	Purple
	Orange

	numColors
)

// Valid reports whether c is a known color, including None.
func (c Color) Valid() bool { return c < numColors }

func (c Color) String() string {
	switch c {
	case None:
		return "none"
	case Blue:
		return "blue"
	case Red:
		return "red"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Purple:
		return "purple"
	case Orange:
		return "orange"
	default:
		return "invalid"
	}
}

// ParseColor maps a wire name back to a Color. "none" and "" both mean
// None (a leave move).
func ParseColor(s string) (Color, error) {
	switch s {
	case "", "none":
		return None, nil
	case "blue":
		return Blue, nil
	case "red":
		return Red, nil
	case "green":
		return Green, nil
	case "yellow":
		return Yellow, nil
	case "purple":
		return Purple, nil
	case "orange":
		return Orange, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
}
