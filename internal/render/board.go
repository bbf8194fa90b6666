// Package render draws board windows as PNG images for the HTTP API.
package render

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"

	"gemgrid/internal/engine"
)

const (
	defaultCellSize = 16
	maxImageDim     = 4096
)

// Palette maps each token color to its display RGB.
var palette = map[string][3]float64{
	"blue":   {0.23, 0.51, 0.96},
	"red":    {0.94, 0.27, 0.27},
	"green":  {0.13, 0.77, 0.37},
	"yellow": {0.98, 0.80, 0.08},
	"purple": {0.66, 0.33, 0.97},
	"orange": {0.98, 0.57, 0.14},
}

// Renderer draws board snapshots. Zero value is not usable; call New.
type Renderer struct {
	cellSize int
	maxLife  uint32
}

// New creates a renderer. maxLife scales the brightness of partially
// grown tokens.
func New(maxLife uint32) *Renderer {
	if maxLife == 0 {
		maxLife = 1
	}
	return &Renderer{cellSize: defaultCellSize, maxLife: maxLife}
}

// RenderPNG draws the window [x0,x1]x[y0,y1] of the snapshot and
// encodes it as PNG. Dead tokens draw as dimmed outlines, live tokens
// as filled squares scaled by life.
func (r *Renderer) RenderPNG(w io.Writer, snap engine.BoardSnapshot, x0, y0, x1, y1 int32) error {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}

	cols := int(int64(x1) - int64(x0) + 1)
	rows := int(int64(y1) - int64(y0) + 1)
	width := cols * r.cellSize
	height := rows * r.cellSize
	if width > maxImageDim || height > maxImageDim {
		return fmt.Errorf("render: window %dx%d exceeds %dpx limit", width, height, maxImageDim)
	}

	dc := gg.NewContext(width, height)

	dc.SetRGB(0.07, 0.09, 0.11)
	dc.Clear()

	// Grid lines
	dc.SetRGBA(1, 1, 1, 0.06)
	dc.SetLineWidth(1)
	for c := 0; c <= cols; c++ {
		x := float64(c * r.cellSize)
		dc.DrawLine(x, 0, x, float64(height))
	}
	for rw := 0; rw <= rows; rw++ {
		y := float64(rw * r.cellSize)
		dc.DrawLine(0, y, float64(width), y)
	}
	dc.Stroke()

	cs := float64(r.cellSize)
	for _, cell := range snap.Cells {
		rgb, ok := palette[cell.Color]
		if !ok {
			continue
		}
		px := float64(int64(cell.X)-int64(x0)) * cs
		// Screen y grows downward; board y grows upward.
		py := float64(int64(y1)-int64(cell.Y)) * cs

		if cell.Life == 0 {
			dc.SetRGBA(rgb[0], rgb[1], rgb[2], 0.25)
			dc.SetLineWidth(1.5)
			dc.DrawRectangle(px+2, py+2, cs-4, cs-4)
			dc.Stroke()
			continue
		}

		life := cell.Life
		if life > r.maxLife {
			life = r.maxLife
		}
		alpha := 0.35 + 0.65*float64(life)/float64(r.maxLife)
		dc.SetRGBA(rgb[0], rgb[1], rgb[2], alpha)
		dc.DrawRectangle(px+1, py+1, cs-2, cs-2)
		dc.Fill()
	}

	return dc.EncodePNG(w)
}
