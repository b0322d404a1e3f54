// Package layout groups positioned glyphs into spans, lines and blocks.
//
// All layout work happens in text space: the page's visible box with a
// top-left origin and y growing downward, before /Rotate is applied.
// Frame converts PDF user space into text space and text space into the
// rotated page coordinates that are reported to callers.
package layout

import (
	"math"

	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

// BBox is an axis aligned box with a top-left origin
type BBox struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Union returns the smallest box containing both boxes
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Center returns the midpoint of the box
func (b BBox) Center() (float64, float64) {
	return (b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2
}

// Contains reports whether the point lies inside the box, edges included
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// OverlapsX reports whether the horizontal ranges of the boxes intersect
func (b BBox) OverlapsX(o BBox) bool {
	return b.X0 <= o.X1 && o.X0 <= b.X1
}

// Array returns the box as [x0, y0, x1, y1]
func (b BBox) Array() [4]float64 {
	return [4]float64{b.X0, b.Y0, b.X1, b.Y1}
}

func normalize(x0, y0, x1, y1 float64) BBox {
	return BBox{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// Frame maps between PDF user space, text space and page space for one page
type Frame struct {
	// Box is the visible box in PDF user space
	Box wrapper.Rectangle
	// Rotate is the clockwise page rotation: 0, 90, 180 or 270
	Rotate int
}

// NewFrame builds the frame of a page from its size
func NewFrame(size *wrapper.PageSize) Frame {
	return Frame{Box: size.Box, Rotate: size.Rotate}
}

// Point converts a PDF user space point into text space
func (f Frame) Point(x, y float64) (float64, float64) {
	return x - f.Box.LowerLeft.X, f.Box.UpperRight.Y - y
}

// Rect converts a PDF user space rectangle into a text space box
func (f Frame) Rect(r wrapper.Rectangle) BBox {
	x0, y0 := f.Point(r.LowerLeft.X, r.UpperRight.Y)
	x1, y1 := f.Point(r.UpperRight.X, r.LowerLeft.Y)
	return normalize(x0, y0, x1, y1)
}

// ToPage converts a text space box into rotated page coordinates
func (f Frame) ToPage(b BBox) BBox {
	x0, y0 := f.rotate(b.X0, b.Y0)
	x1, y1 := f.rotate(b.X1, b.Y1)
	return normalize(x0, y0, x1, y1)
}

func (f Frame) rotate(x, y float64) (float64, float64) {
	w, h := f.Box.Width, f.Box.Height
	switch f.Rotate {
	case 90:
		return h - y, x
	case 180:
		return w - x, h - y
	case 270:
		return y, w - x
	default:
		return x, y
	}
}
