package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/a3tai/pdf2json/internal/pdf/wrapper"
)

func TestFrame_PointAndRect(t *testing.T) {
	f := Frame{Box: wrapper.NewRectangle(36, 36, 576, 756)}

	x, y := f.Point(36, 756)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = f.Point(100, 700)
	assert.Equal(t, 64.0, x)
	assert.Equal(t, 56.0, y)

	assert.Equal(t, BBox{X0: 14, Y0: 656, X1: 214, Y1: 657}, f.Rect(wrapper.NewRectangle(50, 99, 250, 100)))
}

func TestFrame_ToPage(t *testing.T) {
	box := wrapper.NewRectangle(0, 0, 612, 792)
	in := BBox{X0: 10, Y0: 20, X1: 30, Y1: 25}

	tests := []struct {
		rotate int
		want   BBox
	}{
		{0, in},
		{90, BBox{X0: 792 - 25, Y0: 10, X1: 792 - 20, Y1: 30}},
		{180, BBox{X0: 612 - 30, Y0: 792 - 25, X1: 612 - 10, Y1: 792 - 20}},
		{270, BBox{X0: 20, Y0: 612 - 30, X1: 25, Y1: 612 - 10}},
	}

	for _, tt := range tests {
		f := Frame{Box: box, Rotate: tt.rotate}
		assert.Equal(t, tt.want, f.ToPage(in), "rotate %d", tt.rotate)
	}
}

func TestNewFrame(t *testing.T) {
	size := &wrapper.PageSize{Width: 792, Height: 612, Box: wrapper.NewRectangle(0, 0, 612, 792), Rotate: 90}
	f := NewFrame(size)
	assert.Equal(t, 90, f.Rotate)
	assert.Equal(t, 612.0, f.Box.Width)
}

func TestBBox(t *testing.T) {
	a := BBox{X0: 0, Y0: 0, X1: 10, Y1: 10}
	b := BBox{X0: 5, Y0: -5, X1: 20, Y1: 8}

	assert.Equal(t, BBox{X0: 0, Y0: -5, X1: 20, Y1: 10}, a.Union(b))
	assert.True(t, a.OverlapsX(b))
	assert.False(t, a.OverlapsX(BBox{X0: 11, X1: 12}))
	assert.True(t, a.Contains(10, 10))
	assert.False(t, a.Contains(10.5, 5))

	cx, cy := a.Center()
	assert.Equal(t, 5.0, cx)
	assert.Equal(t, 5.0, cy)
	assert.Equal(t, [4]float64{0, 0, 10, 10}, a.Array())
	assert.Equal(t, 10.0, a.Width())
	assert.Equal(t, 10.0, a.Height())
}
