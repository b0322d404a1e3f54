package wrapper

// matrix is a PDF transformation matrix [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f)
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// concat returns m followed by n, the order the cm operator applies a new
// matrix to the current one
func (m matrix) concat(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// rect transforms the rectangle with corners (x0, y0) and (x1, y1) and returns
// the bounding box of the result
func (m matrix) rect(x0, y0, x1, y1 float64) Rectangle {
	ax, ay := m.apply(x0, y0)
	bx, by := m.apply(x1, y0)
	cx, cy := m.apply(x1, y1)
	dx, dy := m.apply(x0, y1)
	return NewRectangle(min(ax, bx, cx, dx), min(ay, by, cy, dy), max(ax, bx, cx, dx), max(ay, by, cy, dy))
}
