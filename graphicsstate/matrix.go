package graphicsstate

import (
	"math"

	"github.com/tsawler/pdfstrip/core"
)

// Matrix represents a 2D affine transformation [a b c d e f]
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// MatrixFromOperands reads the six operands of a cm operator.
func MatrixFromOperands(operands []core.Object) (Matrix, bool) {
	var m Matrix
	if len(operands) != 6 {
		return m, false
	}
	for i, obj := range operands {
		v, ok := core.Number(obj)
		if !ok {
			return m, false
		}
		m[i] = v
	}
	return m, true
}

// Apply maps the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Multiply returns m followed by other.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// BBox is an axis-aligned rectangle in user space.
type BBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// UnitSquare returns the bounds of the unit square under m, which is the
// area an image painted with this CTM covers.
func (m Matrix) UnitSquare() BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := m.Apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
