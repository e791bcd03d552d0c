// Package coords holds the affine math shared by the extractor and the page
// mutator, plus the conversion between their vertical axes.
package coords

import "math"

// Matrix is a PDF affine transform [a b c d e f].
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns m × o, i.e. m applied first, then o.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

// Transform maps p through m.
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ScaleX is the length of the transformed unit x vector.
func (m Matrix) ScaleX() float64 { return math.Hypot(m[0], m[1]) }

// ScaleY is the length of the transformed unit y vector.
func (m Matrix) ScaleY() float64 { return math.Hypot(m[2], m[3]) }

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// ToDrawY converts an extractor y (measured from the top edge) into the
// mutator's y (measured from the bottom edge) for a page of the given height.
// The x axis is shared and needs no conversion.
func ToDrawY(pageHeight, y float64) float64 {
	return pageHeight - y
}
