package imaging

import (
	"math"
)

// Matrix is a 3x3 affine transform in row-major order.
type Matrix [9]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Rotation Matrix (CCW in a y-up system, CW on screen)
//
//	cos(angle)   -sin(angle)    0
//	sin(angle)    cos(angle)    0
//	0             0             1
func Rotation(angle float64) Matrix {
	m := Identity()
	m[0] = math.Cos(angle)
	m[1] = math.Sin(angle) * -1

	m[3] = math.Sin(angle)
	m[4] = math.Cos(angle)

	return m
}

// Translation Matrix:
//
//	1  0  dx
//	0  1  dy
//	0  0  1
func Translation(dx, dy float64) Matrix {
	m := Identity()

	m[2] = dx
	m[5] = dy

	return m
}

// Scaling Matrix:
//
//	sx 0  0
//	0  sy 0
//	0  0  1
func Scaling(sx, sy float64) Matrix {
	m := Identity()

	m[0] = sx
	m[4] = sy

	return m
}

// RotationAround rotates by angle (radians) around the point cx, cy.
func RotationAround(angle, cx, cy float64) Matrix {
	// Translate - Rotate - Translate back
	return Translation(cx, cy).Multiply(Rotation(angle)).Multiply(Translation(-cx, -cy))
}

// Multiply combines two affine transforms.
// The result applies b first, then m.
func (m Matrix) Multiply(b Matrix) Matrix {
	var r Matrix

	r[0] = m[0]*b[0] + m[1]*b[3] + m[2]*b[6]
	r[1] = m[0]*b[1] + m[1]*b[4] + m[2]*b[7]
	r[2] = m[0]*b[2] + m[1]*b[5] + m[2]*b[8]

	r[3] = m[3]*b[0] + m[4]*b[3] + m[5]*b[6]
	r[4] = m[3]*b[1] + m[4]*b[4] + m[5]*b[7]
	r[5] = m[3]*b[2] + m[4]*b[5] + m[5]*b[8]

	r[6] = m[6]*b[0] + m[7]*b[3] + m[8]*b[6]
	r[7] = m[6]*b[1] + m[7]*b[4] + m[8]*b[7]
	r[8] = m[6]*b[2] + m[7]*b[5] + m[8]*b[8]

	return r
}

// Apply applies the transform to the given x,y point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	tx := m[0]*x + m[1]*y + m[2]
	ty := m[3]*x + m[4]*y + m[5]
	return tx, ty
}

// Invert returns the inverse transform.
// The second return value is false if the matrix is not invertible.
func (m Matrix) Invert() (Matrix, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if math.Abs(det) < 1e-12 {
		return Identity(), false
	}

	r := Identity()
	r[0] = m[4] / det
	r[1] = -m[1] / det
	r[3] = -m[3] / det
	r[4] = m[0] / det
	r[2] = -(r[0]*m[2] + r[1]*m[5])
	r[5] = -(r[3]*m[2] + r[4]*m[5])

	return r, true
}
