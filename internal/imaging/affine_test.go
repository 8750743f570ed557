package imaging

import (
	"math"
	"testing"
)

func TestRotation(t *testing.T) {
	x := 1
	y := 2
	rad := 90 * math.Pi / 180

	rot := Rotation(rad)
	tx, ty := rot.Apply(float64(x), float64(y))

	if math.Round(tx) != -2 {
		t.Errorf("unexpected value for transformed x: %v", tx)
	}
	if math.Round(ty) != 1 {
		t.Errorf("unexpected value for transformed y: %v", ty)
	}

	// rotating around the point itself should not move it
	tx, ty = RotationAround(rad, float64(x), float64(y)).Apply(float64(x), float64(y))

	if math.Round(tx) != 1 {
		t.Errorf("unexpected value for transformed x: %v", tx)
	}
	if math.Round(ty) != 2 {
		t.Errorf("unexpected value for transformed y: %v", ty)
	}
}

func TestScalingAndInvert(t *testing.T) {
	m := Translation(10, 20).Multiply(Scaling(2, 0.5))
	tx, ty := m.Apply(4, 8)
	if tx != 18 || ty != 24 {
		t.Errorf("unexpected transformed point %v,%v", tx, ty)
	}

	inv, ok := m.Invert()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	x, y := inv.Apply(tx, ty)
	if math.Abs(x-4) > 1e-9 || math.Abs(y-8) > 1e-9 {
		t.Errorf("inverse did not restore the point: %v,%v", x, y)
	}

	_, ok = Scaling(0, 1).Invert()
	if ok {
		t.Errorf("degenerate matrix reported as invertible")
	}
}
