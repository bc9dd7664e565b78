package cartesian

import (
	"math"
	"testing"
)

func TestValueAt(t *testing.T) {

	curve := Curve{Points: []Point{{X: 0, Y: 0.5}, {X: 0.5, Y: 0.9}, {X: 1, Y: 1.0}}}

	type subTest struct {
		name     string
		x        float64
		expected float64
	}

	subTests := []subTest{
		{"at first point", 0, 0.5},
		{"mid first segment", 0.25, 0.7},
		{"at knee", 0.5, 0.9},
		{"mid second segment", 0.75, 0.95},
		{"at last point", 1, 1.0},
	}
	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			got := curve.ValueAt(subTest.x)
			if math.Abs(got-subTest.expected) > 1e-9 {
				t.Errorf("Got %v, expected %v", got, subTest.expected)
			}
		})
	}
}

func TestValueAtOutsideSpan(t *testing.T) {

	curve := Curve{Points: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}
	if !math.IsNaN(curve.ValueAt(2)) {
		t.Error("Expected NaN outside the curve span")
	}
	if !math.IsNaN(curve.ValueAt(-1)) {
		t.Error("Expected NaN outside the curve span")
	}
}
