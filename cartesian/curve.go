package cartesian

import "math"

// Point represents a cartesian X,Y point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Curve struct {
	Points []Point `json:"points"`
}

// ValueAt returns the linearly interpolated y-value of the curve at x.
// NaN is returned if x is not within the horizontal span of the curve.
func (c *Curve) ValueAt(x float64) float64 {

	// Loop over each pair of points in the curve
	for i := 0; i < len(c.Points)-1; i++ {
		p1 := c.Points[i]
		p2 := c.Points[i+1]

		if p1.X <= x && x <= p2.X {
			return linearInterpolation(p1, p2, x)
		}
	}
	return math.NaN()
}

// linearInterpolation returns the y-value at `x` given two points.
func linearInterpolation(p1, p2 Point, x float64) float64 {
	return p1.Y + (x-p1.X)*((p2.Y-p1.Y)/(p2.X-p1.X))
}
