// Package geometry holds the coordinate math shared by the board: world/screen
// transforms, person box layout, edge curves and hit testing. Nothing here
// keeps state.
package geometry

import (
	"fmt"
	"math"
)

// Person boxes are laid out at a fixed size in world units.
const (
	BoxWidth  = 128.0
	BoxHeight = 80.0
)

const (
	// curveBowRatio is the share of the endpoint distance used to bow an edge.
	curveBowRatio = 0.3
	// maxCurveBow caps the bow so long edges stay readable.
	maxCurveBow = 100.0
	// EdgeHitTolerance is the half width, in screen pixels, of the clickable band around an edge.
	EdgeHitTolerance = 10.0
	// curveSamples is the polyline resolution used when hit testing curves.
	curveSamples = 32
)

// Point is a 2D coordinate. Whether it is world or screen space depends on the caller.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Mul(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func (p Point) Div(k float64) Point {
	return Point{X: p.X / k, Y: p.Y / k}
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Transform maps world space to screen space as screen = world*Scale + Pan.
type Transform struct {
	Pan   Point   `json:"pan"`
	Scale float64 `json:"scale"`
}

// Identity is the transform of a fresh viewport.
var Identity = Transform{Scale: 1}

// WorldToScreen maps a world coordinate to screen pixels.
func (t Transform) WorldToScreen(w Point) Point {
	return w.Mul(t.Scale).Add(t.Pan)
}

// ScreenToWorld maps screen pixels back to world coordinates.
func (t Transform) ScreenToWorld(s Point) Point {
	if t.Scale == 0 {
		return s.Sub(t.Pan)
	}
	return s.Sub(t.Pan).Div(t.Scale)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// BoxCenter returns the centre of a person box whose top-left corner is at topLeft.
func BoxCenter(topLeft Point) Point {
	return Point{X: topLeft.X + BoxWidth/2, Y: topLeft.Y + BoxHeight/2}
}

// BoxContains reports whether world point p falls inside the box at topLeft.
func BoxContains(topLeft, p Point) bool {
	return p.X >= topLeft.X && p.X <= topLeft.X+BoxWidth &&
		p.Y >= topLeft.Y && p.Y <= topLeft.Y+BoxHeight
}

// ControlPoint returns the quadratic control point for an edge from a to b.
// The midpoint is pushed along the a->b vector rotated by 90 degrees, by
// min(distance*0.3, 100). Coincident endpoints yield the shared point.
func ControlPoint(a, b Point) Point {
	mid := Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	dx := b.X - a.X
	dy := b.Y - a.Y
	distance := math.Hypot(dx, dy)
	if distance == 0 {
		return mid
	}
	offset := math.Min(distance*curveBowRatio, maxCurveBow)
	return Point{
		X: mid.X - dy*offset/distance,
		Y: mid.Y + dx*offset/distance,
	}
}

// Curve is a quadratic bezier edge.
type Curve struct {
	From    Point `json:"from"`
	Control Point `json:"control"`
	To      Point `json:"to"`
}

// NewCurve builds the bowed curve between two endpoints.
func NewCurve(a, b Point) Curve {
	return Curve{From: a, Control: ControlPoint(a, b), To: b}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*c.From.X + 2*u*t*c.Control.X + t*t*c.To.X,
		Y: u*u*c.From.Y + 2*u*t*c.Control.Y + t*t*c.To.Y,
	}
}

// PathData renders the curve as an SVG path "M x1,y1 Q cx,cy x2,y2".
func (c Curve) PathData() string {
	return fmt.Sprintf("M %g,%g Q %g,%g %g,%g",
		c.From.X, c.From.Y, c.Control.X, c.Control.Y, c.To.X, c.To.Y)
}

// Distance approximates the shortest distance from p to the curve.
func (c Curve) Distance(p Point) float64 {
	best := math.Inf(1)
	prev := c.From
	for i := 1; i <= curveSamples; i++ {
		next := c.At(float64(i) / curveSamples)
		if d := segmentDistance(p, prev, next); d < best {
			best = d
		}
		prev = next
	}
	return best
}

// Hit reports whether p lies within tolerance of the curve.
func (c Curve) Hit(p Point, tolerance float64) bool {
	return c.Distance(p) <= tolerance
}

func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	lengthSq := ab.X*ab.X + ab.Y*ab.Y
	if lengthSq == 0 {
		return p.Dist(a)
	}
	t := Clamp(((p.X-a.X)*ab.X+(p.Y-a.Y)*ab.Y)/lengthSq, 0, 1)
	return p.Dist(a.Add(ab.Mul(t)))
}
