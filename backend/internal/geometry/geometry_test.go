package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform_RoundTrip(t *testing.T) {
	tr := Transform{Pan: Pt(40, -25), Scale: 2.5}
	w := Pt(13.5, -7)

	s := tr.WorldToScreen(w)
	assert.InDelta(t, 13.5*2.5+40, s.X, 1e-9)
	assert.InDelta(t, -7*2.5-25, s.Y, 1e-9)

	back := tr.ScreenToWorld(s)
	assert.InDelta(t, w.X, back.X, 1e-9)
	assert.InDelta(t, w.Y, back.Y, 1e-9)
}

func TestBoxCenter(t *testing.T) {
	assert.Equal(t, Pt(164, 140), BoxCenter(Pt(100, 100)))
}

func TestBoxContains(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Pt(150, 120), true},
		{"top-left corner", Pt(100, 100), true},
		{"right of box", Pt(229, 120), false},
		{"below box", Pt(150, 181), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BoxContains(Pt(100, 100), tt.p))
		})
	}
}

func TestControlPoint(t *testing.T) {
	t.Run("horizontal edge bows downward", func(t *testing.T) {
		c := ControlPoint(Pt(0, 0), Pt(100, 0))
		assert.InDelta(t, 50, c.X, 1e-9)
		assert.InDelta(t, 30, c.Y, 1e-9)
	})

	t.Run("bow is capped", func(t *testing.T) {
		c := ControlPoint(Pt(0, 0), Pt(0, 1000))
		assert.InDelta(t, -100, c.X, 1e-9)
		assert.InDelta(t, 500, c.Y, 1e-9)
	})

	t.Run("coincident endpoints return the shared point", func(t *testing.T) {
		c := ControlPoint(Pt(42, 17), Pt(42, 17))
		assert.False(t, math.IsNaN(c.X) || math.IsNaN(c.Y))
		assert.Equal(t, Pt(42, 17), c)
	})

	t.Run("stable as endpoints converge", func(t *testing.T) {
		a := Pt(10, 10)
		prev := ControlPoint(a, Pt(10.001, 10))
		for _, eps := range []float64{1e-4, 1e-6, 1e-9} {
			c := ControlPoint(a, Pt(10+eps, 10))
			assert.InDelta(t, prev.X, c.X, 1e-2)
			assert.InDelta(t, prev.Y, c.Y, 1e-2)
			assert.GreaterOrEqual(t, c.Y, 10.0)
		}
	})
}

func TestCurve_PathData(t *testing.T) {
	c := NewCurve(Pt(0, 0), Pt(100, 0))
	assert.Equal(t, "M 0,0 Q 50,30 100,0", c.PathData())
}

func TestCurve_Hit(t *testing.T) {
	c := NewCurve(Pt(0, 0), Pt(100, 0))

	// apex of the curve sits halfway to the control point
	apex := c.At(0.5)
	assert.InDelta(t, 15, apex.Y, 1e-9)
	assert.True(t, c.Hit(Pt(50, 18), EdgeHitTolerance))
	assert.False(t, c.Hit(Pt(50, 60), EdgeHitTolerance))
	assert.True(t, c.Hit(Pt(0, 0), 0.001))
}
