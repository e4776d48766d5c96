package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"themtwo/backend/internal/geometry"
)

func TestZoomAt_KeepsWorldPointUnderCursor(t *testing.T) {
	tests := []struct {
		name  string
		pan   geometry.Point
		start float64
		at    geometry.Point
		delta float64
	}{
		{"zoom out at origin", geometry.Pt(0, 0), 1, geometry.Pt(0, 0), -120},
		{"zoom in off-centre", geometry.Pt(35, -80), 1, geometry.Pt(400, 300), 240},
		{"zoom out after pan", geometry.Pt(-500, 220), 2.2, geometry.Pt(17, 903), -500},
		{"clamped at max", geometry.Pt(10, 10), 2.9, geometry.Pt(640, 480), 5000},
		{"clamped at min", geometry.Pt(10, 10), 0.11, geometry.Pt(640, 480), -5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.pan = tt.pan
			c.scale = tt.start

			before := c.ScreenToWorld(tt.at)
			c.ZoomAt(tt.at.X, tt.at.Y, tt.delta)
			after := c.ScreenToWorld(tt.at)

			assert.InDelta(t, before.X, after.X, 1e-9)
			assert.InDelta(t, before.Y, after.Y, 1e-9)
			assert.GreaterOrEqual(t, c.Scale(), MinScale)
			assert.LessOrEqual(t, c.Scale(), MaxScale)
		})
	}
}

func TestZoomAt_Scale(t *testing.T) {
	c := New()
	c.ZoomAt(0, 0, 100)
	assert.InDelta(t, 1.1, c.Scale(), 1e-9)

	c = New()
	c.ZoomAt(0, 0, 1e6)
	assert.Equal(t, MaxScale, c.Scale())

	c = New()
	c.ZoomAt(0, 0, -1e6)
	assert.Equal(t, MinScale, c.Scale())
}

func TestPanBy(t *testing.T) {
	c := New()
	c.PanBy(10, -4)
	c.PanBy(-3, 2)
	assert.Equal(t, geometry.Pt(7, -2), c.Pan())
}

func TestBeginPan_OnlyOnBackground(t *testing.T) {
	tests := []struct {
		surface Surface
		button  Button
		want    bool
	}{
		{SurfaceRoot, ButtonPrimary, true},
		{SurfaceViewport, ButtonPrimary, true},
		{SurfaceEdges, ButtonMiddle, true},
		{SurfaceGrid, ButtonPrimary, true},
		{SurfaceGrid, ButtonSecondary, false},
		{SurfaceNode, ButtonPrimary, false},
		{SurfaceChrome, ButtonPrimary, false},
	}
	for _, tt := range tests {
		t.Run(tt.surface.String(), func(t *testing.T) {
			c := New()
			assert.Equal(t, tt.want, c.BeginPan(tt.surface, tt.button, geometry.Pt(0, 0)))
			assert.Equal(t, tt.want, c.Panning())
		})
	}
}

func TestPanGesture(t *testing.T) {
	c := New()
	c.PanBy(20, 20)

	assert.True(t, c.BeginPan(SurfaceGrid, ButtonPrimary, geometry.Pt(100, 100)))
	assert.False(t, c.DidPan())

	c.MovePan(geometry.Pt(130, 90))
	assert.Equal(t, geometry.Pt(50, 10), c.Pan())
	assert.True(t, c.DidPan())

	c.EndPan()
	assert.False(t, c.Panning())
	assert.True(t, c.DidPan())
	assert.False(t, c.MovePan(geometry.Pt(0, 0)))

	// a fresh press without movement clears the flag
	c.BeginPan(SurfaceGrid, ButtonPrimary, geometry.Pt(0, 0))
	c.EndPan()
	assert.False(t, c.DidPan())
}
