// Package viewport owns the pan offset and zoom scale of the board and turns
// background pointer gestures and wheel events into transform updates.
package viewport

import (
	"themtwo/backend/internal/geometry"
)

const (
	MinScale = 0.1
	MaxScale = 3.0
	// wheelSensitivity converts wheel delta units into a relative scale change.
	wheelSensitivity = 0.001
)

// Button identifies a pointer button, numbered like DOM MouseEvent.button.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// Surface names what sits under the pointer when a gesture starts.
type Surface int

const (
	SurfaceNone Surface = iota
	// SurfaceRoot is the canvas root element.
	SurfaceRoot
	// SurfaceViewport is the transformed container holding the scene.
	SurfaceViewport
	// SurfaceEdges is the layer the connection curves are drawn on.
	SurfaceEdges
	// SurfaceGrid is the dotted background grid.
	SurfaceGrid
	// SurfaceNode is a person box. Gestures on it belong to the drag controller.
	SurfaceNode
	// SurfaceChrome is toolbar, legend and other overlays that swallow gestures.
	SurfaceChrome
)

// IsBackground reports whether a gesture starting on s may pan the board.
func (s Surface) IsBackground() bool {
	switch s {
	case SurfaceRoot, SurfaceViewport, SurfaceEdges, SurfaceGrid:
		return true
	}
	return false
}

func (s Surface) String() string {
	switch s {
	case SurfaceRoot:
		return "root"
	case SurfaceViewport:
		return "viewport"
	case SurfaceEdges:
		return "edges"
	case SurfaceGrid:
		return "grid"
	case SurfaceNode:
		return "node"
	case SurfaceChrome:
		return "chrome"
	}
	return "none"
}

// Controller holds the current transform and the in-flight pan gesture.
// It is not safe for concurrent use; the board serialises access.
type Controller struct {
	pan   geometry.Point
	scale float64

	panning  bool
	panStart geometry.Point
	didPan   bool
}

// New returns a controller at the origin with scale 1.
func New() *Controller {
	return &Controller{scale: 1}
}

// Transform returns the current world to screen mapping.
func (c *Controller) Transform() geometry.Transform {
	return geometry.Transform{Pan: c.pan, Scale: c.scale}
}

// Scale returns the current zoom factor.
func (c *Controller) Scale() float64 {
	return c.scale
}

// Pan returns the current pan offset in screen pixels.
func (c *Controller) Pan() geometry.Point {
	return c.pan
}

// PanBy shifts the view by a screen-space delta.
func (c *Controller) PanBy(dx, dy float64) {
	c.pan.X += dx
	c.pan.Y += dy
}

// ZoomAt rescales around the screen point (sx, sy) so that the world point
// under it stays put.
func (c *Controller) ZoomAt(sx, sy, wheelDelta float64) {
	newScale := geometry.Clamp(c.scale*(1+wheelDelta*wheelSensitivity), MinScale, MaxScale)
	ratio := newScale / c.scale
	c.pan = geometry.Point{
		X: sx - (sx-c.pan.X)*ratio,
		Y: sy - (sy-c.pan.Y)*ratio,
	}
	c.scale = newScale
}

// WorldToScreen maps a world point through the current transform.
func (c *Controller) WorldToScreen(w geometry.Point) geometry.Point {
	return c.Transform().WorldToScreen(w)
}

// ScreenToWorld maps a screen point back to world space.
func (c *Controller) ScreenToWorld(s geometry.Point) geometry.Point {
	return c.Transform().ScreenToWorld(s)
}

// BeginPan starts a pan gesture if the pointer went down on a background
// surface with the primary or middle button. It reports whether panning began.
func (c *Controller) BeginPan(target Surface, button Button, pointer geometry.Point) bool {
	if !target.IsBackground() {
		return false
	}
	if button != ButtonPrimary && button != ButtonMiddle {
		return false
	}
	c.panning = true
	c.didPan = false
	c.panStart = pointer.Sub(c.pan)
	return true
}

// MovePan follows the pointer while a pan gesture is active.
func (c *Controller) MovePan(pointer geometry.Point) bool {
	if !c.panning {
		return false
	}
	c.didPan = true
	c.pan = pointer.Sub(c.panStart)
	return true
}

// EndPan finishes the pan gesture. DidPan keeps its value until the next BeginPan
// so the trailing click can be told apart from a pan release.
func (c *Controller) EndPan() {
	c.panning = false
}

// Panning reports whether a pan gesture is in progress.
func (c *Controller) Panning() bool {
	return c.panning
}

// DidPan reports whether the last pan gesture moved the view.
func (c *Controller) DidPan() bool {
	return c.didPan
}

// Reset restores the initial transform.
func (c *Controller) Reset() {
	*c = Controller{scale: 1}
}
