// Package drag tracks the single in-flight drag of a person box and turns
// pointer movement into an optimistic world-space position.
package drag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/viewport"
)

// ActivationDistance is how far, in screen pixels, the pointer must travel
// before a press on a node counts as a drag instead of a click.
const ActivationDistance = 8.0

// Session is the state captured when a drag starts.
type Session struct {
	PersonID     string
	OriginScreen geometry.Point
	OriginWorld  geometry.Point
	// ScaleAtStart is frozen so zooming mid-drag does not distort the delta.
	ScaleAtStart float64
	Pointer      geometry.Point
	Activated    bool
	Committing   bool

	generation uint64
}

// Delta converts the pointer travel so far into world units.
func (s *Session) Delta(pointer geometry.Point) geometry.Point {
	return pointer.Sub(s.OriginScreen).Div(s.ScaleAtStart)
}

// PositionAt returns where the person is displayed with the pointer at pointer.
func (s *Session) PositionAt(pointer geometry.Point) geometry.Point {
	return s.OriginWorld.Add(s.Delta(pointer))
}

// Position returns the display position for the last seen pointer.
func (s *Session) Position() geometry.Point {
	return s.PositionAt(s.Pointer)
}

// Commit is a position write that must land before the overlay is dropped.
type Commit struct {
	PersonID   string
	Position   geometry.Point
	generation uint64
}

// CommitFunc persists the final position of a drag.
type CommitFunc func(ctx context.Context, personID string, position geometry.Point) error

// Controller owns the drag session. It is not safe for concurrent use; the
// board serialises access.
type Controller struct {
	session    *Session
	generation uint64
	// suppress names the person whose next click is swallowed after a drag.
	suppress string
	logger   *zap.Logger
}

// NewController creates an idle drag controller.
func NewController(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{logger: logger}
}

// Begin starts dragging personID, whose box currently sits at origin. Only the
// primary button starts a drag.
func (c *Controller) Begin(personID string, origin, pointer geometry.Point, scale float64, button viewport.Button) bool {
	if button != viewport.ButtonPrimary || personID == "" || scale <= 0 {
		return false
	}
	c.generation++
	c.suppress = ""
	c.session = &Session{
		PersonID:     personID,
		OriginScreen: pointer,
		OriginWorld:  origin,
		ScaleAtStart: scale,
		Pointer:      pointer,
		generation:   c.generation,
	}
	return true
}

// Move updates the pointer and returns the optimistic position. Moves after
// release are ignored.
func (c *Controller) Move(pointer geometry.Point) (geometry.Point, bool) {
	s := c.session
	if s == nil || s.Committing {
		return geometry.Point{}, false
	}
	s.Pointer = pointer
	if !s.Activated && pointer.Dist(s.OriginScreen) > ActivationDistance {
		s.Activated = true
		c.logger.Debug("Drag activated", zap.String("person_id", s.PersonID))
	}
	return s.Position(), true
}

// Active returns the current session, if any.
func (c *Controller) Active() (*Session, bool) {
	if c.session == nil {
		return nil, false
	}
	return c.session, true
}

// Overlay returns the optimistic position of the dragged person. Presses that
// never crossed the activation distance do not produce an overlay.
func (c *Controller) Overlay() (string, geometry.Point, bool) {
	s := c.session
	if s == nil || !s.Activated {
		return "", geometry.Point{}, false
	}
	return s.PersonID, s.Position(), true
}

// Release ends pointer tracking. When the press turned into a drag it returns
// the commit to write; the overlay stays in place until Settle is called with
// it. A press that never activated is cleared immediately.
func (c *Controller) Release(pointer geometry.Point) (Commit, bool) {
	s := c.session
	if s == nil || s.Committing {
		return Commit{}, false
	}
	if !s.Activated && pointer.Dist(s.OriginScreen) > ActivationDistance {
		s.Activated = true
	}
	if !s.Activated {
		c.session = nil
		return Commit{}, false
	}
	s.Pointer = pointer
	s.Committing = true
	c.suppress = s.PersonID
	return Commit{PersonID: s.PersonID, Position: s.Position(), generation: s.generation}, true
}

// Settle drops the overlay for a commit that has been acknowledged. A newer
// session on the same person is left alone.
func (c *Controller) Settle(commit Commit) {
	if c.session != nil && c.session.generation == commit.generation {
		c.session = nil
	}
}

// Cancel discards the session without writing, e.g. when the person vanished.
func (c *Controller) Cancel() {
	c.session = nil
}

// ConsumeClick reports whether a click on personID should be swallowed because
// it ends a drag. The flag is cleared either way.
func (c *Controller) ConsumeClick(personID string) bool {
	suppressed := c.suppress != "" && c.suppress == personID
	c.suppress = ""
	return suppressed
}

// End is Release, commit and Settle in one call for callers that do not need
// to unlock around the write.
func (c *Controller) End(ctx context.Context, pointer geometry.Point, commit CommitFunc) error {
	pending, ok := c.Release(pointer)
	if !ok {
		return nil
	}
	defer c.Settle(pending)

	if err := commit(ctx, pending.PersonID, pending.Position); err != nil {
		c.logger.Warn("Drag commit failed",
			zap.String("person_id", pending.PersonID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to commit drag of %s: %w", pending.PersonID, err)
	}
	return nil
}
