package board

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/selection"
	"themtwo/backend/internal/state"
	"themtwo/backend/internal/viewport"
)

// PointerDown starts a drag when it lands on a node and a pan when it lands on
// a background surface. It reports which gesture began, if any.
func (b *Board) PointerDown(target viewport.Surface, personID string, button viewport.Button, pointer geometry.Point) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if target == viewport.SurfaceNode {
		person, ok := b.remote.Person(personID)
		if !ok {
			return false
		}
		origin := person.Position
		if s, ok := b.settled[personID]; ok {
			origin = s.committed
		}
		return b.drag.Begin(person.ID, origin, pointer, b.viewport.Scale(), button)
	}
	return b.viewport.BeginPan(target, button, pointer)
}

// PointerMove follows the pointer for whichever gesture is active.
func (b *Board) PointerMove(pointer geometry.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.drag.Move(pointer); ok {
		b.changed()
		return
	}
	if b.viewport.MovePan(pointer) {
		b.changed()
	}
}

// PointerUp ends the active gesture. A real drag commits the final position
// and keeps the overlay until the store acknowledged it, then until the live
// snapshot shows the new position. The board stays responsive while the write
// is in flight.
func (b *Board) PointerUp(ctx context.Context, pointer geometry.Point) error {
	b.mu.Lock()
	if b.viewport.Panning() {
		b.viewport.EndPan()
		b.changed()
	}
	commit, ok := b.drag.Release(pointer)
	b.mu.Unlock()
	if !ok {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, b.writeTimeout)
	defer cancel()
	err := b.store.UpdatePersonPosition(wctx, commit.PersonID, commit.Position.X, commit.Position.Y)

	b.mu.Lock()
	b.drag.Settle(commit)
	if err == nil {
		b.settle(commit.PersonID, commit.Position)
	}
	b.changed()
	b.mu.Unlock()

	if err != nil {
		b.logger.Warn("Drag commit failed",
			zap.String("person_id", commit.PersonID),
			zap.Stringer("position", commit.Position),
			zap.Error(err),
		)
		return commitError(commit.PersonID, err)
	}
	b.logger.Debug("Drag committed",
		zap.String("person_id", commit.PersonID),
		zap.Stringer("position", commit.Position),
	)
	return nil
}

// settle keeps an acknowledged position on screen until a snapshot carries
// it. Nothing is kept when remote already agrees or the person is gone.
func (b *Board) settle(personID string, committed geometry.Point) {
	delete(b.settled, personID)
	p, ok := b.remote.Person(personID)
	if !ok || p.Position == committed {
		return
	}
	b.settled[personID] = settledPosition{committed: committed, base: p.Position}
}

// Wheel zooms toward the screen point under the cursor.
func (b *Board) Wheel(screen geometry.Point, wheelDelta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport.ZoomAt(screen.X, screen.Y, wheelDelta)
	b.changed()
}

// PanBy shifts the view by a screen delta.
func (b *Board) PanBy(dx, dy float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport.PanBy(dx, dy)
	b.changed()
}

// ClickPerson feeds a node click into the selection machine. The click that
// ends a drag is swallowed. Connecting two people issues the create write.
func (b *Board) ClickPerson(personID string) selection.Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.drag.ConsumeClick(personID) {
		st := b.selection.State()
		return selection.Transition{From: st, To: st, Action: selection.ActionNone}
	}

	t := b.selection.Click(personID, b.remote)
	switch t.Action {
	case selection.ActionConnect:
		a, c, typ := t.PersonA, t.PersonB, t.Type
		b.issue("create connection",
			[]zap.Field{zap.String("person_a", a), zap.String("person_b", c)},
			func(ctx context.Context) error {
				_, err := b.store.CreateConnection(ctx, a, c, typ)
				return err
			}, nil)
	case selection.ActionAlreadyConnected:
		b.logger.Debug("People already connected",
			zap.String("person_a", t.PersonA),
			zap.String("person_b", t.PersonB),
			zap.String("connection_id", t.Existing),
		)
	}
	if t.Action != selection.ActionIgnored {
		b.changed()
	}
	return t
}

// ClickBackground clears the selection unless the gesture was a pan.
func (b *Board) ClickBackground() selection.Transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.viewport.DidPan() {
		st := b.selection.State()
		return selection.Transition{From: st, To: st, Action: selection.ActionNone}
	}
	t := b.selection.BackgroundClick()
	b.changed()
	return t
}

// ClickConnection pulses the edge and advances its type. The new type is shown
// straight away and kept until a snapshot confirms it.
func (b *Board) ClickConnection(connectionID string) (relation.Type, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.remote.Connection(connectionID)
	if !ok {
		return "", false
	}
	current := c.Type
	if pending, ok := b.pending[connectionID]; ok {
		current = pending
	}
	next := relation.Advance(current)
	b.pending[connectionID] = next
	b.pulses.Start(connectionID)
	b.changed()

	b.issue("update connection type",
		[]zap.Field{zap.String("connection_id", connectionID), zap.String("type", string(next))},
		func(ctx context.Context) error {
			return b.store.UpdateConnectionType(ctx, connectionID, next)
		},
		func(error) {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.pending[connectionID] == next {
				delete(b.pending, connectionID)
				b.changed()
			}
		})
	return next, true
}

// Hover marks an edge as hovered. An empty id clears it.
func (b *Board) Hover(connectionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if connectionID != "" {
		if _, ok := b.remote.Connection(connectionID); !ok {
			return
		}
	}
	b.hovered = connectionID
	b.changed()
}

// AddPerson creates a person at a random spot in the spawn area. Blank names
// are skipped without a write. It reports whether a write was issued.
func (b *Board) AddPerson(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	b.mu.Lock()
	pos := b.spawnPosition()
	b.mu.Unlock()

	b.issue("create person", []zap.Field{zap.String("name", name)},
		func(ctx context.Context) error {
			_, err := b.store.CreatePerson(ctx, name, pos.X, pos.Y)
			return err
		}, nil)
	return true
}

func (b *Board) spawnPosition() geometry.Point {
	return geometry.Pt(
		b.spawn.X+b.random()*b.spawn.Width,
		b.spawn.Y+b.random()*b.spawn.Height,
	)
}

// Rename renames a person. Blank names and unknown people are skipped.
func (b *Board) Rename(personID, name string) bool {
	if _, err := state.NormalizeName(name); err != nil {
		return false
	}

	b.mu.Lock()
	ok := b.remote.HasPerson(personID)
	b.mu.Unlock()
	if !ok {
		return false
	}

	b.issue("rename person", []zap.Field{zap.String("person_id", personID)},
		func(ctx context.Context) error {
			return b.store.RenamePerson(ctx, personID, name)
		}, nil)
	return true
}

// DeletePerson removes a person and, in the store, every connection touching it.
func (b *Board) DeletePerson(personID string) bool {
	b.mu.Lock()
	ok := b.remote.HasPerson(personID)
	b.mu.Unlock()
	if !ok {
		return false
	}

	b.issue("delete person", []zap.Field{zap.String("person_id", personID)},
		func(ctx context.Context) error {
			return b.store.DeletePerson(ctx, personID)
		}, nil)
	return true
}

// DeleteConnection removes one connection.
func (b *Board) DeleteConnection(connectionID string) bool {
	b.mu.Lock()
	_, ok := b.remote.Connection(connectionID)
	b.mu.Unlock()
	if !ok {
		return false
	}

	b.issue("delete connection", []zap.Field{zap.String("connection_id", connectionID)},
		func(ctx context.Context) error {
			return b.store.DeleteConnection(ctx, connectionID)
		}, nil)
	return true
}
