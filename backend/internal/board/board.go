// Package board is the application root of the relationship canvas. It owns
// the viewport, drag, selection and pulse state, folds live snapshots in, routes
// pointer events and issues store writes. Renderers read the composed
// scene.Display and feed abstract pointer events back.
package board

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"themtwo/backend/internal/drag"
	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/scene"
	"themtwo/backend/internal/selection"
	"themtwo/backend/internal/state"
	"themtwo/backend/internal/viewport"
	apperrors "themtwo/backend/pkg/errors"
)

// Store is the write side the board needs. graph.Store, live.Publisher and
// client.Client all satisfy it.
type Store interface {
	CreatePerson(ctx context.Context, name string, x, y float64) (string, error)
	UpdatePersonPosition(ctx context.Context, id string, x, y float64) error
	RenamePerson(ctx context.Context, id, name string) error
	DeletePerson(ctx context.Context, id string) error
	CreateConnection(ctx context.Context, personA, personB string, connectionType relation.Type) (string, error)
	UpdateConnectionType(ctx context.Context, id string, connectionType relation.Type) error
	DeleteConnection(ctx context.Context, id string) error
}

// Area is the rectangle new people are dropped into, in world units.
type Area struct {
	X, Y          float64
	Width, Height float64
}

// DefaultSpawn places new people at x in [100,600) and y in [100,500).
var DefaultSpawn = Area{X: 100, Y: 100, Width: 500, Height: 400}

// Config tunes a Board. Zero values pick the defaults.
type Config struct {
	Spawn        Area
	WriteTimeout time.Duration
	// Now drives pulse expiry.
	Now func() time.Time
	// Random returns a value in [0,1) for spawn placement.
	Random func() float64
}

const defaultWriteTimeout = 10 * time.Second

// settledPosition is an acknowledged drag commit that the live snapshot has not
// caught up with. It is shown until remote moves away from base.
type settledPosition struct {
	committed geometry.Point
	base      geometry.Point
}

// Board serialises every event and snapshot behind one mutex, the way a UI
// event loop would.
type Board struct {
	mu sync.Mutex

	store  Store
	logger *zap.Logger

	viewport  *viewport.Controller
	drag      *drag.Controller
	selection *selection.Machine
	pulses    *relation.Pulses

	remote  *state.Snapshot
	pending map[string]relation.Type
	settled map[string]settledPosition
	hovered string

	spawn        Area
	writeTimeout time.Duration
	random       func() float64

	ctx     context.Context
	cancel  context.CancelFunc
	writes  sync.WaitGroup
	updates chan struct{}
}

// New creates a board writing to store. Until the first Observe the display
// reports Loading.
func New(store Store, cfg Config, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Spawn == (Area{}) {
		cfg.Spawn = DefaultSpawn
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Random == nil {
		cfg.Random = rand.Float64
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Board{
		store:        store,
		logger:       logger,
		viewport:     viewport.New(),
		drag:         drag.NewController(logger.Named("drag")),
		selection:    selection.New(),
		pulses:       relation.NewPulses(cfg.Now),
		pending:      make(map[string]relation.Type),
		settled:      make(map[string]settledPosition),
		spawn:        cfg.Spawn,
		writeTimeout: cfg.WriteTimeout,
		random:       cfg.Random,
		ctx:          ctx,
		cancel:       cancel,
		updates:      make(chan struct{}, 1),
	}
}

// Close cancels outstanding writes and waits for them to return.
func (b *Board) Close() {
	b.cancel()
	b.writes.Wait()
}

// Wait blocks until every fire-and-forget write issued so far has returned.
func (b *Board) Wait() {
	b.writes.Wait()
}

// Updates signals that the display changed. Signals coalesce; read Display
// after each one.
func (b *Board) Updates() <-chan struct{} {
	return b.updates
}

func (b *Board) changed() {
	select {
	case b.updates <- struct{}{}:
	default:
	}
}

// Run feeds snapshots from the live subscription into Observe until the
// channel closes or ctx is done.
func (b *Board) Run(ctx context.Context, snapshots <-chan *state.Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			b.Observe(snap)
		}
	}
}

// Observe installs a new remote snapshot and drops local state that refers to
// entities it no longer contains.
func (b *Board) Observe(snap *state.Snapshot) {
	if snap == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if stale(b.remote, snap) {
		b.logger.Debug("Ignoring stale snapshot",
			zap.Uint64("version", snap.Version),
			zap.Uint64("current", b.remote.Version),
		)
		return
	}
	if b.remote != nil && snap.Epoch != b.remote.Epoch {
		b.logger.Info("Live epoch changed, resetting version",
			zap.String("epoch", snap.Epoch),
			zap.String("previous", b.remote.Epoch),
		)
	}
	b.remote = snap

	if b.selection.Observe(snap) {
		b.logger.Debug("Selection cleared, person removed")
	}
	if s, ok := b.drag.Active(); ok && !snap.HasPerson(s.PersonID) {
		b.drag.Cancel()
		b.logger.Debug("Drag cancelled, person removed", zap.String("person_id", s.PersonID))
	}
	for id, s := range b.settled {
		p, ok := snap.Person(id)
		if !ok || p.Position != s.base {
			delete(b.settled, id)
		}
	}
	for id, want := range b.pending {
		c, ok := snap.Connection(id)
		if !ok || c.Type == want {
			delete(b.pending, id)
		}
	}
	if b.hovered != "" {
		if _, ok := snap.Connection(b.hovered); !ok {
			b.hovered = ""
		}
	}
	b.changed()
}

// stale reports whether next is older than current. A new epoch means the
// server restarted its counter, so anything from it is accepted.
func stale(current, next *state.Snapshot) bool {
	if current == nil || next.Version == 0 || next.Epoch != current.Epoch {
		return false
	}
	return next.Version < current.Version
}

// Remote returns the last observed snapshot.
func (b *Board) Remote() *state.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remote
}

// Display composes the current frame.
func (b *Board) Display() scene.Display {
	b.mu.Lock()
	defer b.mu.Unlock()

	overlay := scene.Overlay{
		Transform:    b.viewport.Transform(),
		PendingTypes: make(map[string]relation.Type, len(b.pending)),
		Settled:      make(map[string]geometry.Point, len(b.settled)),
		Pulsing:      b.pulses.Snapshot(),
		Hovered:      b.hovered,
		Panning:      b.viewport.Panning(),
	}
	for id, t := range b.pending {
		overlay.PendingTypes[id] = t
	}
	for id, s := range b.settled {
		overlay.Settled[id] = s.committed
	}
	if id, pos, ok := b.drag.Overlay(); ok {
		overlay.DragPersonID = id
		overlay.DragPosition = pos
	}
	if id, ok := b.selection.Selected(); ok {
		overlay.Selected = id
	}
	return scene.Compose(b.remote, overlay)
}

// Transform returns the current viewport transform.
func (b *Board) Transform() geometry.Transform {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport.Transform()
}

// Selection returns the machine state and the selected id.
func (b *Board) Selection() (selection.State, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, _ := b.selection.Selected()
	return b.selection.State(), id
}

// Target hit-tests a screen point against the current frame. Nodes win over
// edges; anything else is the grid.
func (b *Board) Target(screen geometry.Point) (viewport.Surface, string) {
	d := b.Display()
	world := d.Transform.ScreenToWorld(screen)

	// later nodes are drawn on top
	for i := len(d.Nodes) - 1; i >= 0; i-- {
		if geometry.BoxContains(d.Nodes[i].Position, world) {
			return viewport.SurfaceNode, d.Nodes[i].ID
		}
	}
	if e, ok := d.EdgeAt(world, geometry.EdgeHitTolerance/d.Transform.Scale); ok {
		return viewport.SurfaceEdges, e.ID
	}
	return viewport.SurfaceGrid, ""
}

// issue runs a fire-and-forget write. Validation failures are dropped quietly,
// anything else is logged.
func (b *Board) issue(op string, fields []zap.Field, write func(ctx context.Context) error, onError func(error)) {
	b.writes.Add(1)
	go func() {
		defer b.writes.Done()
		ctx, cancel := context.WithTimeout(b.ctx, b.writeTimeout)
		defer cancel()

		err := write(ctx)
		if err == nil {
			return
		}
		if onError != nil {
			onError(err)
		}
		if apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
			b.logger.Debug("Write rejected", append(fields, zap.String("operation", op), zap.Error(err))...)
			return
		}
		b.logger.Warn("Write failed", append(fields, zap.String("operation", op), zap.Error(err))...)
	}()
}

func commitError(personID string, err error) error {
	return fmt.Errorf("failed to commit position of %s: %w", personID, err)
}
