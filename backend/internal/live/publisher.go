package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"themtwo/backend/internal/graph"
	"themtwo/backend/internal/relation"
)

// refreshTimeout bounds the snapshot read and hand-off after a write.
const refreshTimeout = 5 * time.Second

// Publisher decorates a graph.Store so that every successful write is followed
// by a fresh snapshot on the hub. Reads pass straight through.
type Publisher struct {
	graph.Store
	hub    *Hub
	logger *zap.Logger

	// refreshMu keeps fetch order equal to publish order so a slow refresh
	// can never overwrite a newer snapshot.
	refreshMu sync.Mutex
}

// NewPublisher wraps store.
func NewPublisher(store graph.Store, hub *Hub, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{Store: store, hub: hub, logger: logger}
}

// Refresh reads the store and publishes the result.
func (p *Publisher) Refresh(ctx context.Context) error {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	snap, err := p.Store.Snapshot(ctx)
	if err != nil {
		return err
	}
	return p.hub.Publish(ctx, snap)
}

// afterWrite refreshes subscribers when the write succeeded. A failed refresh
// does not fail the write; the next one catches subscribers up.
func (p *Publisher) afterWrite(ctx context.Context, op string, err error) error {
	if err != nil {
		return err
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()
	if rerr := p.Refresh(rctx); rerr != nil {
		p.logger.Warn("Failed to publish snapshot", zap.String("operation", op), zap.Error(rerr))
	}
	return nil
}

func (p *Publisher) CreatePerson(ctx context.Context, name string, x, y float64) (string, error) {
	id, err := p.Store.CreatePerson(ctx, name, x, y)
	return id, p.afterWrite(ctx, "create person", err)
}

func (p *Publisher) UpdatePersonPosition(ctx context.Context, id string, x, y float64) error {
	return p.afterWrite(ctx, "update person position", p.Store.UpdatePersonPosition(ctx, id, x, y))
}

func (p *Publisher) RenamePerson(ctx context.Context, id, name string) error {
	return p.afterWrite(ctx, "rename person", p.Store.RenamePerson(ctx, id, name))
}

func (p *Publisher) DeletePerson(ctx context.Context, id string) error {
	return p.afterWrite(ctx, "delete person", p.Store.DeletePerson(ctx, id))
}

func (p *Publisher) CreateConnection(ctx context.Context, personA, personB string, connectionType relation.Type) (string, error) {
	id, err := p.Store.CreateConnection(ctx, personA, personB, connectionType)
	return id, p.afterWrite(ctx, "create connection", err)
}

func (p *Publisher) UpdateConnectionType(ctx context.Context, id string, connectionType relation.Type) error {
	return p.afterWrite(ctx, "update connection type", p.Store.UpdateConnectionType(ctx, id, connectionType))
}

func (p *Publisher) DeleteConnection(ctx context.Context, id string) error {
	return p.afterWrite(ctx, "delete connection", p.Store.DeleteConnection(ctx, id))
}
