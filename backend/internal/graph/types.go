package graph

import (
	"context"

	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
)

// Store is the persistence contract of the board. Every write is atomic; a
// person delete removes the person's connections in the same write.
type Store interface {
	ListPeople(ctx context.Context) ([]state.Person, error)
	ListConnections(ctx context.Context) ([]state.Connection, error)
	Snapshot(ctx context.Context) (*state.Snapshot, error)
	GetPerson(ctx context.Context, id string) (*state.Person, error)
	ConnectionsForPerson(ctx context.Context, personID string) ([]state.Connection, error)

	CreatePerson(ctx context.Context, name string, x, y float64) (string, error)
	UpdatePersonPosition(ctx context.Context, id string, x, y float64) error
	RenamePerson(ctx context.Context, id, name string) error
	DeletePerson(ctx context.Context, id string) error

	CreateConnection(ctx context.Context, personA, personB string, connectionType relation.Type) (string, error)
	UpdateConnectionType(ctx context.Context, id string, connectionType relation.Type) error
	DeleteConnection(ctx context.Context, id string) error
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*MemoryStore)(nil)
)
