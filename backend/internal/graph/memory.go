package graph

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
	apperrors "themtwo/backend/pkg/errors"
	"themtwo/backend/pkg/logger"
)

// MemoryStore keeps the board in process. It honours the same contract as
// Repository and backs tests and STORE=memory runs.
type MemoryStore struct {
	mu          sync.RWMutex
	people      []state.Person
	connections []state.Connection
	newID       func() string
	logger      *zap.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		people:      []state.Person{},
		connections: []state.Connection{},
		newID:       uuid.NewString,
		logger:      logger.Named("memstore"),
	}
}

func (m *MemoryStore) ListPeople(ctx context.Context) ([]state.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]state.Person, len(m.people))
	copy(out, m.people)
	return out, nil
}

func (m *MemoryStore) ListConnections(ctx context.Context) ([]state.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]state.Connection, len(m.connections))
	copy(out, m.connections)
	return out, nil
}

// Snapshot copies both collections under one lock.
func (m *MemoryStore) Snapshot(ctx context.Context) (*state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := &state.Snapshot{
		People:      make([]state.Person, len(m.people)),
		Connections: make([]state.Connection, len(m.connections)),
	}
	copy(snap.People, m.people)
	copy(snap.Connections, m.connections)
	return snap, nil
}

func (m *MemoryStore) GetPerson(ctx context.Context, id string) (*state.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.personIndex(id)
	if i < 0 {
		return nil, apperrors.NewPersonNotFound(id)
	}
	p := m.people[i]
	return &p, nil
}

func (m *MemoryStore) ConnectionsForPerson(ctx context.Context, personID string) ([]state.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []state.Connection{}
	for _, c := range m.connections {
		if c.Involves(personID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreatePerson(ctx context.Context, name string, x, y float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.newID()
	m.people = append(m.people, state.Person{ID: id, Name: name, Position: geometry.Pt(x, y)})
	m.logger.Debug("Person created", zap.String("person_id", id), zap.String("name", name))
	return id, nil
}

func (m *MemoryStore) UpdatePersonPosition(ctx context.Context, id string, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.personIndex(id)
	if i < 0 {
		return apperrors.NewPersonNotFound(id)
	}
	m.people[i].Position = geometry.Pt(x, y)
	return nil
}

func (m *MemoryStore) RenamePerson(ctx context.Context, id, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.personIndex(id)
	if i < 0 {
		return apperrors.NewPersonNotFound(id)
	}
	m.people[i].Name = name
	return nil
}

// DeletePerson drops the person and its connections under one lock.
func (m *MemoryStore) DeletePerson(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.personIndex(id)
	if i < 0 {
		return apperrors.NewPersonNotFound(id)
	}
	m.people = append(m.people[:i:i], m.people[i+1:]...)

	kept := make([]state.Connection, 0, len(m.connections))
	for _, c := range m.connections {
		if !c.Involves(id) {
			kept = append(kept, c)
		}
	}
	removed := len(m.connections) - len(kept)
	m.connections = kept

	m.logger.Debug("Person deleted", zap.String("person_id", id), zap.Int("connections_removed", removed))
	return nil
}

func (m *MemoryStore) CreateConnection(ctx context.Context, personA, personB string, connectionType relation.Type) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateEndpoints(personA, personB); err != nil {
		return "", err
	}
	if err := validateConnectionType(connectionType); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.personIndex(personA) < 0 {
		return "", apperrors.NewPersonNotFound(personA)
	}
	if m.personIndex(personB) < 0 {
		return "", apperrors.NewPersonNotFound(personB)
	}
	for _, c := range m.connections {
		if c.Links(personA, personB) {
			return "", apperrors.NewDuplicateConnection(personA, personB, c.ID)
		}
	}
	id := m.newID()
	m.connections = append(m.connections, state.Connection{
		ID:      id,
		PersonA: personA,
		PersonB: personB,
		Type:    connectionType,
	})
	return id, nil
}

func (m *MemoryStore) UpdateConnectionType(ctx context.Context, id string, connectionType relation.Type) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateConnectionType(connectionType); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.connectionIndex(id)
	if i < 0 {
		return apperrors.NewConnectionNotFound(id)
	}
	m.connections[i].Type = connectionType
	return nil
}

func (m *MemoryStore) DeleteConnection(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.connectionIndex(id)
	if i < 0 {
		return apperrors.NewConnectionNotFound(id)
	}
	m.connections = append(m.connections[:i:i], m.connections[i+1:]...)
	return nil
}

func (m *MemoryStore) personIndex(id string) int {
	for i, p := range m.people {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) connectionIndex(id string) int {
	for i, c := range m.connections {
		if c.ID == id {
			return i
		}
	}
	return -1
}
