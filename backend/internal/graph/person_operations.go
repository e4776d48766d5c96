package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"themtwo/backend/internal/state"
	apperrors "themtwo/backend/pkg/errors"
)

// ============================================================================
// Person Operations
// ============================================================================

// ListPeople returns every person in creation order
func (r *Repository) ListPeople(ctx context.Context) ([]state.Person, error) {
	query := `
		MATCH (p:Person)
		RETURN p.id AS id, p.name AS name, p.position_x AS position_x, p.position_y AS position_y
		ORDER BY p.created_at, p.id
	`

	people := []state.Person{}
	err := r.readList(ctx, "list people", query, nil, func(record *neo4j.Record) {
		people = append(people, personFromRecord(record))
	})
	if err != nil {
		return nil, err
	}
	return people, nil
}

// GetPerson fetches a single person
func (r *Repository) GetPerson(ctx context.Context, id string) (*state.Person, error) {
	query := `
		MATCH (p:Person {id: $id})
		RETURN p.id AS id, p.name AS name, p.position_x AS position_x, p.position_y AS position_y
	`

	var found *state.Person
	err := r.readList(ctx, "get person", query, map[string]interface{}{"id": id}, func(record *neo4j.Record) {
		p := personFromRecord(record)
		found = &p
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperrors.NewPersonNotFound(id)
	}
	return found, nil
}

// CreatePerson stores a new person and returns its id
func (r *Repository) CreatePerson(ctx context.Context, name string, x, y float64) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}

	query := `
		CREATE (p:Person {
			id: $id,
			name: $name,
			position_x: $x,
			position_y: $y,
			created_at: datetime()
		})
		RETURN p.id AS id
	`

	record, err := r.writeSingle(ctx, "create person", query, map[string]interface{}{
		"id":   r.newID(),
		"name": name,
		"x":    x,
		"y":    y,
	})
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", apperrors.NewGraphQueryFailed("create person", nil)
	}

	id := getStringFromRecord(record, "id")
	r.logger.Info("Person created",
		zap.String("person_id", id),
		zap.String("name", name),
	)
	return id, nil
}

// UpdatePersonPosition moves a person to an absolute world position
func (r *Repository) UpdatePersonPosition(ctx context.Context, id string, x, y float64) error {
	query := `
		MATCH (p:Person {id: $id})
		SET p.position_x = $x,
		    p.position_y = $y
		RETURN p.id AS id
	`

	record, err := r.writeSingle(ctx, "update person position", query, map[string]interface{}{
		"id": id,
		"x":  x,
		"y":  y,
	})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewPersonNotFound(id)
	}
	return nil
}

// RenamePerson replaces a person's display name
func (r *Repository) RenamePerson(ctx context.Context, id, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}

	query := `
		MATCH (p:Person {id: $id})
		SET p.name = $name
		RETURN p.id AS id
	`

	record, err := r.writeSingle(ctx, "rename person", query, map[string]interface{}{
		"id":   id,
		"name": name,
	})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewPersonNotFound(id)
	}

	r.logger.Info("Person renamed",
		zap.String("person_id", id),
		zap.String("name", name),
	)
	return nil
}

// DeletePerson removes a person together with every connection touching it
func (r *Repository) DeletePerson(ctx context.Context, id string) error {
	query := `
		MATCH (p:Person {id: $id})
		OPTIONAL MATCH (p)-[c:CONNECTED]-(:Person)
		WITH p, count(c) AS removed
		DETACH DELETE p
		RETURN removed
	`

	record, err := r.writeSingle(ctx, "delete person", query, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewPersonNotFound(id)
	}

	r.logger.Info("Person deleted",
		zap.String("person_id", id),
		zap.Int64("connections_removed", getInt64FromRecord(record, "removed")),
	)
	return nil
}
