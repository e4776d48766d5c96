package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
	apperrors "themtwo/backend/pkg/errors"
)

// ============================================================================
// Connection Operations
// ============================================================================

const connectionProjection = `
	c.id AS id, c.person_a AS person_a, c.person_b AS person_b, c.type AS type
`

// ListConnections returns every connection in creation order
func (r *Repository) ListConnections(ctx context.Context) ([]state.Connection, error) {
	query := `
		MATCH (:Person)-[c:CONNECTED]->(:Person)
		RETURN ` + connectionProjection + `
		ORDER BY c.created_at, c.id
	`

	connections := []state.Connection{}
	err := r.readList(ctx, "list connections", query, nil, func(record *neo4j.Record) {
		connections = append(connections, connectionFromRecord(record))
	})
	if err != nil {
		return nil, err
	}
	return connections, nil
}

// ConnectionsForPerson returns the connections where personID is either endpoint
func (r *Repository) ConnectionsForPerson(ctx context.Context, personID string) ([]state.Connection, error) {
	query := `
		MATCH (:Person {id: $personID})-[c:CONNECTED]-(:Person)
		RETURN ` + connectionProjection + `
		ORDER BY c.created_at, c.id
	`

	connections := []state.Connection{}
	err := r.readList(ctx, "connections for person", query, map[string]interface{}{"personID": personID}, func(record *neo4j.Record) {
		connections = append(connections, connectionFromRecord(record))
	})
	if err != nil {
		return nil, err
	}
	return connections, nil
}

// CreateConnection joins two people. The undirected MERGE locks both nodes, so
// two racing creates for the same pair end with a single relationship; the
// loser gets ErrDuplicateConnection carrying the winner's id.
func (r *Repository) CreateConnection(ctx context.Context, personA, personB string, connectionType relation.Type) (string, error) {
	if err := validateEndpoints(personA, personB); err != nil {
		return "", err
	}
	if err := validateConnectionType(connectionType); err != nil {
		return "", err
	}

	id := r.newID()
	query := `
		MATCH (a:Person {id: $personA})
		MATCH (b:Person {id: $personB})
		MERGE (a)-[c:CONNECTED]-(b)
		ON CREATE SET
			c.id = $id,
			c.person_a = $personA,
			c.person_b = $personB,
			c.type = $type,
			c.created_at = datetime()
		RETURN c.id AS id, c.id = $id AS created
	`

	record, err := r.writeSingle(ctx, "create connection", query, map[string]interface{}{
		"id":      id,
		"personA": personA,
		"personB": personB,
		"type":    string(connectionType),
	})
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", r.missingEndpoint(ctx, personA, personB)
	}

	got := getStringFromRecord(record, "id")
	if !getBoolFromRecord(record, "created") {
		return "", apperrors.NewDuplicateConnection(personA, personB, got)
	}

	r.logger.Info("Connection created",
		zap.String("connection_id", got),
		zap.String("person_a", personA),
		zap.String("person_b", personB),
		zap.String("type", string(connectionType)),
	)
	return got, nil
}

// missingEndpoint reports which side of a failed create does not exist.
func (r *Repository) missingEndpoint(ctx context.Context, personA, personB string) error {
	if _, err := r.GetPerson(ctx, personA); err != nil {
		return err
	}
	return apperrors.NewPersonNotFound(personB)
}

// UpdateConnectionType sets the relationship type of a connection
func (r *Repository) UpdateConnectionType(ctx context.Context, id string, connectionType relation.Type) error {
	if err := validateConnectionType(connectionType); err != nil {
		return err
	}

	query := `
		MATCH (:Person)-[c:CONNECTED {id: $id}]->(:Person)
		SET c.type = $type
		RETURN c.id AS id
	`

	record, err := r.writeSingle(ctx, "update connection type", query, map[string]interface{}{
		"id":   id,
		"type": string(connectionType),
	})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewConnectionNotFound(id)
	}
	return nil
}

// DeleteConnection removes one connection
func (r *Repository) DeleteConnection(ctx context.Context, id string) error {
	query := `
		MATCH (:Person)-[c:CONNECTED {id: $id}]->(:Person)
		WITH c, c.id AS id
		DELETE c
		RETURN id
	`

	record, err := r.writeSingle(ctx, "delete connection", query, map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	if record == nil {
		return apperrors.NewConnectionNotFound(id)
	}

	r.logger.Info("Connection deleted", zap.String("connection_id", id))
	return nil
}
