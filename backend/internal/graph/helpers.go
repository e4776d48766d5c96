package graph

import (
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
	apperrors "themtwo/backend/pkg/errors"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	b, _ := val.(bool)
	return b
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func personFromRecord(record *neo4j.Record) state.Person {
	return state.Person{
		ID:   getStringFromRecord(record, "id"),
		Name: getStringFromRecord(record, "name"),
		Position: geometry.Point{
			X: getFloat64FromRecord(record, "position_x"),
			Y: getFloat64FromRecord(record, "position_y"),
		},
	}
}

func connectionFromRecord(record *neo4j.Record) state.Connection {
	return state.Connection{
		ID:      getStringFromRecord(record, "id"),
		PersonA: getStringFromRecord(record, "person_a"),
		PersonB: getStringFromRecord(record, "person_b"),
		Type:    relation.Type(getStringFromRecord(record, "type")),
	}
}

// normalizeName applies the board's title casing and rejects blank names.
func normalizeName(raw string) (string, error) {
	name, err := state.NormalizeName(raw)
	if err != nil {
		return "", apperrors.NewValidationFailed("name", err.Error())
	}
	return name, nil
}

func validateConnectionType(t relation.Type) error {
	if strings.TrimSpace(string(t)) == "" {
		return apperrors.NewValidationFailed("connection_type", "cannot be empty")
	}
	return nil
}

func validateEndpoints(personA, personB string) error {
	if personA == "" || personB == "" {
		return apperrors.NewValidationFailed("person", "both endpoints are required")
	}
	if personA == personB {
		return apperrors.NewValidationFailed("person", "a person cannot be connected to themselves")
	}
	return nil
}
