package state

import (
	"fmt"
	"strings"
	"unicode"

	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/relation"
)

// Person is a node on the board. Position is the top-left corner of its box in
// world coordinates.
type Person struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Position geometry.Point `json:"position"`
}

// Connection is an undirected, typed edge between two people. PersonA and
// PersonB keep insertion order only.
type Connection struct {
	ID      string        `json:"id"`
	PersonA string        `json:"person_a_id"`
	PersonB string        `json:"person_b_id"`
	Type    relation.Type `json:"connection_type"`
}

// Involves reports whether personID is either endpoint.
func (c Connection) Involves(personID string) bool {
	return c.PersonA == personID || c.PersonB == personID
}

// Links reports whether the connection joins a and b in either order.
func (c Connection) Links(a, b string) bool {
	return (c.PersonA == a && c.PersonB == b) || (c.PersonA == b && c.PersonB == a)
}

// Snapshot is one delivery of the live subscription: every person and every
// connection as the store saw them at Version. Versions restart with every
// Epoch, so they only order snapshots that share one.
type Snapshot struct {
	Epoch       string       `json:"epoch,omitempty"`
	Version     uint64       `json:"version"`
	People      []Person     `json:"people"`
	Connections []Connection `json:"connections"`
}

// Person looks up a person by id.
func (s *Snapshot) Person(id string) (Person, bool) {
	if s == nil {
		return Person{}, false
	}
	for _, p := range s.People {
		if p.ID == id {
			return p, true
		}
	}
	return Person{}, false
}

// HasPerson reports whether id is present in the snapshot.
func (s *Snapshot) HasPerson(id string) bool {
	_, ok := s.Person(id)
	return ok
}

// Connection looks up a connection by id.
func (s *Snapshot) Connection(id string) (Connection, bool) {
	if s == nil {
		return Connection{}, false
	}
	for _, c := range s.Connections {
		if c.ID == id {
			return c, true
		}
	}
	return Connection{}, false
}

// ConnectionBetween finds the connection joining a and b regardless of order.
func (s *Snapshot) ConnectionBetween(a, b string) (Connection, bool) {
	if s == nil {
		return Connection{}, false
	}
	for _, c := range s.Connections {
		if c.Links(a, b) {
			return c, true
		}
	}
	return Connection{}, false
}

// ConnectionsFor returns every connection with personID on either side.
func (s *Snapshot) ConnectionsFor(personID string) []Connection {
	out := []Connection{}
	if s == nil {
		return out
	}
	for _, c := range s.Connections {
		if c.Involves(personID) {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks the snapshot for entries a renderer could not place.
func (s *Snapshot) Validate() error {
	for i, p := range s.People {
		if p.ID == "" {
			return ErrInvalidPerson{Index: i, Field: "id", Reason: "cannot be empty"}
		}
		if strings.TrimSpace(p.Name) == "" {
			return ErrInvalidPerson{Index: i, Field: "name", Reason: "cannot be empty"}
		}
	}
	for i, c := range s.Connections {
		if c.PersonA == "" || c.PersonB == "" {
			return ErrInvalidConnection{Index: i, Reason: "missing endpoint"}
		}
		if c.PersonA == c.PersonB {
			return ErrInvalidConnection{Index: i, Reason: "self connection"}
		}
	}
	return nil
}

// NormalizeName trims raw, lowercases it and capitalises the first letter of
// every word. An empty result is rejected.
func NormalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyName
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	inWord := false
	for _, r := range strings.ToLower(trimmed) {
		word := r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
		if word && !inWord {
			r = unicode.ToUpper(r)
		}
		inWord = word
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Errors

// ErrEmptyName is returned when a name is blank after trimming.
var ErrEmptyName = fmt.Errorf("name cannot be empty")

type ErrInvalidPerson struct {
	Index  int
	Field  string
	Reason string
}

func (e ErrInvalidPerson) Error() string {
	return fmt.Sprintf("invalid person at index %d: %s - %s", e.Index, e.Field, e.Reason)
}

type ErrInvalidConnection struct {
	Index  int
	Reason string
}

func (e ErrInvalidConnection) Error() string {
	return fmt.Sprintf("invalid connection at index %d: %s", e.Index, e.Reason)
}
