// Package selection implements the two-click connect gesture: the first click
// on a person selects it, a click on a second person connects the pair.
package selection

import (
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
)

// State is the machine state.
type State int

const (
	Idle State = iota
	OneSelected
)

func (s State) String() string {
	if s == OneSelected {
		return "one_selected"
	}
	return "idle"
}

// Action is the side effect a transition asks the caller to carry out.
type Action int

const (
	// ActionNone changes nothing.
	ActionNone Action = iota
	// ActionSelect selected a first person.
	ActionSelect
	// ActionDeselect cleared the selection.
	ActionDeselect
	// ActionConnect asks for a new connection between PersonA and PersonB.
	ActionConnect
	// ActionAlreadyConnected found an existing connection and only cleared the selection.
	ActionAlreadyConnected
	// ActionIgnored dropped a click on a person the snapshot does not know.
	ActionIgnored
)

func (a Action) String() string {
	switch a {
	case ActionSelect:
		return "select"
	case ActionDeselect:
		return "deselect"
	case ActionConnect:
		return "connect"
	case ActionAlreadyConnected:
		return "already_connected"
	case ActionIgnored:
		return "ignored"
	}
	return "none"
}

// Transition describes one step of the machine.
type Transition struct {
	From    State
	To      State
	Action  Action
	PersonA string
	PersonB string
	Type    relation.Type
	// Existing is set for ActionAlreadyConnected.
	Existing string
}

// Machine holds at most one selected person id.
type Machine struct {
	selected string
}

// New returns an idle machine.
func New() *Machine {
	return &Machine{}
}

// State returns the current state.
func (m *Machine) State() State {
	if m.selected == "" {
		return Idle
	}
	return OneSelected
}

// Selected returns the selected person id.
func (m *Machine) Selected() (string, bool) {
	return m.selected, m.selected != ""
}

// IsSelected reports whether personID is the current selection.
func (m *Machine) IsSelected(personID string) bool {
	return m.selected != "" && m.selected == personID
}

// Click applies a click on personID, checking existence and duplicates
// against snap.
func (m *Machine) Click(personID string, snap *state.Snapshot) Transition {
	from := m.State()
	t := Transition{From: from}

	if personID == "" || !snap.HasPerson(personID) {
		t.To = from
		t.Action = ActionIgnored
		return t
	}

	// a selection whose person vanished before we observed it counts as idle
	if from == OneSelected && !snap.HasPerson(m.selected) {
		m.selected = ""
		from = Idle
	}

	switch {
	case from == Idle:
		m.selected = personID
		t.Action = ActionSelect
		t.PersonA = personID
	case m.selected == personID:
		m.selected = ""
		t.Action = ActionDeselect
		t.PersonA = personID
	default:
		a := m.selected
		m.selected = ""
		t.PersonA = a
		t.PersonB = personID
		if existing, ok := snap.ConnectionBetween(a, personID); ok {
			t.Action = ActionAlreadyConnected
			t.Existing = existing.ID
		} else {
			t.Action = ActionConnect
			t.Type = relation.Default
		}
	}
	t.To = m.State()
	return t
}

// BackgroundClick forces the machine back to Idle.
func (m *Machine) BackgroundClick() Transition {
	t := Transition{From: m.State(), To: Idle}
	if m.selected != "" {
		t.Action = ActionDeselect
		t.PersonA = m.selected
	}
	m.selected = ""
	return t
}

// Observe clears the selection when the selected person is missing from the
// latest snapshot. It reports whether the selection was dropped.
func (m *Machine) Observe(snap *state.Snapshot) bool {
	if m.selected == "" || snap == nil {
		return false
	}
	if snap.HasPerson(m.selected) {
		return false
	}
	m.selected = ""
	return true
}
