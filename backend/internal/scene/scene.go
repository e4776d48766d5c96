// Package scene merges the remote snapshot with local overlays into the
// display list a renderer draws. Compose never mutates its inputs.
package scene

import (
	"themtwo/backend/internal/geometry"
	"themtwo/backend/internal/relation"
	"themtwo/backend/internal/state"
)

// Stroke widths of an edge, in world units.
const (
	StrokeNormal  = 2.5
	StrokeHovered = 5.0
	StrokePulsing = 10.0
)

// ConnectHint is shown while one person is selected.
const ConnectHint = "Click another person to connect"

// Overlay is the unconfirmed local state laid over the remote snapshot.
type Overlay struct {
	Transform geometry.Transform

	// DragPersonID is displayed at DragPosition instead of its remote position.
	DragPersonID string
	DragPosition geometry.Point
	// Settled holds positions that were committed but are not in remote yet.
	Settled map[string]geometry.Point

	// PendingTypes holds connection types written but not yet confirmed.
	PendingTypes map[string]relation.Type
	Pulsing      map[string]bool
	Hovered      string
	Selected     string
	Panning      bool
}

// Node is a person box ready to draw.
type Node struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Position geometry.Point `json:"position"`
	Center   geometry.Point `json:"center"`
	Selected bool           `json:"selected"`
	Dragging bool           `json:"dragging"`
}

// Edge is a connection curve ready to draw.
type Edge struct {
	ID          string         `json:"id"`
	PersonA     string         `json:"person_a_id"`
	PersonB     string         `json:"person_b_id"`
	Type        relation.Type  `json:"connection_type"`
	Style       relation.Style `json:"style"`
	Curve       geometry.Curve `json:"curve"`
	Path        string         `json:"path"`
	Pulsing     bool           `json:"pulsing"`
	Hovered     bool           `json:"hovered"`
	StrokeWidth float64        `json:"stroke_width"`
}

// Display is the full frame.
type Display struct {
	Version   uint64             `json:"version"`
	Loading   bool               `json:"loading"`
	Transform geometry.Transform `json:"transform"`
	Nodes     []Node             `json:"nodes"`
	Edges     []Edge             `json:"edges"`
	Legend    []relation.Style   `json:"legend"`
	Selected  string             `json:"selected,omitempty"`
	Hint      string             `json:"hint,omitempty"`
	Panning   bool               `json:"panning"`
}

// Compose builds the display for remote overlaid with overlay. A nil remote
// means the subscription has not delivered yet.
func Compose(remote *state.Snapshot, overlay Overlay) Display {
	d := Display{
		Transform: overlay.Transform,
		Legend:    relation.Legend(),
		Nodes:     []Node{},
		Edges:     []Edge{},
		Panning:   overlay.Panning,
	}
	if remote == nil {
		d.Loading = true
		return d
	}
	d.Version = remote.Version

	positions := make(map[string]geometry.Point, len(remote.People))
	for _, p := range remote.People {
		pos := p.Position
		if settled, ok := overlay.Settled[p.ID]; ok {
			pos = settled
		}
		dragging := overlay.DragPersonID != "" && overlay.DragPersonID == p.ID
		if dragging {
			pos = overlay.DragPosition
		}
		positions[p.ID] = pos
		d.Nodes = append(d.Nodes, Node{
			ID:       p.ID,
			Name:     p.Name,
			Position: pos,
			Center:   geometry.BoxCenter(pos),
			Selected: overlay.Selected == p.ID,
			Dragging: dragging,
		})
	}

	for _, c := range remote.Connections {
		a, okA := positions[c.PersonA]
		b, okB := positions[c.PersonB]
		if !okA || !okB {
			continue
		}
		typ := c.Type
		if pending, ok := overlay.PendingTypes[c.ID]; ok {
			typ = pending
		}
		curve := geometry.NewCurve(geometry.BoxCenter(a), geometry.BoxCenter(b))
		e := Edge{
			ID:      c.ID,
			PersonA: c.PersonA,
			PersonB: c.PersonB,
			Type:    typ,
			Style:   relation.StyleFor(typ),
			Curve:   curve,
			Path:    curve.PathData(),
			Pulsing: overlay.Pulsing[c.ID],
			Hovered: overlay.Hovered == c.ID,
		}
		e.StrokeWidth = strokeWidth(e)
		d.Edges = append(d.Edges, e)
	}

	if overlay.Selected != "" && remote.HasPerson(overlay.Selected) {
		d.Selected = overlay.Selected
		d.Hint = ConnectHint
	}
	return d
}

func strokeWidth(e Edge) float64 {
	switch {
	case e.Pulsing:
		return StrokePulsing
	case e.Hovered:
		return StrokeHovered
	}
	return StrokeNormal
}

// NodeAt returns the topmost node whose box contains the world point.
func (d Display) NodeAt(world geometry.Point) (Node, bool) {
	for i := len(d.Nodes) - 1; i >= 0; i-- {
		if geometry.BoxContains(d.Nodes[i].Position, world) {
			return d.Nodes[i], true
		}
	}
	return Node{}, false
}

// EdgeAt returns the nearest edge within tolerance world units of the point.
func (d Display) EdgeAt(world geometry.Point, tolerance float64) (Edge, bool) {
	best := -1
	bestDist := tolerance
	for i, e := range d.Edges {
		if dist := e.Curve.Distance(world); dist <= bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return Edge{}, false
	}
	return d.Edges[best], true
}

// Node looks up a node by id.
func (d Display) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge looks up an edge by id.
func (d Display) Edge(id string) (Edge, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}
