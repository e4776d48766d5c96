// Package relation defines the closed ring of connection types and the
// visual style attached to each one.
package relation

// Type is the string tag stored on a connection.
type Type string

const (
	Kissed Type = "kissed"
	Fucked Type = "fucked"
	Talked Type = "talked"
	Dated  Type = "dated"
)

// Default is the type given to a freshly created connection.
const Default = Kissed

// ring is the click order. Advance walks it and wraps at the end.
var ring = []Type{Kissed, Fucked, Talked, Dated}

// Ring returns a copy of the type ring in click order.
func Ring() []Type {
	out := make([]Type, len(ring))
	copy(out, ring)
	return out
}

// Known reports whether t is part of the ring.
func Known(t Type) bool {
	return indexOf(t) >= 0
}

// Advance returns the type that follows t. Unknown or legacy values restart
// the ring at its first entry.
func Advance(t Type) Type {
	return ring[(indexOf(t)+1)%len(ring)]
}

func indexOf(t Type) int {
	for i, r := range ring {
		if r == t {
			return i
		}
	}
	return -1
}

// Style is the rendering hint for an edge of a given type.
type Style struct {
	Gradient string  `json:"gradient"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Opacity  float64 `json:"opacity"`
	Label    string  `json:"label"`
}

var styles = map[Type]Style{
	Kissed: {Gradient: "gradient-kissed", From: "#f9a8d4", To: "#fb7185", Opacity: 0.8, Label: "Kissed"},
	Fucked: {Gradient: "gradient-fucked", From: "#fb923c", To: "#ef4444", Opacity: 0.8, Label: "Fucked"},
	Talked: {Gradient: "gradient-talked", From: "#94a3b8", To: "#64748b", Opacity: 0.8, Label: "Talked"},
	Dated:  {Gradient: "gradient-dated", From: "#c084fc", To: "#a855f7", Opacity: 0.8, Label: "Dated"},
}

// StyleFor returns the style of t. Types outside the ring borrow the style of
// the last ring entry.
func StyleFor(t Type) Style {
	if s, ok := styles[t]; ok {
		return s
	}
	return styles[ring[len(ring)-1]]
}

// Legend lists the styles in ring order.
func Legend() []Style {
	out := make([]Style, 0, len(ring))
	for _, t := range ring {
		out = append(out, styles[t])
	}
	return out
}
