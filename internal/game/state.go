package game

import (
	"encoding/json"
	"strings"
)

// State is the phase of the board.
type State int

const (
	Selecting State = iota
	Revealing
	Resolved
)

func (s State) String() string {
	switch s {
	case Revealing:
		return "revealing"
	case Resolved:
		return "resolved"
	}
	return "selecting"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Round holds both picks. It exists only while Revealing or Resolved.
type Round struct {
	Player Choice `json:"player"`
	House  Choice `json:"house,omitempty"`
}

// Target describes the element a user activated.
type Target struct {
	ID      string
	Control bool // the element is an actionable control (a button)
}

// NewTarget builds a Target from an element id and its tag name.
func NewTarget(id, tag string) Target {
	return Target{
		ID:      strings.TrimSpace(id),
		Control: strings.EqualFold(strings.TrimSpace(tag), "button"),
	}
}

// Snapshot is a copy of the machine state handed to renderers.
type Snapshot struct {
	State      State   `json:"state"`
	Round      *Round  `json:"round,omitempty"`
	Outcome    Outcome `json:"outcome"` // meaningful only when State == Resolved
	Score      int     `json:"score"`
	Generation uint64  `json:"generation"`

	// Changed reports whether the action that produced this snapshot moved
	// the board. Ignored input leaves it false.
	Changed bool `json:"-"`
}

// MarshalJSON omits the outcome until the round is resolved.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	out := struct {
		plain
		Outcome *Outcome `json:"outcome,omitempty"`
	}{plain: plain(s)}
	if s.State == Resolved {
		o := s.Outcome
		out.Outcome = &o
	}
	return json.Marshal(out)
}

// HasRound reports whether a round is active.
func (s Snapshot) HasRound() bool {
	return s.Round != nil
}

// Concealed returns a copy with the house pick removed while it is still
// hidden on the board.
func (s Snapshot) Concealed() Snapshot {
	if s.State != Revealing || s.Round == nil {
		return s
	}
	r := *s.Round
	r.House = ""
	s.Round = &r
	return s
}

// Surface receives the machine's side effects. NewMachine refuses to build
// a machine without one.
type Surface interface {
	Show(Snapshot)
	ShowScore(score int)
}
