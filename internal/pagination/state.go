// Package pagination models page buttons as a small state machine and
// computes the page window shown for paged lists.
package pagination

// State is the visual state of one page button.
type State string

const (
	StateDefault      State = "default"
	StateHover        State = "hover"
	StateCurrent      State = "current"
	StateCurrentHover State = "current-hover"
)

// Event is an input to a page button.
type Event string

const (
	EventEnter    Event = "enter"
	EventLeave    Event = "leave"
	EventSelect   Event = "select"
	EventDeselect Event = "deselect"
)

type transitionKey struct {
	from State
	on   Event
}

var transitions = map[transitionKey]State{
	{StateDefault, EventEnter}:         StateHover,
	{StateHover, EventLeave}:           StateDefault,
	{StateDefault, EventSelect}:        StateCurrent,
	{StateHover, EventSelect}:          StateCurrentHover,
	{StateCurrent, EventEnter}:         StateCurrentHover,
	{StateCurrentHover, EventLeave}:    StateCurrent,
	{StateCurrent, EventDeselect}:      StateDefault,
	{StateCurrentHover, EventDeselect}: StateHover,
}

// Transition returns the state reached from s on e. Events with no entry in
// the table leave the state unchanged; ok is false in that case.
func Transition(s State, e Event) (next State, ok bool) {
	next, ok = transitions[transitionKey{s, e}]
	if !ok {
		return s, false
	}
	return next, true
}

// IsCurrent reports whether s belongs to the selected page.
func (s State) IsCurrent() bool {
	return s == StateCurrent || s == StateCurrentHover
}

// Button is one entry of a rendered page selector. Gap entries carry no
// state.
type Button struct {
	Page  int   `json:"page"`
	State State `json:"state,omitempty"`
}

// Buttons renders the window of p with its current page selected.
func Buttons(p Page) []Button {
	out := make([]Button, len(p.Window))
	for i, n := range p.Window {
		out[i].Page = n
		if n == Gap {
			continue
		}
		s := StateDefault
		if n == p.Number {
			s, _ = Transition(s, EventSelect)
		}
		out[i].State = s
	}
	return out
}
