package dialogue

import (
	"context"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// Kind tags the behaviour of a state.
type Kind string

const (
	KindMenu     Kind = "menu"
	KindChoice   Kind = "choice"
	KindList     Kind = "list"
	KindFreeText Kind = "free_text"
	KindLanguage Kind = "language"
	KindEnd      Kind = "end"
	KindAction   Kind = "action"
)

// State is a per-turn state instance.
type State interface {
	Kind() Kind
	// Display emits the state's prompt.
	Display(ctx context.Context, t *Turn) error
	// Ingest handles the inbound message of the turn.
	Ingest(ctx context.Context, t *Turn) (Transition, error)
}

// StateFactory builds a state for the current turn.
type StateFactory func(ctx context.Context, t *Turn) (State, error)

// Transition is the outcome of Ingest.
type Transition struct {
	// Next is the state to enter. Empty (with Stay unset) marks the conversation inactive.
	Next string
	// Stay keeps the user in the current state, typically after an error was shown.
	Stay bool
}

// StayHere is returned after the state re-prompted the user.
var StayHere = Transition{Stay: true}

// GoTo transitions to name.
func GoTo(name string) Transition {
	return Transition{Next: name}
}

// Next resolves the state to enter after a state accepted input.
// The zero value ends the conversation.
type Next struct {
	fixed   string
	dynamic func(ctx context.Context, t *Turn, c *domain.Choice) (string, error)
}

// To always transitions to name.
func To(name string) Next {
	return Next{fixed: name}
}

// Dynamic computes the next state from the turn and the matched choice (nil for free text).
func Dynamic(fn func(ctx context.Context, t *Turn, c *domain.Choice) (string, error)) Next {
	return Next{dynamic: fn}
}

// Resolve returns the next state name.
func (n Next) Resolve(ctx context.Context, t *Turn, c *domain.Choice) (string, error) {
	if n.dynamic != nil {
		return n.dynamic(ctx, t, c)
	}
	return n.fixed, nil
}

// Static wraps a fixed state in a factory.
func Static(s State) StateFactory {
	return func(context.Context, *Turn) (State, error) {
		return s, nil
	}
}
