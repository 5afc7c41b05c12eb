package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter   EventType = "state_enter"
	EventAnswer       EventType = "answer"
	EventTurnEnd      EventType = "turn_end"
	EventUpstreamCall EventType = "upstream_call"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Addr      string    `json:"addr"`
}

// StateEvent is emitted whenever the driver enters a state.
type StateEvent struct {
	EventBase
	State string `json:"state"`
	Kind  string `json:"kind"`
}

// AnswerEvent is emitted when a state records an answer.
type AnswerEvent struct {
	EventBase
	State     string `json:"state"`
	Value     string `json:"value"`
	SessionID *int64 `json:"session_id,omitempty"`
}

// TurnEvent is emitted once per processed inbound message.
type TurnEvent struct {
	EventBase
	FinalState string        `json:"final_state"`
	Hops       int           `json:"hops"`
	Outbound   int           `json:"outbound"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// UpstreamEvent records one attempt against an HTTP collaborator.
type UpstreamEvent struct {
	EventBase
	Service    string        `json:"service"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	Attempt    int           `json:"attempt"`
	StatusCode int           `json:"status_code,omitempty"`
	Duration   time.Duration `json:"duration"`
	Request    []byte        `json:"request,omitempty"`
	Response   []byte        `json:"response,omitempty"`
	Err        error         `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnStateEnter   func(context.Context, *StateEvent)
	OnAnswer       func(context.Context, *AnswerEvent)
	OnTurnEnd      func(context.Context, *TurnEvent)
	OnUpstreamCall func(context.Context, *UpstreamEvent)
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter:   chain(h.OnStateEnter, o.OnStateEnter),
		OnAnswer:       chain(h.OnAnswer, o.OnAnswer),
		OnTurnEnd:      chain(h.OnTurnEnd, o.OnTurnEnd),
		OnUpstreamCall: chain(h.OnUpstreamCall, o.OnUpstreamCall),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
