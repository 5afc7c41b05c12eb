package dialogue

import (
	"context"
	"strings"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// Metadata keys owned by the driver.
const (
	MetaLastInbound = "last_inbound_id"
	MetaNextStart   = "next_start"
	MetaResumeState = "resume_state"
)

// Turn is the context handed to state factories and states while one inbound message is processed.
type Turn struct {
	ctx     context.Context
	app     *App
	user    *domain.User
	inbound domain.Message
	now     time.Time

	// consumed is set once a state has ingested the inbound message.
	consumed bool
	state    string
	previous string

	outbound []domain.Message
	answers  []domain.AnswerEvent
}

// User returns the user being served. States may mutate it; it is saved at the end of the turn.
func (t *Turn) User() *domain.User {
	return t.user
}

// Inbound returns the message that started the turn.
func (t *Turn) Inbound() domain.Message {
	return t.inbound
}

// Text returns the trimmed inbound content.
func (t *Turn) Text() string {
	return strings.TrimSpace(t.inbound.Text())
}

// Now returns the turn's clock reading.
func (t *Turn) Now() time.Time {
	return t.now
}

// StateName returns the state currently being run.
func (t *Turn) StateName() string {
	return t.state
}

// PreviousState returns the state the user was in when the turn started.
func (t *Turn) PreviousState() string {
	return t.previous
}

// IsUSSD reports whether the inbound message arrived over USSD.
func (t *Turn) IsUSSD() bool {
	return t.inbound.TransportType == domain.TransportUSSD
}

// Lang returns the user's language marker, if one was chosen.
func (t *Turn) Lang() string {
	return t.user.Lang
}

// Answer returns the answer recorded for state, or "".
func (t *Turn) Answer(state string) string {
	v, _ := t.user.Answer(state)
	return v
}

// SetAnswer records value for state and reports it to hooks and the answer publisher.
func (t *Turn) SetAnswer(state, value string) {
	t.user.SetAnswer(state, value)
	event := domain.AnswerEvent{
		EventBase: domain.EventBase{
			Timestamp: t.now,
			Type:      domain.EventAnswer,
			Addr:      t.user.Addr,
		},
		State:     state,
		Value:     value,
		SessionID: t.user.SessionID,
	}
	t.answers = append(t.answers, event)
	if t.app.hooks.OnAnswer != nil {
		t.app.hooks.OnAnswer(t.ctx, &event)
	}
}

// Metadata returns a per-session metadata value.
func (t *Turn) Metadata(key string) (any, bool) {
	v, ok := t.user.Metadata[key]
	return v, ok
}

// SetMetadata stores a per-session metadata value.
func (t *Turn) SetMetadata(key string, value any) {
	if t.user.Metadata == nil {
		t.user.Metadata = make(map[string]any)
	}
	t.user.Metadata[key] = value
}

// DeleteMetadata removes a per-session metadata value.
func (t *Turn) DeleteMetadata(key string) {
	delete(t.user.Metadata, key)
}

// MetadataString returns a metadata value as a string, or "".
func (t *Turn) MetadataString(key string) string {
	s, _ := t.user.Metadata[key].(string)
	return s
}

// Send queues an outbound reply to the inbound message.
func (t *Turn) Send(content string, event domain.SessionEvent, helper map[string]any) {
	t.outbound = append(t.outbound, t.inbound.Reply(content, event, helper))
}

// Outbound returns the messages queued so far.
func (t *Turn) Outbound() []domain.Message {
	return t.outbound
}

// Score sums the weights recorded under key by assessment states.
func (t *Turn) Score(key string) int {
	weights, _ := t.user.Metadata[key].(map[string]any)
	total := 0
	for _, w := range weights {
		total += toInt(w)
	}
	return total
}

// addScore records the weight a state contributed under key. Re-answering a state replaces its weight.
func (t *Turn) addScore(key, state string, weight int) {
	weights, _ := t.user.Metadata[key].(map[string]any)
	if weights == nil {
		weights = make(map[string]any)
		t.SetMetadata(key, weights)
	}
	weights[state] = weight
}

// toInt accepts the numeric shapes metadata takes before and after a JSON round trip.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
