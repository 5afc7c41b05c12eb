// Package apptest drives a dialogue App in-process for tests.
//
// A Tester owns a deterministic user, sends inbound messages on its behalf and keeps the
// outbound messages of the last turn for assertions:
//
//	tester := apptest.New(t, app)
//	tester.SetState("state_eat_fruits")
//	tester.Send("1")
//	tester.AssertState("state_eat_vegetables")
//	tester.AssertAnswer("state_eat_fruits", "yes")
package apptest

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Default addresses used by the Tester.
const (
	DefaultUserAddr = "27820001001"
	DefaultAppAddr  = "27820001002"
)

// Tester runs turns against a single in-memory user.
type Tester struct {
	t   testing.TB
	app *dialogue.App
	ctx context.Context

	User          *domain.User
	AppAddr       string
	TransportName string
	TransportType domain.TransportType

	outbound []domain.Message
	history  []domain.Message
}

// New creates a tester for app with a fresh user on the HTTP API (WhatsApp) transport.
func New(t testing.TB, app *dialogue.App) *Tester {
	t.Helper()
	return &Tester{
		t:             t,
		app:           app,
		ctx:           context.Background(),
		User:          domain.NewUser(DefaultUserAddr),
		AppAddr:       DefaultAppAddr,
		TransportName: "whatsapp",
		TransportType: domain.TransportHTTPAPI,
	}
}

// USSD switches the tester to the USSD transport.
func (tt *Tester) USSD() *Tester {
	tt.TransportName = "ussd"
	tt.TransportType = domain.TransportUSSD
	return tt
}

// WithContext sets the context used for turns.
func (tt *Tester) WithContext(ctx context.Context) *Tester {
	tt.ctx = ctx
	return tt
}

// SetState puts the user in state name.
func (tt *Tester) SetState(name string) {
	tt.User.SetStateName(name)
}

// SetAnswer pre-populates an answer.
func (tt *Tester) SetAnswer(state, value string) {
	tt.User.SetAnswer(state, value)
}

// SetMetadata pre-populates a metadata value.
func (tt *Tester) SetMetadata(key string, value any) {
	tt.User.Metadata[key] = value
}

// Message builds an inbound message from the tester's user.
func (tt *Tester) Message(content *string, event domain.SessionEvent) domain.Message {
	return domain.NewInbound(tt.User.Addr, tt.AppAddr, tt.TransportName, tt.TransportType, content, event)
}

// Send sends content as a RESUME message and returns the outbound messages.
func (tt *Tester) Send(content string) []domain.Message {
	tt.t.Helper()
	return tt.SendMessage(tt.Message(domain.StringPtr(content), domain.SessionResume))
}

// Start sends an empty NEW session message.
func (tt *Tester) Start() []domain.Message {
	tt.t.Helper()
	return tt.SendMessage(tt.Message(nil, domain.SessionNew))
}

// Close sends a CLOSE session event.
func (tt *Tester) Close() []domain.Message {
	tt.t.Helper()
	return tt.SendMessage(tt.Message(nil, domain.SessionClose))
}

// SendMessage runs one turn with msg. A driver error fails the test.
func (tt *Tester) SendMessage(msg domain.Message) []domain.Message {
	tt.t.Helper()
	out, err := tt.app.Process(tt.ctx, tt.User, msg)
	require.NoError(tt.t, err, "turn failed")
	tt.outbound = out
	tt.history = append(tt.history, out...)
	return out
}

// Outbound returns the messages of the last turn.
func (tt *Tester) Outbound() []domain.Message {
	return tt.outbound
}

// History returns every outbound message sent so far.
func (tt *Tester) History() []domain.Message {
	return tt.history
}

// AssertState checks the user's current state.
func (tt *Tester) AssertState(name string) {
	tt.t.Helper()
	assert.Equal(tt.t, name, tt.User.StateName(), "user state")
}

// AssertInactive checks the conversation has ended.
func (tt *Tester) AssertInactive() {
	tt.t.Helper()
	assert.Nil(tt.t, tt.User.State.Name, "expected no current state")
}

// AssertAnswer checks a recorded answer.
func (tt *Tester) AssertAnswer(state, value string) {
	tt.t.Helper()
	got, ok := tt.User.Answer(state)
	if assert.True(tt.t, ok, "no answer recorded for %s", state) {
		assert.Equal(tt.t, value, got, "answer for %s", state)
	}
}

// AssertNoAnswer checks that state has not recorded an answer.
func (tt *Tester) AssertNoAnswer(state string) {
	tt.t.Helper()
	_, ok := tt.User.Answer(state)
	assert.False(tt.t, ok, "unexpected answer for %s", state)
}

// AssertMetadata checks a metadata value.
func (tt *Tester) AssertMetadata(key string, value any) {
	tt.t.Helper()
	assert.Equal(tt.t, value, tt.User.Metadata[key], "metadata %s", key)
}

// AssertNumMessages checks how many messages the last turn sent.
func (tt *Tester) AssertNumMessages(n int) {
	tt.t.Helper()
	assert.Len(tt.t, tt.outbound, n, "outbound messages")
}

// LastMessage returns the last outbound message of the last turn, failing the test if there is none.
func (tt *Tester) LastMessage() domain.Message {
	tt.t.Helper()
	require.NotEmpty(tt.t, tt.outbound, "no outbound messages")
	return tt.outbound[len(tt.outbound)-1]
}

// AssertMessage checks the content of the only message of the last turn.
func (tt *Tester) AssertMessage(content string) {
	tt.t.Helper()
	require.Len(tt.t, tt.outbound, 1, "expected exactly one outbound message")
	assert.Equal(tt.t, content, tt.outbound[0].Text())
}

// AssertMessageContains checks that the last message contains every part, in order.
func (tt *Tester) AssertMessageContains(parts ...string) {
	tt.t.Helper()
	text := tt.LastMessage().Text()
	rest := text
	for _, p := range parts {
		i := strings.Index(rest, p)
		if !assert.GreaterOrEqual(tt.t, i, 0, "%q not found (in order) in %q", p, text) {
			return
		}
		rest = rest[i+len(p):]
	}
}

// AssertSessionEvent checks the session event of the last message.
func (tt *Tester) AssertSessionEvent(event domain.SessionEvent) {
	tt.t.Helper()
	assert.Equal(tt.t, event, tt.LastMessage().SessionEvent, "session event")
}

// AssertMaxLength checks every message of the last turn fits in limit characters.
func (tt *Tester) AssertMaxLength(limit int) {
	tt.t.Helper()
	for _, m := range tt.outbound {
		assert.LessOrEqual(tt.t, utf8.RuneCountInString(m.Text()), limit, "message too long: %q", m.Text())
	}
}

// AssertHelper checks a helper metadata value on the last message.
func (tt *Tester) AssertHelper(key string, value any) {
	tt.t.Helper()
	assert.Equal(tt.t, value, tt.LastMessage().HelperMetadata[key], "helper metadata %s", key)
}
