package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UserState wraps the name of the state the user is currently in.
// A nil Name means the conversation is inactive.
type UserState struct {
	Name *string `json:"name"`
}

// Answers maps state names to the value recorded when that state accepted input.
// Insertion order reflects dialogue progression.
type Answers = orderedmap.OrderedMap[string, string]

// User is the per-user record persisted between turns.
type User struct {
	Addr      string         `json:"addr"`
	State     UserState      `json:"state"`
	Answers   *Answers       `json:"answers"`
	Metadata  map[string]any `json:"metadata"`
	SessionID *int64         `json:"session_id"`
	Lang      string         `json:"lang,omitempty"`
}

// NewUser creates a user on first contact with no current state.
func NewUser(addr string) *User {
	return &User{
		Addr:     addr,
		Answers:  orderedmap.New[string, string](),
		Metadata: make(map[string]any),
	}
}

// StateName returns the current state name or "" when inactive.
func (u *User) StateName() string {
	if u.State.Name == nil {
		return ""
	}
	return *u.State.Name
}

// SetStateName sets the current state. An empty name clears it.
func (u *User) SetStateName(name string) {
	if name == "" {
		u.State.Name = nil
		return
	}
	n := name
	u.State.Name = &n
}

// Answer returns the recorded answer for a state.
func (u *User) Answer(state string) (string, bool) {
	u.ensure()
	return u.Answers.Get(state)
}

// SetAnswer records (or overwrites) the answer for a state.
func (u *User) SetAnswer(state, value string) {
	u.ensure()
	u.Answers.Set(state, value)
}

// DeleteAnswer removes a recorded answer.
func (u *User) DeleteAnswer(state string) {
	u.ensure()
	u.Answers.Delete(state)
}

// AnswerMap returns a copy of the answers as a plain map.
func (u *User) AnswerMap() map[string]string {
	u.ensure()
	out := make(map[string]string, u.Answers.Len())
	for pair := u.Answers.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// Clone returns a deep copy of the user suitable for isolated mutation.
func (u *User) Clone() *User {
	u.ensure()
	c := *u
	if u.State.Name != nil {
		n := *u.State.Name
		c.State.Name = &n
	}
	if u.SessionID != nil {
		s := *u.SessionID
		c.SessionID = &s
	}
	c.Answers = orderedmap.New[string, string]()
	for pair := u.Answers.Oldest(); pair != nil; pair = pair.Next() {
		c.Answers.Set(pair.Key, pair.Value)
	}
	c.Metadata = CopyMap(u.Metadata)
	return &c
}

func (u *User) ensure() {
	if u.Answers == nil {
		u.Answers = orderedmap.New[string, string]()
	}
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
}

// CopyMap deep copies nested maps and shallow copies other values.
func CopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = CopyMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}
