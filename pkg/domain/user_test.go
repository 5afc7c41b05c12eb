package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_AnswersKeepDialogueOrder(t *testing.T) {
	u := NewUser("whatsapp:27820001001")
	u.SetAnswer("state_first_name", "Jane")
	u.SetAnswer("state_surname", "Doe")
	u.SetAnswer("state_age", "30")
	u.SetAnswer("state_first_name", "Janet") // overwrite keeps position

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"answers":{"state_first_name":"Janet","state_surname":"Doe","state_age":"30"}`)

	var loaded User
	require.NoError(t, json.Unmarshal(data, &loaded))

	var keys []string
	for pair := loaded.Answers.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"state_first_name", "state_surname", "state_age"}, keys)
	v, ok := loaded.Answer("state_first_name")
	assert.True(t, ok)
	assert.Equal(t, "Janet", v)
}

func TestUser_StateName(t *testing.T) {
	u := NewUser("27820001001")
	assert.Equal(t, "", u.StateName())
	assert.Nil(t, u.State.Name)

	u.SetStateName("state_start")
	assert.Equal(t, "state_start", u.StateName())

	u.SetStateName("")
	assert.Nil(t, u.State.Name)
}

func TestUser_CloneIsIsolated(t *testing.T) {
	u := NewUser("27820001001")
	u.SetAnswer("a", "1")
	u.Metadata["nested"] = map[string]any{"k": "v"}
	sid := int64(7)
	u.SessionID = &sid

	c := u.Clone()
	c.SetAnswer("a", "2")
	c.Metadata["nested"].(map[string]any)["k"] = "changed"
	*c.SessionID = 8

	v, _ := u.Answer("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, "v", u.Metadata["nested"].(map[string]any)["k"])
	assert.Equal(t, int64(7), *u.SessionID)
}

func TestMessage_ReplyCorrelates(t *testing.T) {
	in := NewInbound("27820001001", "110", "whatsapp", TransportHTTPAPI, StringPtr("hi"), SessionResume)
	out := in.Reply("hello", SessionNone, map[string]any{HelperButtons: []string{"a"}})

	assert.Equal(t, in.MessageID, out.InReplyTo)
	assert.NotEqual(t, in.MessageID, out.MessageID)
	assert.Equal(t, "110", out.FromAddr)
	assert.Equal(t, "27820001001", out.ToAddr)
	assert.Equal(t, "whatsapp", out.TransportName)
	assert.Equal(t, "hello", out.Text())
}
