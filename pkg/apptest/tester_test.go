package apptest_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingScript(base string, client *upstream.Client) *dialogue.Script {
	s := dialogue.NewScript("ping", "state_ping")
	s.Handle("state_ping", dialogue.Static(&dialogue.Action{Run: func(ctx context.Context, t *dialogue.Turn) (string, error) {
		var out struct {
			Reply string `json:"reply"`
		}
		if err := client.JSON(ctx, upstream.Request{Service: "ping", URL: base + "/ping"}, &out); err != nil {
			return "state_error", nil
		}
		t.SetMetadata("reply", out.Reply)
		return "state_pong", nil
	}}))
	s.Handle("state_pong", dialogue.Static(&dialogue.End{Text: "pong"}))
	s.Handle("state_error", dialogue.Static(&dialogue.End{Text: "sorry"}))
	return s
}

func TestTester_WithMockServer(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodGet, "/ping", apptest.Status(http.StatusServiceUnavailable), apptest.JSON(map[string]string{"reply": "hello"}))

	app := dialogue.New(pingScript(srv.URL, upstream.New()))
	tester := apptest.New(t, app)

	tester.Start()

	tester.AssertMessage("pong")
	tester.AssertSessionEvent(domain.SessionClose)
	tester.AssertInactive()
	tester.AssertMetadata("reply", "hello")
	assert.Len(t, srv.Requests(http.MethodGet, "/ping"), 2)
}

func TestTester_UnscriptedRouteIs404(t *testing.T) {
	srv := apptest.NewMockServer(t)
	app := dialogue.New(pingScript(srv.URL, upstream.New()))
	tester := apptest.New(t, app)

	tester.Start()

	tester.AssertMessage("sorry")
	require.Len(t, srv.AllRequests(), 1, "404 is permanent")
}

func TestTester_AssertMessageContains(t *testing.T) {
	s := dialogue.NewScript("menu", "state_menu")
	s.Handle("state_menu", dialogue.Static(&dialogue.Menu{
		Question: "Pick",
		Choices:  []domain.Choice{domain.NewChoice("a", "Apple"), domain.NewChoice("b", "Banana")},
		Next:     dialogue.To("state_menu"),
	}))
	tester := apptest.New(t, dialogue.New(s)).USSD()

	tester.Start()
	tester.AssertMessageContains("Pick", "1. Apple", "2. Banana")
	tester.AssertMaxLength(dialogue.USSDLimit)
	assert.Equal(t, domain.TransportUSSD, tester.LastMessage().TransportType)

	tester.Send("2")
	tester.AssertAnswer("state_menu", "b")
	tester.AssertState("state_menu")
	assert.Len(t, tester.History(), 2)
}
