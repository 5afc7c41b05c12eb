package aaq_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/aaq"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndPage(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodPost, "/inbound/check", apptest.JSON(map[string]any{
			"top_responses":       [][]string{{"Title 1", "Body 1"}, {"Title 2", "Body 2"}, {"broken"}},
			"feedback_secret_key": "fsk",
			"inbound_secret_key":  "isk",
			"inbound_id":          42,
			"next_page_url":       "/inbound/42/2?inbound_secret_key=isk",
		})).
		On(http.MethodGet, "/inbound/42/2", apptest.JSON(map[string]any{
			"top_responses": [][]string{{"Title 4", "Body 4"}},
			"inbound_id":    42,
			"prev_page_url": "/inbound/42/1",
		}))
	client := aaq.New(upstream.New(), srv.URL, "token")
	ctx := context.Background()

	res, err := client.Check(ctx, "covid symptoms", nil)
	require.NoError(t, err)
	assert.Equal(t, []aaq.Answer{{Title: "Title 1", Body: "Body 1"}, {Title: "Title 2", Body: "Body 2"}}, res.Answers())
	assert.Equal(t, int64(42), res.InboundID)
	assert.False(t, res.Empty())

	check := srv.Requests(http.MethodPost, "/inbound/check")
	require.Len(t, check, 1)
	assert.Equal(t, "Bearer token", check[0].Header.Get("Authorization"))
	var body map[string]any
	require.NoError(t, check[0].JSON(&body))
	assert.Equal(t, "covid symptoms", body["text_to_match"])
	assert.Equal(t, map[string]any{}, body["metadata"])

	page, err := client.Page(ctx, res.NextPageURL)
	require.NoError(t, err)
	assert.Equal(t, "Title 4", page.Answers()[0].Title)
	reqs := srv.Requests(http.MethodGet, "/inbound/42/2")
	require.Len(t, reqs, 1)
	assert.Equal(t, "isk", reqs[0].Query.Get("inbound_secret_key"))
}

func TestCheck_EmptyIsNotAnError(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, "/inbound/check", apptest.JSON(map[string]any{"top_responses": []any{}}))
	client := aaq.New(upstream.New(), srv.URL, "token")

	res, err := client.Check(context.Background(), "???", map[string]any{"lang": "en"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestSendFeedback(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodPost, "/inbound/feedback", apptest.Status(http.StatusAccepted)).
		On(http.MethodPut, "/inbound/feedback", apptest.Status(http.StatusAccepted))
	client := aaq.New(upstream.New(), srv.URL, "token")
	fb := aaq.Feedback{InboundID: 42, FeedbackSecretKey: "fsk", Feedback: map[string]any{"feedback_type": "positive", "page_number": "1"}}

	require.NoError(t, client.SendFeedback(context.Background(), fb, false))
	require.NoError(t, client.SendFeedback(context.Background(), fb, true))

	posts := srv.Requests(http.MethodPost, "/inbound/feedback")
	require.Len(t, posts, 1)
	var body aaq.Feedback
	require.NoError(t, posts[0].JSON(&body))
	assert.Equal(t, fb, body)
	assert.Len(t, srv.Requests(http.MethodPut, "/inbound/feedback"), 1)
}
