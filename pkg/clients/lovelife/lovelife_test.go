package lovelife_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/lovelife"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueCallback(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodPost, "/lovelife/v1/queuemessage", apptest.JSON(map[string]any{"ok": true}))
	client := lovelife.New(upstream.New(), srv.URL)

	require.NoError(t, client.QueueCallback(context.Background(), "0820001001"))

	var body map[string]string
	require.NoError(t, srv.Requests(http.MethodPost, "/lovelife/v1/queuemessage")[0].JSON(&body))
	assert.Equal(t, map[string]string{"PhoneNumber": "0820001001", "SourceSystem": lovelife.DefaultSourceSystem}, body)
}
