package rapidpro_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/rapidpro"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactsPath = "/api/v2/contacts.json"

func TestContact(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodGet, contactsPath,
		apptest.JSON(map[string]any{"results": []any{map[string]any{
			"uuid":   "c-1",
			"name":   "Jane",
			"urns":   []string{"whatsapp:27820001001"},
			"fields": map[string]any{"preferred_channel": "WhatsApp", "age": 30},
		}}}),
		apptest.JSON(map[string]any{"results": []any{}}),
	)
	client := rapidpro.New(upstream.New(), srv.URL, "tok")
	ctx := context.Background()

	contact, err := client.Contact(ctx, rapidpro.URN("+27820001001"))
	require.NoError(t, err)
	assert.Equal(t, "c-1", contact.UUID)
	assert.Equal(t, "WhatsApp", contact.Field("preferred_channel"))
	assert.Empty(t, contact.Field("age"))

	reqs := srv.Requests(http.MethodGet, contactsPath)
	assert.Equal(t, "whatsapp:27820001001", reqs[0].Query.Get("urn"))
	assert.Equal(t, "Token tok", reqs[0].Header.Get("Authorization"))

	_, err = client.Contact(ctx, "whatsapp:27820009999")
	assert.ErrorIs(t, err, rapidpro.ErrContactNotFound)
}

func TestUpdateContactAndStartFlow(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodPost, contactsPath, apptest.JSON(map[string]any{})).
		On(http.MethodPost, "/api/v2/flow_starts.json", apptest.Status(http.StatusCreated))
	client := rapidpro.New(upstream.New(), srv.URL, "tok")
	ctx := context.Background()

	require.NoError(t, client.UpdateContact(ctx, "whatsapp:27820001001", map[string]any{"vaccine_registered": "TRUE"}))
	require.NoError(t, client.StartFlow(ctx, rapidpro.FlowStart{Flow: "flow-1", URNs: []string{"whatsapp:27820001001"}}))

	var update map[string]any
	require.NoError(t, srv.Requests(http.MethodPost, contactsPath)[0].JSON(&update))
	assert.Equal(t, map[string]any{"fields": map[string]any{"vaccine_registered": "TRUE"}}, update)

	var start map[string]any
	require.NoError(t, srv.Requests(http.MethodPost, "/api/v2/flow_starts.json")[0].JSON(&start))
	assert.Equal(t, "flow-1", start["flow"])
	assert.NotContains(t, start, "extra")
}
