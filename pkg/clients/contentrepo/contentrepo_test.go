package contentrepo_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/contentrepo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodGet, "/api/v2/pages", apptest.JSON(map[string]any{"results": []any{
			map[string]any{"id": 1, "title": "Vaccines", "has_children": true, "tags": []string{"mainmenu"}},
		}})).
		On(http.MethodGet, "/api/v2/pages/2", apptest.JSON(map[string]any{
			"id":       2,
			"title":    "Side effects",
			"subtitle": "What to expect",
			"body":     map[string]any{"text": map[string]any{"value": map[string]any{"message": "Mild fever is common."}}},
			"meta":     map[string]any{"parent": map[string]any{"id": 1, "title": "Vaccines"}},
		}))
	client := contentrepo.New(upstream.New(), srv.URL)
	ctx := context.Background()

	pages, err := client.Pages(ctx, contentrepo.Query{Tag: "mainmenu", ChildOf: 7})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.True(t, pages[0].HasChildren)
	assert.Equal(t, 0, pages[0].ParentID())

	reqs := srv.Requests(http.MethodGet, "/api/v2/pages")
	require.Len(t, reqs, 1)
	assert.Equal(t, "mainmenu", reqs[0].Query.Get("tag"))
	assert.Equal(t, "7", reqs[0].Query.Get("child_of"))
	assert.False(t, reqs[0].Query.Has("parent"))

	page, err := client.Page(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Mild fever is common.", page.Message())
	assert.Equal(t, 1, page.ParentID())
}
