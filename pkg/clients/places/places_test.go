package places_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/apptest"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/clients/places"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	autocompletePath = "/maps/api/place/autocomplete/json"
	detailsPath      = "/maps/api/place/details/json"
)

func TestAutocompleteAndDetails(t *testing.T) {
	srv := apptest.NewMockServer(t).
		On(http.MethodGet, autocompletePath, apptest.JSON(map[string]any{
			"status":      "OK",
			"predictions": []any{map[string]any{"description": "Sea Point, Cape Town", "place_id": "p1"}},
		})).
		On(http.MethodGet, detailsPath, apptest.JSON(map[string]any{
			"status": "OK",
			"result": map[string]any{"geometry": map[string]any{"location": map[string]any{"lat": -33.91, "lng": 18.38}}},
		}))
	client := places.New(upstream.New(), srv.URL, "key", "ZA")
	ctx := context.Background()

	preds, err := client.Autocomplete(ctx, "sea point", "sess")
	require.NoError(t, err)
	assert.Equal(t, []places.Prediction{{Description: "Sea Point, Cape Town", PlaceID: "p1"}}, preds)

	q := srv.Requests(http.MethodGet, autocompletePath)[0].Query
	assert.Equal(t, "country:za", q.Get("components"))
	assert.Equal(t, "sess", q.Get("sessiontoken"))

	loc, err := client.Details(ctx, "p1", "sess")
	require.NoError(t, err)
	assert.Equal(t, places.Location{Lat: -33.91, Lng: 18.38}, loc)
}

func TestAutocomplete_Statuses(t *testing.T) {
	srv := apptest.NewMockServer(t).On(http.MethodGet, autocompletePath,
		apptest.JSON(map[string]any{"status": "ZERO_RESULTS"}),
		apptest.JSON(map[string]any{"status": "REQUEST_DENIED"}),
	)
	client := places.New(upstream.New(), srv.URL, "key", "")

	preds, err := client.Autocomplete(context.Background(), "nowhere", "s")
	require.NoError(t, err)
	assert.Empty(t, preds)

	_, err = client.Autocomplete(context.Background(), "nowhere", "s")
	var se *places.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "REQUEST_DENIED", se.Status)
}
