// Package places looks up addresses with the Google Places API.
package places

import (
	"context"
	"fmt"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "google_places"

// DefaultBaseURL is the public Google Maps API endpoint.
const DefaultBaseURL = "https://maps.googleapis.com"

// Prediction is an autocomplete candidate.
type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// Location is a point on the map.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StatusError is a Places response whose status is neither OK nor ZERO_RESULTS.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google places: status %s", e.Status)
}

// Client talks to Google Places.
type Client struct {
	up      *upstream.Client
	baseURL string
	key     string
	country string
}

// New creates a client that restricts autocomplete to country (an ISO 3166 code).
func New(up *upstream.Client, baseURL, key, country string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/"), key: key, country: strings.ToLower(country)}
}

func checkStatus(status string) error {
	if status == "OK" || status == "ZERO_RESULTS" {
		return nil
	}
	return &StatusError{Status: status}
}

// Autocomplete returns predictions for input. session groups the autocomplete and details calls for billing.
func (c *Client) Autocomplete(ctx context.Context, input, session string) ([]Prediction, error) {
	var res struct {
		Status      string       `json:"status"`
		Predictions []Prediction `json:"predictions"`
	}
	query := map[string]string{
		"input":        input,
		"key":          c.key,
		"sessiontoken": session,
		"language":     "en",
	}
	if c.country != "" {
		query["components"] = "country:" + c.country
	}
	err := c.up.JSON(ctx, upstream.Request{
		Service: service,
		URL:     c.baseURL + "/maps/api/place/autocomplete/json",
		Query:   query,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(res.Status); err != nil {
		return nil, err
	}
	return res.Predictions, nil
}

// Details returns the location of a place.
func (c *Client) Details(ctx context.Context, placeID, session string) (Location, error) {
	var res struct {
		Status string `json:"status"`
		Result struct {
			Geometry struct {
				Location Location `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
	}
	err := c.up.JSON(ctx, upstream.Request{
		Service: service,
		URL:     c.baseURL + "/maps/api/place/details/json",
		Query: map[string]string{
			"place_id":     placeID,
			"key":          c.key,
			"sessiontoken": session,
			"fields":       "geometry",
		},
	}, &res)
	if err != nil {
		return Location{}, err
	}
	if res.Status != "OK" {
		return Location{}, &StatusError{Status: res.Status}
	}
	return res.Result.Geometry.Location, nil
}
