// Package eventstore copies vaccine registrations to the internal event store.
package eventstore

import (
	"context"
	"net/http"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "eventstore"

// Registration is the event store's view of a registration.
type Registration struct {
	MSISDN            string `json:"msisdn"`
	Source            string `json:"source"`
	Gender            string `json:"gender"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	DateOfBirth       string `json:"date_of_birth"`
	IDType            string `json:"id_type"`
	IDNumber          string `json:"id_number,omitempty"`
	PassportCountry   string `json:"passport_country,omitempty"`
	PreferredTime     string `json:"preferred_time"`
	PreferredDate     string `json:"preferred_date"`
	PreferredLocation string `json:"preferred_location_name"`
	MedicalAid        bool   `json:"medical_aid"`
	DataSource        string `json:"data_source"`
}

// Client posts to the event store with a bearer token.
type Client struct {
	up      *upstream.Client
	baseURL string
	token   string
}

// New creates a client.
func New(up *upstream.Client, baseURL, token string) *Client {
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// Record stores reg.
func (c *Client) Record(ctx context.Context, reg Registration) error {
	_, err := c.up.Do(ctx, upstream.Request{
		Service: service,
		Method:  http.MethodPost,
		URL:     c.baseURL + "/v2/vaccineregistration/",
		Body:    reg,
		Token:   c.token,
	})
	return err
}
