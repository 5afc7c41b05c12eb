// Package turn reads and updates contact profiles on the Turn WhatsApp platform.
package turn

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "turn"

// Profile is a Turn contact profile.
type Profile struct {
	Version string         `json:"version"`
	Fields  map[string]any `json:"fields"`
}

// Client talks to Turn with a bearer token.
type Client struct {
	up      *upstream.Client
	baseURL string
	token   string
}

// New creates a client.
func New(up *upstream.Client, baseURL, token string) *Client {
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

func (c *Client) request(method, contactID string, body any) upstream.Request {
	h := make(http.Header)
	h.Set("Accept", "application/vnd.v1+json")
	return upstream.Request{
		Service: service,
		Method:  method,
		URL:     c.baseURL + "/v1/contacts/" + url.PathEscape(strings.TrimPrefix(contactID, "+")) + "/profile",
		Header:  h,
		Body:    body,
		Token:   c.token,
	}
}

// Profile fetches the profile of contactID (an msisdn).
func (c *Client) Profile(ctx context.Context, contactID string) (*Profile, error) {
	var p Profile
	if err := c.up.JSON(ctx, c.request(http.MethodGet, contactID, nil), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile patches profile fields.
func (c *Client) UpdateProfile(ctx context.Context, contactID string, fields map[string]any) error {
	_, err := c.up.Do(ctx, c.request(http.MethodPatch, contactID, fields))
	return err
}
