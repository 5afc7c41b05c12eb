// Package rapidpro reads and updates RapidPro contacts and starts flows.
package rapidpro

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "rapidpro"

// ErrContactNotFound is returned when no contact has the requested URN.
var ErrContactNotFound = errors.New("rapidpro contact not found")

// Contact is a RapidPro contact.
type Contact struct {
	UUID     string         `json:"uuid"`
	Name     string         `json:"name"`
	Language string         `json:"language"`
	URNs     []string       `json:"urns"`
	Groups   []Group        `json:"groups"`
	Fields   map[string]any `json:"fields"`
}

// Group is a contact group reference.
type Group struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Field returns a contact field as a string, or "" when unset.
func (c *Contact) Field(key string) string {
	v, _ := c.Fields[key].(string)
	return v
}

// FlowStart asks RapidPro to start a flow for some contacts.
type FlowStart struct {
	Flow  string         `json:"flow"`
	URNs  []string       `json:"urns"`
	Extra map[string]any `json:"extra,omitempty"`
}

// Client talks to RapidPro with an API token.
type Client struct {
	up      *upstream.Client
	baseURL string
	token   string
}

// New creates a client.
func New(up *upstream.Client, baseURL, token string) *Client {
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// URN builds the WhatsApp URN for an msisdn.
func URN(msisdn string) string {
	return "whatsapp:" + strings.TrimPrefix(msisdn, "+")
}

func (c *Client) request(method, path string, query map[string]string, body any) upstream.Request {
	return upstream.Request{
		Service:     service,
		Method:      method,
		URL:         c.baseURL + path,
		Query:       query,
		Body:        body,
		Token:       c.token,
		TokenScheme: "Token",
	}
}

// Contact fetches the contact with urn.
func (c *Client) Contact(ctx context.Context, urn string) (*Contact, error) {
	var page struct {
		Results []Contact `json:"results"`
	}
	req := c.request(http.MethodGet, "/api/v2/contacts.json", map[string]string{"urn": urn}, nil)
	if err := c.up.JSON(ctx, req, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, ErrContactNotFound
	}
	return &page.Results[0], nil
}

// UpdateContact sets fields on the contact with urn, creating it if needed.
func (c *Client) UpdateContact(ctx context.Context, urn string, fields map[string]any) error {
	req := c.request(http.MethodPost, "/api/v2/contacts.json", map[string]string{"urn": urn}, map[string]any{"fields": fields})
	_, err := c.up.Do(ctx, req)
	return err
}

// StartFlow starts a flow.
func (c *Client) StartFlow(ctx context.Context, start FlowStart) error {
	_, err := c.up.Do(ctx, c.request(http.MethodPost, "/api/v2/flow_starts.json", nil, start))
	return err
}
