// Package lovelife queues call-back requests with the loveLife contact centre.
package lovelife

import (
	"context"
	"net/http"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "lovelife"

// DefaultSourceSystem identifies this service to loveLife.
const DefaultSourceSystem = "Vaxbot"

// Client talks to the loveLife queue.
type Client struct {
	up      *upstream.Client
	baseURL string
	source  string
}

// New creates a client.
func New(up *upstream.Client, baseURL string) *Client {
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/"), source: DefaultSourceSystem}
}

// QueueCallback asks a counsellor to call phone back.
func (c *Client) QueueCallback(ctx context.Context, phone string) error {
	_, err := c.up.Do(ctx, upstream.Request{
		Service: service,
		Method:  http.MethodPost,
		URL:     c.baseURL + "/lovelife/v1/queuemessage",
		Body: map[string]string{
			"PhoneNumber":  phone,
			"SourceSystem": c.source,
		},
	})
	return err
}
