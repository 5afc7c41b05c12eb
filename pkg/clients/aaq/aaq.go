// Package aaq queries the Ask-A-Question FAQ matching model.
package aaq

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "aaq"

// Answer is one matched FAQ.
type Answer struct {
	Title string
	Body  string
}

// Result is a page of matched FAQs.
type Result struct {
	TopResponses      [][]string `json:"top_responses"`
	FeedbackSecretKey string     `json:"feedback_secret_key"`
	InboundSecretKey  string     `json:"inbound_secret_key"`
	InboundID         int64      `json:"inbound_id"`
	NextPageURL       string     `json:"next_page_url,omitempty"`
	PrevPageURL       string     `json:"prev_page_url,omitempty"`
}

// Answers returns the well formed [title, body] pairs.
func (r *Result) Answers() []Answer {
	out := make([]Answer, 0, len(r.TopResponses))
	for _, pair := range r.TopResponses {
		if len(pair) < 2 {
			continue
		}
		out = append(out, Answer{Title: pair[0], Body: pair[1]})
	}
	return out
}

// Empty reports whether the model found nothing. This is a result, not a failure.
func (r *Result) Empty() bool {
	return len(r.Answers()) == 0
}

// Feedback rates a previous match.
type Feedback struct {
	InboundID         int64          `json:"inbound_id"`
	FeedbackSecretKey string         `json:"feedback_secret_key"`
	Feedback          map[string]any `json:"feedback"`
}

// Client talks to the AAQ model with a bearer token.
type Client struct {
	up      *upstream.Client
	baseURL string
	token   string
}

// New creates a client.
func New(up *upstream.Client, baseURL, token string) *Client {
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// Check matches text against the FAQ bank.
func (c *Client) Check(ctx context.Context, text string, metadata map[string]any) (*Result, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	var res Result
	err := c.up.JSON(ctx, upstream.Request{
		Service: service,
		Method:  http.MethodPost,
		URL:     c.baseURL + "/inbound/check",
		Body:    map[string]any{"text_to_match": text, "metadata": metadata},
		Token:   c.token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Page fetches a next or previous page link from an earlier result.
// Relative links are resolved against the client's base URL.
func (c *Client) Page(ctx context.Context, link string) (*Result, error) {
	target, err := c.resolve(link)
	if err != nil {
		return nil, err
	}
	var res Result
	err = c.up.JSON(ctx, upstream.Request{
		Service: service,
		Method:  http.MethodGet,
		URL:     target,
		Token:   c.token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SendFeedback records feedback. Update uses PUT to amend feedback that was already sent.
func (c *Client) SendFeedback(ctx context.Context, fb Feedback, update bool) error {
	method := http.MethodPost
	if update {
		method = http.MethodPut
	}
	_, err := c.up.Do(ctx, upstream.Request{
		Service: service,
		Method:  method,
		URL:     c.baseURL + "/inbound/feedback",
		Body:    fb,
		Token:   c.token,
	})
	return err
}

func (c *Client) resolve(link string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid aaq base url: %w", err)
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid aaq page link %q: %w", link, err)
	}
	return base.ResolveReference(ref).String(), nil
}
