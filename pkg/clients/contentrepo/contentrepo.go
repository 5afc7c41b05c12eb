// Package contentrepo fetches content pages from the content repository.
package contentrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
)

const service = "contentrepo"

// Page is a content page.
type Page struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Tags        []string `json:"tags"`
	HasChildren bool     `json:"has_children"`
	Body        struct {
		Text struct {
			Value struct {
				Message string `json:"message"`
			} `json:"value"`
		} `json:"text"`
	} `json:"body"`
	Meta struct {
		Parent *struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"parent"`
	} `json:"meta"`
}

// Message returns the page text.
func (p *Page) Message() string {
	return p.Body.Text.Value.Message
}

// ParentID returns the parent page id, or 0 for a root page.
func (p *Page) ParentID() int {
	if p.Meta.Parent == nil {
		return 0
	}
	return p.Meta.Parent.ID
}

// Query filters a page listing. Zero values are not sent.
type Query struct {
	Tag     string
	Parent  int
	ChildOf int
}

func (q Query) params() map[string]string {
	p := make(map[string]string)
	if q.Tag != "" {
		p["tag"] = q.Tag
	}
	if q.Parent != 0 {
		p["parent"] = fmt.Sprint(q.Parent)
	}
	if q.ChildOf != 0 {
		p["child_of"] = fmt.Sprint(q.ChildOf)
	}
	return p
}

// Client reads the content repository.
type Client struct {
	up      *upstream.Client
	baseURL string
}

// New creates a client.
func New(up *upstream.Client, baseURL string) *Client {
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/")}
}

// Pages lists pages matching q.
func (c *Client) Pages(ctx context.Context, q Query) ([]Page, error) {
	var res struct {
		Results []Page `json:"results"`
	}
	err := c.up.JSON(ctx, upstream.Request{
		Service: service,
		URL:     c.baseURL + "/api/v2/pages",
		Query:   q.params(),
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// Page fetches a single page.
func (c *Client) Page(ctx context.Context, id int) (*Page, error) {
	var page Page
	err := c.up.JSON(ctx, upstream.Request{
		Service: service,
		URL:     fmt.Sprintf("%s/api/v2/pages/%d", c.baseURL, id),
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
