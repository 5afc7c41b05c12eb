package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

const (
	// DefaultAttempts is the number of tries before a call fails for good.
	DefaultAttempts = 3
	// DefaultTimeout bounds each attempt.
	DefaultTimeout = 5 * time.Second
)

// Request describes one logical call. Body, when set, is sent as JSON.
type Request struct {
	Service string
	Method  string
	URL     string
	Header  http.Header
	Query   map[string]string
	Body    any
	// BasicAuth is used when User is non-empty.
	User     string
	Password string
	// Token is sent as "Authorization: <TokenScheme> <Token>" when set.
	Token       string
	TokenScheme string
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Decode unmarshals the JSON body into out.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

// Client performs calls under the retry contract.
type Client struct {
	http     *http.Client
	attempts int
	timeout  time.Duration
	logger   *slog.Logger
	observer func(context.Context, *domain.UpstreamEvent)
	now      func() time.Time
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled client (tests pass httptest clients).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAttempts overrides the number of attempts.
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers a callback that sees every attempt.
func WithObserver(fn func(context.Context, *domain.UpstreamEvent)) Option {
	return func(c *Client) {
		c.observer = fn
	}
}

// New creates a client. All clients share http.DefaultTransport's connection pool
// unless WithHTTPClient is used.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Transport: http.DefaultTransport},
		attempts: DefaultAttempts,
		timeout:  DefaultTimeout,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs req, retrying transient failures.
// It returns a *Error when every attempt failed or the response was a 4xx.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %w", req.Service, err)
		}
	}

	var (
		lastErr    error
		lastStatus int
		lastBody   []byte
	)
	attempt := 0
	for attempt < c.attempts {
		attempt++
		resp, err := c.once(ctx, req, payload, attempt)
		if err == nil {
			resp.Attempts = attempt
			return resp, nil
		}

		lastErr = err
		lastStatus, lastBody = 0, nil
		if resp != nil {
			lastStatus, lastBody = resp.StatusCode, resp.Body
		}
		if ctx.Err() != nil || !IsTransient(err) {
			break
		}
		c.logger.Debug("Retrying upstream call",
			"service", req.Service,
			"attempt", attempt,
			"err", err,
		)
	}

	uerr := &Error{
		Service:    req.Service,
		Method:     req.Method,
		URL:        req.URL,
		Attempts:   attempt,
		StatusCode: lastStatus,
		Body:       lastBody,
		Err:        lastErr,
	}
	c.logger.Error("Upstream call failed",
		"service", req.Service,
		"method", req.Method,
		"url", req.URL,
		"attempts", attempt,
		"status", lastStatus,
		"request", string(payload),
		"response", string(lastBody),
		"err", lastErr,
	)
	return nil, uerr
}

// JSON performs req and decodes a successful body into out.
func (c *Client) JSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.Service, err)
	}
	return nil
}

// once runs a single attempt. On a non-2xx status it returns the response together with an error.
func (c *Client) once(ctx context.Context, req Request, payload []byte, attempt int) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if payload != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if hreq.Header.Get("Accept") == "" {
		hreq.Header.Set("Accept", "application/json")
	}
	if req.User != "" {
		hreq.SetBasicAuth(req.User, req.Password)
	}
	if req.Token != "" {
		scheme := req.TokenScheme
		if scheme == "" {
			scheme = "Bearer"
		}
		hreq.Header.Set("Authorization", scheme+" "+req.Token)
	}
	if len(req.Query) > 0 {
		q := hreq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		hreq.URL.RawQuery = q.Encode()
	}

	start := c.now()
	event := &domain.UpstreamEvent{
		EventBase: domain.EventBase{
			Timestamp: start,
			Type:      domain.EventUpstreamCall,
			Addr:      AddrFromContext(ctx),
		},
		Service: req.Service,
		Method:  method,
		URL:     hreq.URL.String(),
		Attempt: attempt,
		Request: payload,
	}
	defer func() {
		event.Duration = c.now().Sub(start)
		c.notify(ctx, event)
	}()

	hresp, err := c.http.Do(hreq)
	if err != nil {
		event.Err = err
		return nil, err
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	event.StatusCode = hresp.StatusCode
	event.Response = data
	if err != nil {
		event.Err = err
		return nil, err
	}

	resp := &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: data}
	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		event.Err = &statusError{code: hresp.StatusCode}
		return resp, event.Err
	}
	return resp, nil
}

func (c *Client) notify(ctx context.Context, event *domain.UpstreamEvent) {
	if c.observer != nil {
		c.observer(ctx, event)
	}
	if fn := observerFromContext(ctx); fn != nil {
		fn(ctx, event)
	}
}
