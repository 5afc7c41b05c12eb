package apptest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Reply is a scripted response.
type Reply struct {
	Status int
	// Body is written as JSON unless it is a string or []byte.
	Body any
}

// JSON is a 200 reply with body.
func JSON(body any) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}

// Status is a reply with only a status code.
func Status(code int) Reply {
	return Reply{Status: code}
}

// RecordedRequest is a request received by the MockServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into out.
func (r RecordedRequest) JSON(out any) error {
	return json.Unmarshal(r.Body, out)
}

// MockServer is an upstream stand-in that replays scripted replies and records every request.
type MockServer struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string][]Reply
	requests []RecordedRequest
}

// NewMockServer starts a server that is closed when the test ends.
func NewMockServer(t testing.TB) *MockServer {
	t.Helper()
	m := &MockServer{routes: make(map[string][]Reply)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// On scripts the replies for method and path. Replies are used in order; the last one repeats.
func (m *MockServer) On(method, path string, replies ...Reply) *MockServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method+" "+path] = replies
	return m
}

// Requests returns the recorded requests for method and path.
func (m *MockServer) Requests(method, path string) []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RecordedRequest
	for _, r := range m.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// AllRequests returns every recorded request.
func (m *MockServer) AllRequests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

func (m *MockServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	key := r.Method + " " + r.URL.Path
	replies := m.routes[key]
	var reply Reply
	found := len(replies) > 0
	if found {
		reply = replies[0]
		if len(replies) > 1 {
			m.routes[key] = replies[1:]
		}
	}
	m.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	switch b := reply.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = io.WriteString(w, b)
	case []byte:
		w.WriteHeader(status)
		_, _ = w.Write(b)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(b)
	}
}
