// Package http exposes a dialogue App over HTTP: transports POST inbound
// messages and receive the replies in the response body.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/match"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go openapi.yaml

// Spec returns the embedded OpenAPI document as JSON.
func Spec() ([]byte, error) {
	return rawSpec()
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec(ctx context.Context) (*openapi3.T, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// Server serves one dialogue App.
type Server struct {
	app      *dialogue.App
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	version  string
	maxInput int
	doc      *openapi3.T
	inbound  *routers.Route
	metrics  http.Handler
}

var _ ServerInterface = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the build version reported on /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithMaxInputSize bounds inbound content in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer builds a Server for app. It fails only when the embedded
// OpenAPI document is invalid.
func NewServer(app *dialogue.App, opts ...Option) (*Server, error) {
	s := &Server{
		app:      app,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		version:  "dev",
		maxInput: match.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	item := doc.Paths.Find("/inbound")
	if item == nil || item.Post == nil {
		return nil, errors.New("openapi document has no POST /inbound")
	}
	s.doc = doc
	s.metrics = promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	s.inbound = &routers.Route{
		Spec:      doc,
		Path:      "/inbound",
		PathItem:  item,
		Method:    http.MethodPost,
		Operation: item.Post,
	}
	return s, nil
}

// NewHandler is NewServer followed by Handler.
func NewHandler(app *dialogue.App, opts ...Option) (http.Handler, error) {
	s, err := NewServer(app, opts...)
	if err != nil {
		return nil, err
	}
	return s.Handler(), nil
}

// Handler returns the chi router with the generated routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			s.logger.ErrorContext(r.Context(), "failed to load openapi document", "err", err)
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	return HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.DebugContext(r.Context(), "request rejected", "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	})
}

// PostInbound handles POST /inbound.
func (s *Server) PostInbound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := openapi3filter.ValidateRequest(ctx, &openapi3filter.RequestValidationInput{
		Request: r,
		Route:   s.inbound,
	}); err != nil {
		s.logger.DebugContext(ctx, "inbound rejected", "err", err)
		http.Error(w, fmt.Sprintf("Invalid message: %v", err), http.StatusBadRequest)
		return
	}

	var body PostInboundJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.DebugContext(ctx, "inbound body not decodable", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	msg := mapMessageToDomain(body)

	if msg.Content != nil {
		clean, err := match.Sanitize(*msg.Content, s.maxInput)
		if err != nil {
			s.logger.WarnContext(ctx, "inbound content rejected", "addr", msg.FromAddr, "err", err)
			http.Error(w, fmt.Sprintf("Invalid content: %v", err), http.StatusBadRequest)
			return
		}
		msg.Content = &clean
	}

	out, err := s.app.Handle(ctx, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "turn failed",
			"addr", msg.FromAddr,
			"message_id", msg.MessageID,
			"request_id", middleware.GetReqID(ctx),
			"err", err,
		)
		http.Error(w, "Turn failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, Replies{Messages: mapMessagesFromDomain(out)})
}

// GetUser handles GET /users/{addr}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request, addr string) {
	ctx := r.Context()
	user, err := s.app.Sessions().Load(ctx, addr)
	if errors.Is(err, domain.ErrUserNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "user load failed", "addr", addr, "err", err)
		http.Error(w, "Load failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, mapUserFromDomain(user))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	script := s.app.Script()
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"app":         "vaxbot-http",
		"version":     s.version,
		"api_version": apiVersion,
		"script":      script.Name,
		"states":      len(script.States),
	})
}

// GetMetrics handles GET /metrics.
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.ErrorContext(ctx, "response encode failed", "err", err)
	}
}
