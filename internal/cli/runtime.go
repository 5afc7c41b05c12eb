// Package cli assembles the application from configuration for the vaxbot
// commands: stores, session manager, collaborators, metrics and scripts.
package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/config"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/demo"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/bolt"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/memory"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/mqtt"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/redis"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/dialogue"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/observability"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/persistence/middleware"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/session"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// AnswerQueueSize bounds the in-process answer publishing queue.
const AnswerQueueSize = 256

// Runtime holds everything built from a Config.
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    ports.UserStore
	Sessions *session.Manager
	Upstream *upstream.Client
	Services demo.Services
	Scripts  map[string]*dialogue.Script
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	publisher ports.AnswerPublisher
	closers   []func() error
}

// Option configures Open.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithStore replaces the store selected by the configuration.
func WithStore(store ports.UserStore) Option {
	return func(r *Runtime) {
		r.Store = store
	}
}

// WithPublisher replaces the MQTT answer publisher.
func WithPublisher(p ports.AnswerPublisher) Option {
	return func(r *Runtime) {
		r.publisher = p
	}
}

// Open builds the runtime. Close releases what it opened.
func Open(cfg config.Config, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		Config:   cfg,
		Logger:   logging.NewNop(),
		Registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.Metrics = observability.NewMetrics(r.Registry)

	if err := r.openStore(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.openPublisher(); err != nil {
		r.Close()
		return nil, err
	}

	r.Upstream = upstream.New(upstream.WithLogger(r.Logger))
	r.Services = demo.NewServices(cfg, r.Upstream, r.Logger)
	r.Scripts = demo.Scripts(cfg, r.Services)
	return r, nil
}

func (r *Runtime) openStore() error {
	cfg := r.Config
	var locker ports.DistributedLocker

	if r.Store == nil {
		switch cfg.Store {
		case "memory", "":
			r.Store = memory.NewStore()
		case "redis":
			store, err := redis.New(cfg.RedisURL, redis.WithPrefix(cfg.RedisPrefix), redis.WithTTL(cfg.SessionTTL))
			if err != nil {
				return err
			}
			r.closers = append(r.closers, store.Close)
			locker = redis.NewLocker(store.Client(), cfg.RedisPrefix)
			r.Store = store
		case "bolt":
			store, err := bolt.Open(cfg.BoltPath)
			if err != nil {
				return err
			}
			r.closers = append(r.closers, store.Close)
			r.Store = store
		default:
			return fmt.Errorf("unknown store %q", cfg.Store)
		}
	}

	mws, err := storeMiddlewares(cfg)
	if err != nil {
		return err
	}
	r.Store = middleware.Chain(r.Store, mws...)

	sessOpts := []session.Option{session.WithLogger(r.Logger)}
	if locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(locker))
	}
	r.Sessions = session.NewManager(r.Store, sessOpts...)
	return nil
}

// storeMiddlewares builds the PII and encryption decorators. Masking runs
// before sealing so plaintext never reaches the store.
func storeMiddlewares(cfg config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIKeys) > 0 {
		for _, p := range cfg.PIIKeys {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("invalid PII_KEYS pattern %q: %w", p, err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIKeys))
	}
	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, errors.New("ENCRYPTION_KEY must decode to 32 bytes")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return mws, nil
}

func (r *Runtime) openPublisher() error {
	if r.publisher != nil || r.Config.MQTTBroker == "" {
		return nil
	}
	client, err := mqtt.Connect(r.Config.MQTTBroker, r.Config.MQTTClientID, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	pub := mqtt.New(client, r.Config.MQTTTopic, mqtt.WithLogger(r.Logger))
	r.closers = append(r.closers, func() error {
		pub.Close()
		return nil
	})
	r.publisher = pub
	r.Logger.Info("publishing answers", "broker", r.Config.MQTTBroker, "topic", r.Config.MQTTTopic)
	return nil
}

// App builds the App for the named script, wired to the shared sessions,
// metrics and publisher.
func (r *Runtime) App(name string, opts ...dialogue.Option) (*dialogue.App, error) {
	script, ok := r.Scripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown script %q (available: %v)", name, demo.Names())
	}
	appOpts := []dialogue.Option{
		dialogue.WithLogger(r.Logger),
		dialogue.WithSessions(r.Sessions),
		dialogue.WithTraversalLimit(r.Config.TraversalLimit),
		dialogue.WithThrottle(r.Config.ThrottlePercentage),
		dialogue.WithHooks(r.Metrics.Hooks(name)),
		dialogue.WithHooks(observability.LogHooks(r.Logger)),
	}
	if r.publisher != nil {
		appOpts = append(appOpts, dialogue.WithAnswerPublisher(r.publisher, AnswerQueueSize))
	}
	app := dialogue.New(script, append(appOpts, opts...)...)
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// Close releases stores and connections in reverse order.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
