package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces user keys.
const DefaultPrefix = "vaxbot:user:"

// Store implements ports.UserStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for users. Each save refreshes it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for users.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store from a redis:// URL.
func New(url string, opts ...Option) (*Store, error) {
	options, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(options), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client so a Locker can share it.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(addr string) string {
	return s.prefix + addr
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the user to Redis.
func (s *Store) Save(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(user.Addr), data, s.ttl)

	// Index score is the expiry time so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: user.Addr,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the user from Redis.
func (s *Store) Load(ctx context.Context, addr string) (*domain.User, error) {
	val, err := s.client.Get(ctx, s.key(addr)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	user := domain.NewUser(addr)
	if err := json.Unmarshal(val, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return user, nil
}

// Delete removes the user.
func (s *Store) Delete(ctx context.Context, addr string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(addr))
	pipe.ZRem(ctx, s.indexKey(), addr)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored users, pruning expired entries from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired users: %w", err)
	}

	users, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
