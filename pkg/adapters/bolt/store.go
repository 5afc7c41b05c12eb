// Package bolt provides a single-node UserStore backed by a bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	bbolt "go.etcd.io/bbolt"
)

var usersBucket = []byte("users")

// Store implements ports.UserStore on top of bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(usersBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists the user.
func (s *Store) Save(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(usersBucket).Put([]byte(user.Addr), data)
	})
}

// Load retrieves the user.
func (s *Store) Load(ctx context.Context, addr string) (*domain.User, error) {
	var user *domain.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(usersBucket).Get([]byte(addr))
		if data == nil {
			return domain.ErrUserNotFound
		}
		user = domain.NewUser(addr)
		return json.Unmarshal(data, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the user.
func (s *Store) Delete(ctx context.Context, addr string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(usersBucket).Delete([]byte(addr))
	})
}

// List returns every stored address.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var addrs []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(k, _ []byte) error {
			addrs = append(addrs, string(k))
			return nil
		})
	})
	return addrs, err
}
