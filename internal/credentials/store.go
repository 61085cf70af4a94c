package credentials

import (
	"errors"
	"fmt"

	"tokenauth/internal/storage"
)

// Storage keys of the persisted session.
const (
	KeyAccessToken = "accessToken"
	KeyClient      = "client"
	KeyExpiry      = "expiry"
	KeyTokenType   = "tokenType"
	KeyUID         = "uid"
	KeyUserType    = "userType"
)

var allKeys = []string{KeyAccessToken, KeyClient, KeyExpiry, KeyTokenType, KeyUID, KeyUserType}

// Store reads and writes a credential set through a storage backend. It does
// no validation of its own.
type Store struct {
	storage storage.Storage
}

// NewStore wraps backend. A nil backend behaves like storage.Noop.
func NewStore(backend storage.Storage) *Store {
	if backend == nil {
		backend = storage.Noop{}
	}
	return &Store{storage: backend}
}

// Storage returns the underlying backend.
func (s *Store) Storage() storage.Storage {
	return s.storage
}

// Load reads whatever fields are stored; missing keys leave fields empty.
func (s *Store) Load() Set {
	get := func(key string) string {
		v, _ := s.storage.Get(key)
		return v
	}
	return Set{
		AccessToken: get(KeyAccessToken),
		Client:      get(KeyClient),
		Expiry:      ParseExpiry(get(KeyExpiry)),
		TokenType:   get(KeyTokenType),
		UID:         get(KeyUID),
	}
}

// LoadUserType returns the stored user type name, or "".
func (s *Store) LoadUserType() string {
	v, _ := s.storage.Get(KeyUserType)
	return v
}

// Save writes the five fields, and the user type name when non-empty.
func (s *Store) Save(c Set, userType string) error {
	values := []struct{ key, value string }{
		{KeyAccessToken, c.AccessToken},
		{KeyClient, c.Client},
		{KeyExpiry, FormatExpiry(c.Expiry)},
		{KeyTokenType, c.TokenType},
		{KeyUID, c.UID},
	}
	if userType != "" {
		values = append(values, struct{ key, value string }{KeyUserType, userType})
	}

	for _, kv := range values {
		if err := s.storage.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("failed to store %s: %w", kv.key, err)
		}
	}
	return nil
}

// Clear removes all six keys, attempting every key even after a failure.
func (s *Store) Clear() error {
	var errs []error
	for _, key := range allKeys {
		if err := s.storage.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
