package session

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "rescuedesk"

// Storage keys for the session credentials and derived artifacts.
const (
	keyAccessToken  = "access-token"
	keyRefreshToken = "refresh-token"
	keyUsername     = "username"
	keyIsAdmin      = "is-admin"
)

// Tokens holds the two session credentials. Either value may be empty
// when never set or cleared.
type Tokens struct {
	Access  string
	Refresh string
}

// TokenStore persists the session credentials in the system keyring so
// a session survives process restarts. Values are opaque strings; the
// store performs no validation.
type TokenStore struct {
	ring keyring.Keyring
}

// OpenTokenStore opens the system keyring backing the token store.
func OpenTokenStore() (*TokenStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/rescuedesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("rescuedesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewTokenStore(ring), nil
}

// NewTokenStore wraps an already-open keyring. Tests pass
// keyring.NewArrayKeyring for an in-memory store.
func NewTokenStore(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

// Set persists both tokens, overwriting any prior values.
func (s *TokenStore) Set(access, refresh string) error {
	if err := s.setKey(keyAccessToken, access); err != nil {
		return err
	}
	return s.setKey(keyRefreshToken, refresh)
}

// Get returns the current token pair. Absent values come back as empty
// strings with a nil error; only a storage failure returns an error.
func (s *TokenStore) Get() (Tokens, error) {
	access, err := s.getKey(keyAccessToken)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.getKey(keyRefreshToken)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}

// AccessToken returns the current access token, satisfying the API
// client's token source contract.
func (s *TokenStore) AccessToken() (string, error) {
	return s.getKey(keyAccessToken)
}

// SetIdentity records the derived account artifacts for the session.
func (s *TokenStore) SetIdentity(username string, isAdmin bool) error {
	if err := s.setKey(keyUsername, username); err != nil {
		return err
	}
	flag := "0"
	if isAdmin {
		flag = "1"
	}
	return s.setKey(keyIsAdmin, flag)
}

// Identity returns the recorded account artifacts, empty when unset.
func (s *TokenStore) Identity() (username string, isAdmin bool, err error) {
	username, err = s.getKey(keyUsername)
	if err != nil {
		return "", false, err
	}
	flag, err := s.getKey(keyIsAdmin)
	if err != nil {
		return "", false, err
	}
	return username, flag == "1", nil
}

// Clear removes both tokens and all derived session artifacts. Clearing
// an already-empty store is a no-op.
func (s *TokenStore) Clear() error {
	for _, key := range []string{
		keyAccessToken, keyRefreshToken, keyUsername, keyIsAdmin,
	} {
		if err := s.ring.Remove(key); err != nil &&
			!errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("clearing credential %q: %w", key, err)
		}
	}
	return nil
}

// getKey reads a single value, mapping "not found" to an empty string.
func (s *TokenStore) getKey(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// setKey writes a single value.
func (s *TokenStore) setKey(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}
