package session

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

// failingKeyring returns an error for every operation, simulating a
// broken credential backend.
type failingKeyring struct{}

func (failingKeyring) Get(string) (keyring.Item, error) {
	return keyring.Item{}, errors.New("backend unavailable")
}

func (failingKeyring) GetMetadata(string) (keyring.Metadata, error) {
	return keyring.Metadata{}, errors.New("backend unavailable")
}

func (failingKeyring) Set(keyring.Item) error {
	return errors.New("backend unavailable")
}

func (failingKeyring) Remove(string) error {
	return errors.New("backend unavailable")
}

func (failingKeyring) Keys() ([]string, error) {
	return nil, errors.New("backend unavailable")
}

func TestGateDeniesWithoutToken(t *testing.T) {
	store := newTestStore()
	gate := NewGate(store)

	if gate.Allow() {
		t.Error("gate allowed render with no stored token")
	}
}

func TestGateDeniesEmptyToken(t *testing.T) {
	store := newTestStore()
	if err := store.Set("", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	gate := NewGate(store)

	if gate.Allow() {
		t.Error("gate allowed render with empty token")
	}
}

func TestGateAllowsWithToken(t *testing.T) {
	store := newTestStore()
	if err := store.Set("tok123", "ref456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	gate := NewGate(store)

	if !gate.Allow() {
		t.Error("gate denied render with a valid stored token")
	}
}

func TestGateDeniesAfterClear(t *testing.T) {
	store := newTestStore()
	if err := store.Set("tok123", "ref456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	gate := NewGate(store)

	if !gate.Allow() {
		t.Fatal("gate denied before clear")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	// The gate re-reads on every check, so the very next check denies.
	if gate.Allow() {
		t.Error("gate allowed render after tokens were cleared")
	}
}

func TestGateFailsClosedOnStorageError(t *testing.T) {
	store := NewTokenStore(failingKeyring{})
	gate := NewGate(store)

	if gate.Allow() {
		t.Error("gate allowed render when the token store errored")
	}
}
