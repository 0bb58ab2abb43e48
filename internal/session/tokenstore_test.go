package session

import (
	"testing"

	"github.com/99designs/keyring"
)

func newTestStore() *TokenStore {
	return NewTokenStore(keyring.NewArrayKeyring(nil))
}

func TestTokenStoreSetGet(t *testing.T) {
	s := newTestStore()

	if err := s.Set("access-1", "refresh-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	tokens, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tokens.Access != "access-1" {
		t.Errorf("access = %q, want %q", tokens.Access, "access-1")
	}
	if tokens.Refresh != "refresh-1" {
		t.Errorf("refresh = %q, want %q", tokens.Refresh, "refresh-1")
	}
}

func TestTokenStoreGetEmpty(t *testing.T) {
	s := newTestStore()

	tokens, err := s.Get()
	if err != nil {
		t.Fatalf("Get on empty store: %v", err)
	}
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("empty store returned tokens %+v, want empty", tokens)
	}
}

func TestTokenStoreOverwrite(t *testing.T) {
	s := newTestStore()

	if err := s.Set("old-access", "old-refresh"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("new-access", "new-refresh"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	tokens, err := s.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tokens.Access != "new-access" || tokens.Refresh != "new-refresh" {
		t.Errorf("got %+v after overwrite, want new pair", tokens)
	}
}

func TestTokenStoreClear(t *testing.T) {
	s := newTestStore()

	if err := s.Set("access", "refresh"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.SetIdentity("alice", true); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	tokens, err := s.Get()
	if err != nil {
		t.Fatalf("Get after clear: %v", err)
	}
	if tokens.Access != "" || tokens.Refresh != "" {
		t.Errorf("tokens survive clear: %+v", tokens)
	}

	username, isAdmin, err := s.Identity()
	if err != nil {
		t.Fatalf("Identity after clear: %v", err)
	}
	if username != "" || isAdmin {
		t.Errorf("identity survives clear: %q admin=%v", username, isAdmin)
	}
}

func TestTokenStoreClearIdempotent(t *testing.T) {
	s := newTestStore()

	// Clearing an empty store must not error.
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear on empty store: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestTokenStoreIdentity(t *testing.T) {
	s := newTestStore()

	if err := s.SetIdentity("bob", false); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}

	username, isAdmin, err := s.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if username != "bob" {
		t.Errorf("username = %q, want %q", username, "bob")
	}
	if isAdmin {
		t.Error("isAdmin = true, want false")
	}

	if err := s.SetIdentity("carol", true); err != nil {
		t.Fatalf("SetIdentity admin: %v", err)
	}
	_, isAdmin, err = s.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if !isAdmin {
		t.Error("isAdmin = false, want true")
	}
}

func TestTokenStoreAccessToken(t *testing.T) {
	s := newTestStore()

	token, err := s.AccessToken()
	if err != nil {
		t.Fatalf("AccessToken on empty store: %v", err)
	}
	if token != "" {
		t.Errorf("empty store token = %q, want empty", token)
	}

	if err := s.Set("tok", "ref"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	token, err = s.AccessToken()
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if token != "tok" {
		t.Errorf("token = %q, want %q", token, "tok")
	}
}
