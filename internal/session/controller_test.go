package session

import (
	"io"
	"log"
	"testing"
)

func newTestController(store *TokenStore) *Controller {
	return NewController(store, log.New(io.Discard, "", 0))
}

func TestControllerBootWithStoredToken(t *testing.T) {
	store := newTestStore()
	if err := store.Set("tok123", "ref456"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c := newTestController(store)
	if c.State() != StateBooting {
		t.Fatalf("initial state = %v, want booting", c.State())
	}

	// Boot trusts the stored token without any network round-trip.
	if got := c.Boot(); got != StateAuthenticated {
		t.Errorf("Boot = %v, want authenticated", got)
	}
	if !c.IsAuthenticated() {
		t.Error("IsAuthenticated = false after boot with token")
	}
}

func TestControllerBootWithoutToken(t *testing.T) {
	c := newTestController(newTestStore())

	if got := c.Boot(); got != StateUnauthenticated {
		t.Errorf("Boot = %v, want unauthenticated", got)
	}
}

func TestControllerBootFailsClosed(t *testing.T) {
	c := newTestController(NewTokenStore(failingKeyring{}))

	// A storage read failure must resolve to unauthenticated, never
	// leave the controller stuck in booting.
	if got := c.Boot(); got != StateUnauthenticated {
		t.Errorf("Boot with broken store = %v, want unauthenticated", got)
	}
}

func TestControllerLogin(t *testing.T) {
	store := newTestStore()
	c := newTestController(store)
	c.Boot()

	if err := c.Login("access-tok", "refresh-tok"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !c.IsAuthenticated() {
		t.Error("not authenticated after login")
	}

	tokens, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tokens.Access != "access-tok" || tokens.Refresh != "refresh-tok" {
		t.Errorf("stored tokens = %+v, want the login pair", tokens)
	}
}

func TestControllerLoginPersistFailure(t *testing.T) {
	c := newTestController(NewTokenStore(failingKeyring{}))
	c.Boot()

	if err := c.Login("a", "r"); err == nil {
		t.Fatal("Login succeeded with a broken store")
	}
	if c.IsAuthenticated() {
		t.Error("authenticated despite failed token persistence")
	}
}

func TestControllerLogout(t *testing.T) {
	store := newTestStore()
	c := newTestController(store)
	c.Boot()
	if err := c.Login("a", "r"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	c.Logout()
	if c.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}

	tokens, err := store.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tokens.Access != "" {
		t.Errorf("access token %q survives logout", tokens.Access)
	}
}

func TestControllerLogoutIdempotent(t *testing.T) {
	c := newTestController(newTestStore())
	c.Boot()

	// Logging out while already unauthenticated is a no-op.
	c.Logout()
	c.Logout()
	if c.State() != StateUnauthenticated {
		t.Errorf("state = %v, want unauthenticated", c.State())
	}
}

func TestControllerForcedLogoutOnce(t *testing.T) {
	c := newTestController(newTestStore())
	c.Boot()
	if err := c.Login("a", "r"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !c.ForcedLogout() {
		t.Error("first forced logout did not transition")
	}
	if c.IsAuthenticated() {
		t.Error("still authenticated after forced logout")
	}

	// A burst of rejections from concurrent requests must collapse
	// into a single transition.
	if c.ForcedLogout() {
		t.Error("second forced logout transitioned again")
	}
}

func TestControllerForcedLogoutWhileUnauthenticated(t *testing.T) {
	c := newTestController(newTestStore())
	c.Boot()

	if c.ForcedLogout() {
		t.Error("forced logout transitioned from unauthenticated")
	}
}
