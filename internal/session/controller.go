package session

import "log"

// State is the controller's position in the session lifecycle.
type State int

const (
	StateBooting State = iota
	StateUnauthenticated
	StateAuthenticated
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Controller owns all session transitions. Every credential mutation in
// the process funnels through here; other components only read.
type Controller struct {
	store  *TokenStore
	logger *log.Logger
	state  State
}

// NewController creates a controller in the Booting state.
func NewController(store *TokenStore, logger *log.Logger) *Controller {
	return &Controller{
		store:  store,
		logger: logger,
		state:  StateBooting,
	}
}

// Boot reads the token store and settles the initial state without any
// network round-trip; a stored token is trusted optimistically until
// the first API call rejects it. A storage read failure fails closed
// to Unauthenticated.
func (c *Controller) Boot() State {
	tokens, err := c.store.Get()
	if err != nil {
		c.logger.Printf("session: boot token read failed, treating as no session: %v", err)
		c.state = StateUnauthenticated
		return c.state
	}

	if tokens.Access != "" {
		c.state = StateAuthenticated
	} else {
		c.state = StateUnauthenticated
	}
	return c.state
}

// State returns the current session state.
func (c *Controller) State() State {
	return c.state
}

// IsAuthenticated reports whether the session is active.
func (c *Controller) IsAuthenticated() bool {
	return c.state == StateAuthenticated
}

// Login persists the server-confirmed token pair and transitions to
// Authenticated. The controller performs no credential verification
// itself; it is only called after the server accepted the credentials.
func (c *Controller) Login(access, refresh string) error {
	if err := c.store.Set(access, refresh); err != nil {
		return err
	}
	c.state = StateAuthenticated
	return nil
}

// Logout clears the persisted credentials and transitions to
// Unauthenticated. Calling Logout while already Unauthenticated is a
// no-op, not an error.
func (c *Controller) Logout() {
	if c.state == StateUnauthenticated {
		return
	}

	if err := c.store.Clear(); err != nil {
		// The state transition happens regardless; a failed clear
		// leaves stale tokens that the next API rejection will catch.
		c.logger.Printf("session: clearing token store failed: %v", err)
	}
	c.state = StateUnauthenticated
}

// ForcedLogout handles an authorization-rejected API response. It
// reports whether a transition actually happened, so a burst of
// rejections from concurrent requests collapses into one logout
// instead of looping.
func (c *Controller) ForcedLogout() bool {
	if c.state != StateAuthenticated {
		return false
	}
	c.logger.Printf("session: access token rejected by server, logging out")
	c.Logout()
	return true
}
