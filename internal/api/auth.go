package api

import (
	"context"

	"github.com/pawhaven/rescuedesk/internal/model"
)

// Credentials are the login inputs sent to the authentication endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is the credential pair returned by a successful login.
// Both values are opaque to the client.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair. Credential
// verification is entirely server-side; a rejection comes back as a
// regular API error, not an AuthError, since no session existed yet.
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	var pair TokenPair
	if err := c.postAnonymous(ctx, "/api/auth/login/", creds, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Profile fetches the account identity for the current session. A
// rejected token surfaces as an AuthError, which callers must treat as
// a forced logout.
func (c *Client) Profile(ctx context.Context) (*model.Account, error) {
	var account model.Account
	if err := c.get(ctx, "/api/auth/profile/", &account); err != nil {
		return nil, err
	}
	return &account, nil
}
