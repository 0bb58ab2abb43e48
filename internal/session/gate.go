package session

// Gate decides whether protected views may render. It re-reads the
// token store on every check rather than caching, so a logout anywhere
// in the process denies the very next render.
type Gate struct {
	store *TokenStore
}

// NewGate creates a gate over the given token store.
func NewGate(store *TokenStore) Gate {
	return Gate{store: store}
}

// Allow reports whether a protected view may render right now. A
// missing access token or a storage read failure both deny (fail
// closed); the caller must route to the login view instead.
func (g Gate) Allow() bool {
	tokens, err := g.store.Get()
	if err != nil {
		return false
	}
	return tokens.Access != ""
}
