// Package session owns the authoritative auth session for the storefront
// client. Durable storage and the in-memory session are two copies of one
// truth: the guard is the single writer during a session, durable storage is a
// write-through cache consulted only at hydration.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shoplane/storefront-core/internal/waitfor"
	"github.com/shoplane/storefront-core/storage"
)

const (
	defaultVerifyAttempts = 5
	defaultVerifyInterval = 50 * time.Millisecond
	defaultReadyInterval  = 100 * time.Millisecond
)

// Guard reconciles the in-memory session with durable client storage. Login
// and Signup do not resolve until the durable copy of the token has been read
// back and matched, so callers can navigate immediately afterwards without
// racing a dependent view's storage read.
type Guard struct {
	durable storage.DurableStore

	lock    sync.RWMutex
	current *Session

	nowFunc        func() time.Time
	verifyAttempts int
	verifyInterval time.Duration
	readyInterval  time.Duration
}

// GuardOption modifies a Guard at construction time.
type GuardOption func(*Guard)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.nowFunc = now
	}
}

// WithVerifyPolicy overrides the bounded verification window applied after
// every durable token write.
func WithVerifyPolicy(attempts int, interval time.Duration) GuardOption {
	return func(g *Guard) {
		g.verifyAttempts = attempts
		g.verifyInterval = interval
	}
}

// WithReadyInterval overrides the AwaitReady polling interval.
func WithReadyInterval(interval time.Duration) GuardOption {
	return func(g *Guard) {
		g.readyInterval = interval
	}
}

// NewGuard creates a Guard over the given durable store.
func NewGuard(durable storage.DurableStore, options ...GuardOption) (*Guard, error) {
	if durable == nil {
		return nil, errors.New("[NewGuard] durable store is required")
	}

	g := &Guard{
		durable:        durable,
		nowFunc:        time.Now,
		verifyAttempts: defaultVerifyAttempts,
		verifyInterval: defaultVerifyInterval,
		readyInterval:  defaultReadyInterval,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Login establishes the session for user with the backend-issued token. It
// writes the in-memory session first, then the durable token key, the
// structured session blob, and the login timestamp, and only returns once the
// durable token has been read back byte-identical — or fails with
// PersistenceUnverifiedErr, leaving the session unconfirmed.
func (g *Guard) Login(ctx context.Context, user *User, token string) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return errors.Wrap(err, "[Guard.Login] normalize token")
	}

	sess := &Session{
		User:           user,
		Token:          normalized,
		LoginTimestamp: g.nowFunc(),
	}

	g.lock.Lock()
	g.current = sess
	g.lock.Unlock()

	if err := g.durable.Set(ctx, storage.KeyAuthToken, normalized); err != nil {
		return errors.Wrap(err, "[Guard.Login] write token")
	}
	if err := storage.SetJSON(ctx, g.durable, storage.KeyAuthSession, sess); err != nil {
		return errors.Wrap(err, "[Guard.Login] write session blob")
	}
	if err := g.durable.Set(ctx, storage.KeyLoginTimestamp, sess.LoginTimestamp.Format(time.RFC3339)); err != nil {
		return errors.Wrap(err, "[Guard.Login] write login timestamp")
	}

	outcome, err := waitfor.Poll(ctx, waitfor.Policy{
		Attempts: g.verifyAttempts,
		Interval: g.verifyInterval,
	}, func(ctx context.Context) (bool, error) {
		stored, err := g.durable.Get(ctx, storage.KeyAuthToken)
		if err != nil {
			return false, err
		}
		return stored == normalized, nil
	})
	if outcome != waitfor.Satisfied {
		log.Warn().Str("outcome", outcome.String()).Err(err).Msg("durable token verification failed")
		return errors.Wrap(PersistenceUnverifiedErr, "[Guard.Login] verification "+outcome.String())
	}
	return nil
}

// Signup establishes a session for a freshly registered user. Persistence and
// verification behave exactly like Login.
func (g *Guard) Signup(ctx context.Context, user *User, token string) error {
	if err := g.Login(ctx, user, token); err != nil {
		return errors.Wrap(err, "[Guard.Signup]")
	}
	return nil
}

// Hydrate rebuilds the in-memory session from durable storage on cold start.
// The bare token key is preferred; the structured blob only contributes the
// user profile. Token presence alone is enough to consider the session
// possibly valid — final validation belongs to the API layer. A JWT with an
// expired exp claim is the one exception: it is discarded outright.
func (g *Guard) Hydrate(ctx context.Context) (*Session, error) {
	g.lock.RLock()
	if g.current != nil {
		current := g.current
		g.lock.RUnlock()
		return current, nil
	}
	g.lock.RUnlock()

	token, err := g.durable.Get(ctx, storage.KeyAuthToken)
	if err != nil && !errors.Is(err, storage.NotFoundErr) {
		return nil, errors.Wrap(err, "[Guard.Hydrate] read token")
	}

	var blob Session
	blobErr := storage.GetJSON(ctx, g.durable, storage.KeyAuthSession, &blob)

	// Either copy may be the sole survivor after a crash; token key wins.
	if token == "" && blobErr == nil {
		token = blob.Token
	}
	if token == "" {
		return nil, nil
	}

	if tokenExpired(token, g.nowFunc()) {
		log.Info().Msg("discarding expired stored token")
		if err := g.durable.DeletePrefix(ctx, storage.NamespaceAuth); err != nil {
			return nil, errors.Wrap(err, "[Guard.Hydrate] clear expired auth state")
		}
		return nil, nil
	}

	sess := &Session{Token: token}
	if blobErr == nil {
		sess.User = blob.User
	}
	if ts, err := g.durable.Get(ctx, storage.KeyLoginTimestamp); err == nil {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			sess.LoginTimestamp = parsed
		}
	}

	g.lock.Lock()
	// Re-check under the write lock; a concurrent Login wins.
	if g.current == nil {
		g.current = sess
	} else {
		sess = g.current
	}
	g.lock.Unlock()

	return sess, nil
}

// AwaitReady polls for up to maxWait until the session is usable by a
// protected view. Resolution order per attempt: populated in-memory session,
// then a durable token via Hydrate.
func (g *Guard) AwaitReady(ctx context.Context, maxWait time.Duration) Readiness {
	attempts := int(maxWait/g.readyInterval) + 1

	outcome, _ := waitfor.Poll(ctx, waitfor.Policy{
		Attempts: attempts,
		Interval: g.readyInterval,
	}, func(ctx context.Context) (bool, error) {
		sess, err := g.Hydrate(ctx)
		if err != nil {
			return false, err
		}
		return sess != nil && sess.Token != "", nil
	})
	if outcome == waitfor.Satisfied {
		return Ready
	}

	// Exhausted or canceled: distinguish "definitely logged out" from
	// "token visible but never confirmed".
	if token, err := g.durable.Get(ctx, storage.KeyAuthToken); err == nil && token != "" {
		return TimedOut
	}
	return Unauthenticated
}

// Logout destroys the in-memory session and clears the auth namespace in
// durable storage. Other namespaces (cart, wishlist, checkout) are untouched.
func (g *Guard) Logout(ctx context.Context) error {
	g.lock.Lock()
	g.current = nil
	g.lock.Unlock()

	if err := g.durable.DeletePrefix(ctx, storage.NamespaceAuth); err != nil {
		return errors.Wrap(err, "[Guard.Logout] clear auth namespace")
	}
	return nil
}

// Current returns the in-memory session, or nil when unauthenticated.
func (g *Guard) Current() *Session {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.current
}

// Token returns the current bearer token, or the empty string.
func (g *Guard) Token() string {
	g.lock.RLock()
	defer g.lock.RUnlock()
	if g.current == nil {
		return ""
	}
	return g.current.Token
}
