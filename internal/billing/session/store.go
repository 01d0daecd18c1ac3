// Package session maintains the authenticated operator session: the
// persisted credential, the in-memory profile, and the login/logout state
// machine that gates every other component.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/bagshop/billing/internal/billing/api"
)

// State is the lifecycle phase of the operator session.
type State string

const (
	// StateUnauthenticated means no credential is held.
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticating means a login round-trip is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means a credential is held. The profile may still
	// be unknown while its fetch is in flight or after it failed.
	StateAuthenticated State = "authenticated"
)

// ErrLoginInFlight indicates a login attempt is already running.
var ErrLoginInFlight = errors.New("session: login already in flight")

// Session is a point-in-time snapshot of the store.
type Session struct {
	State State
	Token string
	// User is nil while the profile is unknown.
	User *api.User
}

// Authenticated reports whether the session holds a credential.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated
}

type authClient interface {
	Login(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context, token string) (*api.User, error)
}

// StoreDeps wires the API client and credential persistence for the store.
type StoreDeps struct {
	Client      authClient
	Credentials CredentialStore
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// Store owns the session state. It is the single writer of the persisted
// credential; reads are mutex-guarded snapshots.
type Store struct {
	client authClient
	creds  CredentialStore
	logger func(ctx context.Context, event string, fields map[string]any)

	mu    sync.Mutex
	state State
	token string
	user  *api.User

	profileWG sync.WaitGroup
}

// NewStore constructs a Store and rehydrates any previously persisted
// credential. Rehydration yields an authenticated session before any network
// round-trip; the profile stays unknown until RefreshProfile completes.
func NewStore(deps StoreDeps) (*Store, error) {
	if deps.Client == nil {
		return nil, errors.New("session store: api client is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("session store: credential store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	store := &Store{
		client: deps.Client,
		creds:  deps.Credentials,
		logger: logger,
		state:  StateUnauthenticated,
	}

	token, err := deps.Credentials.Load()
	if err != nil {
		logger(context.Background(), "session.rehydrate_failed", map[string]any{
			"error": err.Error(),
		})
	} else if token != "" {
		store.token = token
		store.state = StateAuthenticated
	}

	return store, nil
}

// Login authenticates the operator. On success the credential is persisted
// and the profile is fetched asynchronously; a profile fetch failure degrades
// to an unknown profile and never fails the login. On rejection the
// credential is not persisted and the store returns to unauthenticated.
func (s *Store) Login(ctx context.Context, identifier, secret string) (Session, error) {
	s.mu.Lock()
	if s.state == StateAuthenticating {
		s.mu.Unlock()
		return Session{State: StateAuthenticating}, ErrLoginInFlight
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	token, err := s.client.Login(ctx, identifier, secret)
	if err != nil {
		s.mu.Lock()
		s.state = StateUnauthenticated
		s.token = ""
		s.user = nil
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		return snapshot, err
	}

	if err := s.creds.Save(token); err != nil {
		// The session stays usable in memory; only restart rehydration is
		// affected. Log and continue.
		s.logger(ctx, "session.persist_failed", map[string]any{
			"error": err.Error(),
		})
	}

	s.mu.Lock()
	s.token = token
	s.user = nil
	s.state = StateAuthenticated
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.profileWG.Add(1)
	go func() {
		defer s.profileWG.Done()
		s.refreshProfile(context.WithoutCancel(ctx), token)
	}()

	return snapshot, nil
}

// Logout clears the persisted credential and the in-memory profile
// unconditionally. No server round-trip is made.
func (s *Store) Logout() {
	if err := s.creds.Clear(); err != nil {
		s.logger(context.Background(), "session.clear_failed", map[string]any{
			"error": err.Error(),
		})
	}

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// Current returns a snapshot of the session state.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the held credential, or an empty string when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// RefreshProfile fetches the profile for the current credential. Intended
// for the post-rehydration refresh at startup.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.refreshProfile(ctx, s.Token())
}

func (s *Store) refreshProfile(ctx context.Context, token string) {
	if token == "" {
		return
	}
	user, err := s.client.Me(ctx, token)
	if err != nil {
		s.logger(ctx, "session.profile_fetch_failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	s.mu.Lock()
	// A logout or re-login may have replaced the credential while the fetch
	// was in flight; a stale profile must not attach to the new session.
	if s.token == token {
		s.user = user
	}
	s.mu.Unlock()
}

func (s *Store) snapshotLocked() Session {
	snapshot := Session{
		State: s.state,
		Token: s.token,
	}
	if s.user != nil {
		dup := *s.user
		snapshot.User = &dup
	}
	return snapshot
}
