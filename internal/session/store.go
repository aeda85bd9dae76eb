package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/multierr"
)

const (
	tokenKey = "session:token"
	userKey  = "session:user"

	// SchemaVersion guards persisted session blobs. Bump it when the
	// persisted shape changes; stale snapshots are discarded on load.
	SchemaVersion = 1
)

// User is the shopper identity attached to an authenticated session.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch carries partial profile updates. Nil fields are untouched.
type UserPatch struct {
	ID    *string `json:"id,omitempty"`
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Snapshot is a point-in-time copy of session state safe to hand out.
type Snapshot struct {
	Token           string
	User            *User
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// Store is the only component allowed to mutate session state. Every
// transition goes through its reducer surface; readers get copies.
type Store struct {
	mu sync.Mutex

	token      string
	user       *User
	loading    bool
	lastError  string
	generation uint64

	snapshots storage.Store
	logger    *logger.Logger
}

// NewStore builds the session store and rehydrates persisted state. A token
// without a user record still counts as authenticated; the missing profile
// is recoverable from the next liveness probe.
func NewStore(ctx context.Context, snapshots storage.Store, logg *logger.Logger) (*Store, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	s := &Store{
		snapshots: snapshots,
		logger:    logg,
	}

	ctx = logg.WithComponent(ctx, "session")

	var token string
	found, err := storage.LoadJSON(ctx, snapshots, tokenKey, SchemaVersion, &token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rehydrate session token")
	}
	if found {
		s.token = token
	}

	var user User
	found, err = storage.LoadJSON(ctx, snapshots, userKey, SchemaVersion, &user)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rehydrate session user")
	}
	if found {
		s.user = &user
	}

	if s.token != "" && s.user == nil {
		logg.Warn(ctx, "session token present without user record, keeping session")
	}

	return s, nil
}

// LoginStart marks an authentication attempt in flight and clears the
// previous attempt's error. Token and user are untouched.
func (s *Store) LoginStart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastError = ""
}

// LoginSuccess installs the new session and persists both keys. The
// generation counter advances so in-flight health probes started against
// the previous session cannot tear this one down.
func (s *Store) LoginSuccess(ctx context.Context, token string, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = &user
	s.loading = false
	s.lastError = ""
	s.generation++

	ctx = s.logger.WithUserID(s.logger.WithComponent(ctx, "session"), user.ID)
	s.logger.Info(ctx, "session established")

	if err := storage.SaveJSON(ctx, s.snapshots, tokenKey, SchemaVersion, token); err != nil {
		return err
	}
	return storage.SaveJSON(ctx, s.snapshots, userKey, SchemaVersion, user)
}

// LoginFailure records the attempt's error message. It never clears token
// or user: a failed re-auth must not log out an existing session.
func (s *Store) LoginFailure(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastError = message
}

// Logout clears the session and removes both persisted keys. Calling it
// while already logged out is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" && s.user == nil {
		return nil
	}

	s.token = ""
	s.user = nil
	s.loading = false
	s.lastError = ""
	s.generation++

	ctx = s.logger.WithComponent(ctx, "session")
	s.logger.Info(ctx, "session cleared")

	return multierr.Combine(
		s.snapshots.Del(ctx, tokenKey),
		s.snapshots.Del(ctx, userKey),
	)
}

func (s *Store) ClearError(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = ""
}

// UpdateUser applies a partial profile update and re-persists the user
// blob. An authenticated session whose user record went missing (token
// rehydrated without a user blob) gets the record recreated from the
// patch; without a token there is nothing to patch against.
func (s *Store) UpdateUser(ctx context.Context, patch UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		if s.token == "" {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "no session user to update")
		}
		s.user = &User{}
	}

	if patch.ID != nil {
		s.user.ID = *patch.ID
	}
	if patch.Name != nil {
		s.user.Name = *patch.Name
	}
	if patch.Email != nil {
		s.user.Email = *patch.Email
	}

	return storage.SaveJSON(ctx, s.snapshots, userKey, SchemaVersion, *s.user)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Token:           s.token,
		IsAuthenticated: s.token != "",
		Loading:         s.loading,
		Error:           s.lastError,
	}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

// Token satisfies the API client's TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Generation identifies the current session epoch. Login and logout both
// advance it; a health probe compares generations before applying effects.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// TokenExpiry reads the exp claim without verifying the signature. The
// server is the authority on token validity; this is advisory only, for
// display and pre-emptive refresh decisions.
func (s *Store) TokenExpiry() (time.Time, bool) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, false
	}
	return expiry.Time, true
}
