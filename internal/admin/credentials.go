package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/storage"
)

const (
	tokenKey        = "admin:token"
	snapshotVersion = 1
)

// Navigator forces a view change. The admin surface has no reactive
// session indicator, so credential loss is handled as a hard redirect.
type Navigator interface {
	NavigateTo(ctx context.Context, path string)
}

// Credentials holds the admin bearer token. It is a separate namespace
// from the shopper session: the two tokens never share storage keys and
// clearing one leaves the other intact.
type Credentials struct {
	mu    sync.Mutex
	token string

	snapshots storage.Store
	logger    *logger.Logger
}

// NewCredentials builds the admin credential store and rehydrates the
// persisted token.
func NewCredentials(ctx context.Context, snapshots storage.Store, logg *logger.Logger) (*Credentials, error) {
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	c := &Credentials{snapshots: snapshots, logger: logg}

	var token string
	found, err := storage.LoadJSON(ctx, snapshots, tokenKey, snapshotVersion, &token)
	if err != nil {
		return nil, err
	}
	if found {
		c.token = token
	}
	return c, nil
}

func (c *Credentials) Set(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	return storage.SaveJSON(ctx, c.snapshots, tokenKey, snapshotVersion, token)
}

func (c *Credentials) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	return c.snapshots.Del(ctx, tokenKey)
}

// Token satisfies the API client's TokenSource for admin-scoped calls.
func (c *Credentials) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Credentials) Present() bool {
	return c.Token() != ""
}

// UnauthorizedHook returns the callback wired into the API client's
// admin guard: clear the credential, then hard-redirect to the admin
// login view.
func UnauthorizedHook(creds *Credentials, nav Navigator, loginPath string, logg *logger.Logger) func(context.Context) {
	return func(ctx context.Context) {
		if err := creds.Clear(ctx); err != nil {
			logg.Error(logg.WithComponent(ctx, "admin"), "clear admin credential", err)
		}
		nav.NavigateTo(ctx, loginPath)
	}
}
