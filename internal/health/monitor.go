package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmoreno/shopfront/internal/session"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/metrics"
)

const profilePath = "/api/users/profile"

type remoteClient interface {
	Get(ctx context.Context, path string, out any) error
}

type sessionStore interface {
	IsAuthenticated() bool
	Generation() uint64
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, patch session.UserPatch) error
}

type cartFetcher interface {
	Fetch(ctx context.Context) error
}

type bannedNotifier interface {
	ShowBanned(ctx context.Context)
}

// Monitor verifies token liveness on every route change. Overlapping
// probes are allowed; each captures the session generation at trigger
// time and discards its effects if the session changed underneath it.
type Monitor struct {
	mu       sync.Mutex
	inFlight int

	timeout time.Duration
	api     remoteClient
	session sessionStore
	cart    cartFetcher
	notify  bannedNotifier
	metrics *metrics.RequestMetrics
	logger  *logger.Logger
}

// NewMonitor builds the auth health monitor.
func NewMonitor(
	api remoteClient,
	sess sessionStore,
	cart cartFetcher,
	notify bannedNotifier,
	probeTimeout time.Duration,
	m *metrics.RequestMetrics,
	logg *logger.Logger,
) (*Monitor, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if sess == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notification store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Monitor{
		timeout: probeTimeout,
		api:     api,
		session: sess,
		cart:    cart,
		notify:  notify,
		metrics: m,
		logger:  logg,
	}, nil
}

type profileResponse struct {
	User session.User `json:"user"`
}

// OnRouteChange runs one liveness probe. Unauthenticated sessions are a
// no-op: the probe never goes out without credentials. Safe to call
// concurrently; callers typically run it in its own goroutine.
func (m *Monitor) OnRouteChange(ctx context.Context) {
	if !m.session.IsAuthenticated() {
		return
	}
	generation := m.session.Generation()

	m.mu.Lock()
	m.inFlight++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ctx = m.logger.WithComponent(ctx, "health")

	var profile profileResponse
	err := m.api.Get(probeCtx, profilePath, &profile)
	if err == nil {
		m.metrics.ObserveProbe("ok")
		m.onHealthy(ctx, generation, profile)
		return
	}

	switch status := statusOf(err); status {
	case http.StatusForbidden:
		m.metrics.ObserveProbe("banned")
		m.onBanned(ctx, generation)
	case http.StatusUnauthorized:
		m.metrics.ObserveProbe("expired")
		m.onExpired(ctx, generation)
	default:
		// Transient failure. A flaky network call must never log a
		// valid session out.
		m.metrics.ObserveProbe("transient")
		m.logger.Warn(ctx, "liveness probe failed transiently")
	}
}

// InFlight reports the number of probes currently running.
func (m *Monitor) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

func (m *Monitor) onHealthy(ctx context.Context, generation uint64, profile profileResponse) {
	if m.stale(generation) {
		return
	}

	if profile.User.ID != "" || profile.User.Name != "" || profile.User.Email != "" {
		patch := session.UserPatch{}
		if profile.User.ID != "" {
			id := profile.User.ID
			patch.ID = &id
		}
		if profile.User.Name != "" {
			name := profile.User.Name
			patch.Name = &name
		}
		if profile.User.Email != "" {
			email := profile.User.Email
			patch.Email = &email
		}
		if err := m.session.UpdateUser(ctx, patch); err != nil {
			m.logger.Error(ctx, "refresh session user from probe", err)
		}
	}

	if err := m.cart.Fetch(ctx); err != nil {
		m.logger.Error(ctx, "cart refetch after probe", err)
	}
}

// onBanned raises the modal and then logs out, in that order and in one
// synchronous handler. A modal listener must still observe the session
// as authenticated when the modal appears.
func (m *Monitor) onBanned(ctx context.Context, generation uint64) {
	if m.stale(generation) {
		return
	}

	m.notify.ShowBanned(ctx)
	if err := m.session.Logout(ctx); err != nil {
		m.logger.Error(ctx, "logout after ban", err)
	}
}

func (m *Monitor) onExpired(ctx context.Context, generation uint64) {
	if m.stale(generation) {
		return
	}

	m.logger.Info(ctx, "session token expired, logging out")
	if err := m.session.Logout(ctx); err != nil {
		m.logger.Error(ctx, "logout after expiry", err)
	}
}

// stale reports whether the session changed since the probe was
// triggered. A probe that raced a fresh login discards its effects so a
// stale 401/403 cannot tear down the new session.
func (m *Monitor) stale(generation uint64) bool {
	return m.session.Generation() != generation
}

func statusOf(err error) int {
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeForbidden:
			return http.StatusForbidden
		case pkgerrors.CodeUnauthorized:
			return http.StatusUnauthorized
		}
	}
	return 0
}
