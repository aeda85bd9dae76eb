package health

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmoreno/shopfront/internal/session"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeAPI) Get(ctx context.Context, path string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.response == "" {
		return nil
	}
	return json.Unmarshal([]byte(f.response), out)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSession records the order of observable effects so tests can
// assert the banned-modal-before-logout sequencing.
type fakeSession struct {
	mu         sync.Mutex
	authed     bool
	generation uint64
	logouts    int
	patches    []session.UserPatch
	effects    *effectLog
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed
}

func (f *fakeSession) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

func (f *fakeSession) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.authed = false
	f.generation++
	f.mu.Unlock()
	f.effects.record("logout")
	return nil
}

func (f *fakeSession) UpdateUser(ctx context.Context, patch session.UserPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	return nil
}

func (f *fakeSession) advanceGeneration() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
}

type fakeCart struct {
	mu      sync.Mutex
	fetches int
}

func (f *fakeCart) Fetch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return nil
}

func (f *fakeCart) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type fakeNotify struct {
	effects *effectLog
	shown   int
}

func (f *fakeNotify) ShowBanned(ctx context.Context) {
	f.shown++
	f.effects.record("show_banned")
}

type effectLog struct {
	mu     sync.Mutex
	events []string
}

func (e *effectLog) record(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *effectLog) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	copy(out, e.events)
	return out
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "health-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newFixture(t *testing.T, api *fakeAPI, authed bool) (*Monitor, *fakeSession, *fakeCart, *fakeNotify) {
	t.Helper()
	effects := &effectLog{}
	sess := &fakeSession{authed: authed, effects: effects}
	cart := &fakeCart{}
	notify := &fakeNotify{effects: effects}

	monitor, err := NewMonitor(api, sess, cart, notify, time.Second, nil, testLogger())
	require.NoError(t, err)
	return monitor, sess, cart, notify
}

func TestUnauthenticatedIsNoOp(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	monitor, _, cart, _ := newFixture(t, api, false)

	monitor.OnRouteChange(context.Background())
	assert.Zero(t, api.callCount(), "no probe without credentials")
	assert.Zero(t, cart.fetchCount())
}

func TestHealthyProbeRefetchesCart(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{response: `{"user":{"id":"u1","name":"Ada"}}`}
	monitor, sess, cart, _ := newFixture(t, api, true)

	monitor.OnRouteChange(context.Background())
	assert.Equal(t, 1, cart.fetchCount())
	require.Len(t, sess.patches, 1)
	require.NotNil(t, sess.patches[0].Name)
	assert.Equal(t, "Ada", *sess.patches[0].Name)
	assert.Zero(t, sess.logouts)
}

func TestBannedShowsModalThenLogsOut(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeForbidden, "account banned")}
	monitor, sess, cart, notify := newFixture(t, api, true)

	monitor.OnRouteChange(context.Background())

	assert.Equal(t, 1, notify.shown)
	assert.Equal(t, 1, sess.logouts)
	assert.Equal(t, []string{"show_banned", "logout"}, sess.effects.all(),
		"modal must appear while the session still reads authenticated")
	assert.Zero(t, cart.fetchCount())
}

func TestExpiredLogsOutSilently(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")}
	monitor, sess, _, notify := newFixture(t, api, true)

	monitor.OnRouteChange(context.Background())

	assert.Equal(t, 1, sess.logouts)
	assert.Zero(t, notify.shown, "401 never raises the banned modal")
}

func TestTransientFailureChangesNothing(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeDependency, "gateway timeout")}
	monitor, sess, cart, notify := newFixture(t, api, true)

	monitor.OnRouteChange(context.Background())

	assert.Zero(t, sess.logouts, "transient failure must not log out")
	assert.Zero(t, notify.shown)
	assert.Zero(t, cart.fetchCount())
	assert.True(t, sess.IsAuthenticated())
}

func TestStaleProbeDiscardsEffects(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")}
	monitor, sess, _, _ := newFixture(t, api, true)

	// A fresh login lands between the probe's trigger and its resolution.
	generation := sess.Generation()
	sess.advanceGeneration()
	require.NotEqual(t, generation, sess.Generation())

	monitor.onExpired(context.Background(), generation)
	assert.Zero(t, sess.logouts, "stale 401 must not tear down the new session")
}

func TestConcurrentProbesAreSafe(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{response: `{"user":{"id":"u1"}}`}
	monitor, _, cart, _ := newFixture(t, api, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitor.OnRouteChange(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, cart.fetchCount())
	assert.Zero(t, monitor.InFlight())
}

func TestHealthyProbeRecoversMissingUserRecord(t *testing.T) {
	t.Parallel()

	snapshots := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, storage.SaveJSON(ctx, snapshots, "session:token", session.SchemaVersion, "orphan-token"))

	sess, err := session.NewStore(ctx, snapshots, testLogger())
	require.NoError(t, err)
	require.True(t, sess.IsAuthenticated())
	require.Nil(t, sess.Snapshot().User)

	api := &fakeAPI{response: `{"user":{"id":"u9","name":"Recovered","email":"r@example.com"}}`}
	monitor, err := NewMonitor(api, sess, &fakeCart{}, &fakeNotify{effects: &effectLog{}}, time.Second, nil, testLogger())
	require.NoError(t, err)

	monitor.OnRouteChange(ctx)

	snap := sess.Snapshot()
	require.NotNil(t, snap.User, "healthy probe restores the rehydrated token-only session's user")
	assert.Equal(t, "u9", snap.User.ID)
	assert.Equal(t, "Recovered", snap.User.Name)
	assert.Equal(t, "r@example.com", snap.User.Email)
}

func TestRepeatedLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "token expired")}
	monitor, sess, _, _ := newFixture(t, api, true)

	monitor.OnRouteChange(context.Background())
	monitor.OnRouteChange(context.Background())

	assert.Equal(t, 1, sess.logouts, "second probe sees unauthenticated session and no-ops")
}
