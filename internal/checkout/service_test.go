package checkout

import (
	"context"
	"io"
	"testing"

	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	err      error
	lastPath string
	calls    int
}

func (f *fakeAPI) Delete(ctx context.Context, path string, out any) error {
	f.calls++
	f.lastPath = path
	return f.err
}

type fakeCart struct {
	clears int
}

func (f *fakeCart) Clear(ctx context.Context) { f.clears++ }

func newTestService(t *testing.T, api *fakeAPI, cart *fakeCart) (Service, storage.Store) {
	t.Helper()
	snapshots := storage.NewMemory()
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(api, cart, snapshots, logg)
	require.NoError(t, err)
	return svc, snapshots
}

func TestDirectBuyFlagRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeAPI{}, &fakeCart{})
	ctx := context.Background()

	assert.False(t, svc.DirectBuy(ctx))

	require.NoError(t, svc.SetDirectBuy(ctx, true))
	assert.True(t, svc.DirectBuy(ctx))

	require.NoError(t, svc.SetDirectBuy(ctx, false))
	assert.False(t, svc.DirectBuy(ctx))
}

func TestCompleteClearsServerThenLocal(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	cart := &fakeCart{}
	svc, _ := newTestService(t, api, cart)
	ctx := context.Background()

	require.NoError(t, svc.SetDirectBuy(ctx, true))
	require.NoError(t, svc.Complete(ctx))

	assert.Equal(t, "/api/cart/clear", api.lastPath)
	assert.Equal(t, 1, cart.clears)
	assert.False(t, svc.DirectBuy(ctx), "completion resets the direct-buy flag")
}

func TestCompleteFailureLeavesLocalCart(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	cart := &fakeCart{}
	svc, _ := newTestService(t, api, cart)

	err := svc.Complete(context.Background())
	require.Error(t, err)
	assert.Zero(t, cart.clears, "local clear requires server acknowledgement")
}
