package checkout

import (
	"context"
	"fmt"

	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/storage"
)

const (
	directBuyKey    = "checkout:direct_buy"
	snapshotVersion = 1
)

type remoteClient interface {
	Delete(ctx context.Context, path string, out any) error
}

type cartResetter interface {
	Clear(ctx context.Context)
}

// Service owns checkout-flow state: the direct-buy flag and the
// post-checkout cart clearing handshake.
type Service interface {
	SetDirectBuy(ctx context.Context, on bool) error
	DirectBuy(ctx context.Context) bool
	Complete(ctx context.Context) error
}

type service struct {
	api       remoteClient
	cart      cartResetter
	snapshots storage.Store
	logger    *logger.Logger
}

// NewService builds the checkout service.
func NewService(api remoteClient, cart cartResetter, snapshots storage.Store, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot storage required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, cart: cart, snapshots: snapshots, logger: logg}, nil
}

// SetDirectBuy flags a buy-now flow that bypasses the cart page. The
// flag persists so a reload mid-flow resumes correctly.
func (s *service) SetDirectBuy(ctx context.Context, on bool) error {
	if !on {
		return s.snapshots.Del(ctx, directBuyKey)
	}
	return storage.SaveJSON(ctx, s.snapshots, directBuyKey, snapshotVersion, true)
}

func (s *service) DirectBuy(ctx context.Context) bool {
	var on bool
	found, err := storage.LoadJSON(ctx, s.snapshots, directBuyKey, snapshotVersion, &on)
	if err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "checkout"), "load direct-buy flag", err)
		return false
	}
	return found && on
}

// Complete confirms server-side cart clearing, then resets the local
// cart. The local reset only happens after the server acknowledges:
// cart.Clear is never a substitute for a server round trip.
func (s *service) Complete(ctx context.Context) error {
	if err := s.api.Delete(ctx, "/api/cart/clear", nil); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "checkout"), "clear server cart", err)
		return err
	}

	s.cart.Clear(ctx)
	if err := s.snapshots.Del(ctx, directBuyKey); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "checkout"), "clear direct-buy flag", err)
	}
	return nil
}
