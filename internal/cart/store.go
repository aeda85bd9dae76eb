package cart

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/shopspring/decimal"
)

// Line is a single cart entry. Identity is the (ProductID, Size) pair:
// the same product in two sizes is two distinct lines.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
}

// Totals are recomputed from lines on every replace, never incremented.
type Totals struct {
	Items    int
	Subtotal decimal.Decimal
}

// Snapshot is a point-in-time copy of cart state.
type Snapshot struct {
	Lines   []Line
	Totals  Totals
	Syncing bool
	Error   string
}

type remoteClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

type sessionReader interface {
	IsAuthenticated() bool
}

// Store mirrors the server-side cart. Every mutation posts the change and
// replaces local lines with the server's response wholesale; the server is
// the single source of truth and the store never applies deltas.
type Store struct {
	mu sync.Mutex

	lines   []Line
	syncing bool
	lastErr string

	api     remoteClient
	session sessionReader
	logger  *logger.Logger
}

// NewStore builds the cart synchronization store.
func NewStore(api remoteClient, session sessionReader, logg *logger.Logger) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if session == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{
		api:     api,
		session: session,
		logger:  logg,
	}, nil
}

// AddInput describes an add-to-cart request.
type AddInput struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// RemoveInput identifies the line to drop.
type RemoveInput struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

// UpdateInput sets an absolute quantity for a line.
type UpdateInput struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Fetch pulls the server cart. Unauthenticated sessions short-circuit to
// an empty local cart without a network call.
func (s *Store) Fetch(ctx context.Context) error {
	if !s.session.IsAuthenticated() {
		s.replace(ctx, nil)
		return nil
	}

	s.setSyncing(true)
	var lines []Line
	err := s.api.Get(ctx, "/api/cart", &lines)
	s.setSyncing(false)

	if err != nil {
		s.recordError(ctx, "fetch cart", err)
		return err
	}
	return s.replace(ctx, lines)
}

func (s *Store) Add(ctx context.Context, input AddInput) error {
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	return s.mutate(ctx, s.api.Post, "/api/cart/add", input)
}

func (s *Store) Remove(ctx context.Context, input RemoveInput) error {
	return s.mutate(ctx, s.api.Post, "/api/cart/remove", input)
}

func (s *Store) UpdateQuantity(ctx context.Context, input UpdateInput) error {
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return s.mutate(ctx, s.api.Put, "/api/cart/update", input)
}

// Clear drops local cart state only. It issues no network call; callers
// that need the server cart emptied go through the checkout flow.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.lastErr = ""
}

func (s *Store) mutate(ctx context.Context, call func(ctx context.Context, path string, body, out any) error, path string, body any) error {
	s.setSyncing(true)
	var lines []Line
	err := call(ctx, path, body, &lines)
	s.setSyncing(false)

	if err != nil {
		s.recordError(ctx, "sync cart", err)
		return err
	}
	return s.replace(ctx, lines)
}

// replace installs the server's lines as the new local cart. A response
// carrying duplicate (ProductID, Size) pairs is rejected wholesale; the
// previous local state stays in place.
func (s *Store) replace(ctx context.Context, lines []Line) error {
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		key := line.ProductID + "\x00" + line.Size
		if _, dup := seen[key]; dup {
			err := pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("server cart has duplicate line for product %s size %q", line.ProductID, line.Size))
			s.recordError(ctx, "replace cart", err)
			return err
		}
		seen[key] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	s.lastErr = ""
	return nil
}

func (s *Store) setSyncing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = v
}

func (s *Store) recordError(ctx context.Context, op string, err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.logger.Error(s.logger.WithComponent(ctx, "cart"), op, err)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Lines:   make([]Line, len(s.lines)),
		Totals:  computeTotals(s.lines),
		Syncing: s.syncing,
		Error:   s.lastErr,
	}
	copy(snap.Lines, s.lines)
	return snap
}

// Count returns the total item quantity across lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeTotals(s.lines).Items
}

func computeTotals(lines []Line) Totals {
	totals := Totals{Subtotal: decimal.Zero}
	for _, line := range lines {
		totals.Items += line.Quantity
		totals.Subtotal = totals.Subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return totals
}
