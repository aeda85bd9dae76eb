package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmoreno/shopfront/pkg/logger"
)

type remoteClient interface {
	Get(ctx context.Context, path string, out any) error
}

// Store holds the full unfiltered product list, fetched once per session
// and replaced only through explicit invalidation after an admin mutation.
type Store struct {
	mu sync.Mutex

	products   []Product
	categories []string
	loaded     bool

	api    remoteClient
	logger *logger.Logger
}

// NewStore builds the product catalog store.
func NewStore(api remoteClient, logg *logger.Logger) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Store{api: api, logger: logg}, nil
}

// Load fetches the product list once. Subsequent calls return the cached
// list until Invalidate discards it.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	var products []Product
	if err := s.api.Get(ctx, "/api/products", &products); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "catalog"), "load products", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.loaded = true
	return nil
}

// Invalidate drops the cached list so the next Load re-fetches. Called
// after admin product mutations.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	s.loaded = false
}

// Products returns a copy of the cached list.
func (s *Store) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// LoadCategories fetches the category list used by the filter bar.
func (s *Store) LoadCategories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	if s.categories != nil {
		cached := make([]string, len(s.categories))
		copy(cached, s.categories)
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	var categories []string
	if err := s.api.Get(ctx, "/api/categories", &categories); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "catalog"), "load categories", err)
		return nil, err
	}

	s.mu.Lock()
	s.categories = categories
	s.mu.Unlock()

	out := make([]string, len(categories))
	copy(out, categories)
	return out, nil
}
