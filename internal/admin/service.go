package admin

import (
	"context"
	"fmt"

	"github.com/dmoreno/shopfront/internal/catalog"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/validate"
	"github.com/shopspring/decimal"
)

type remoteClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type catalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// LoginInput is the admin credential pair.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ProductInput creates or replaces an admin-managed product.
type ProductInput struct {
	Title    string          `json:"title" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"required"`
	Image    string          `json:"image"`
	Category []string        `json:"category" validate:"required,min=1"`
	Stock    int             `json:"stock" validate:"gte=0"`
	Tags     []string        `json:"tags"`
}

// Service covers the admin surface: login against the admin credential
// namespace and product mutations. Every successful mutation invalidates
// the shopper catalog so the next load reflects it.
type Service interface {
	Login(ctx context.Context, input LoginInput) error
	Logout(ctx context.Context) error
	CreateProduct(ctx context.Context, input ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, productID string, input ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type service struct {
	api      remoteClient
	creds    *Credentials
	products catalogInvalidator
	logger   *logger.Logger
}

// NewService builds the admin service.
func NewService(api remoteClient, creds *Credentials, products catalogInvalidator, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if creds == nil {
		return nil, fmt.Errorf("admin credentials required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, creds: creds, products: products, logger: logg}, nil
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *service) Login(ctx context.Context, input LoginInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}

	var resp loginResponse
	if err := s.api.Post(ctx, "/api/admin/login", input, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "admin login response missing token")
	}
	return s.creds.Set(ctx, resp.Token)
}

func (s *service) Logout(ctx context.Context) error {
	return s.creds.Clear(ctx)
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*catalog.Product, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var product catalog.Product
	if err := s.api.Post(ctx, "/api/admin/products", input, &product); err != nil {
		return nil, err
	}
	s.products.Invalidate(ctx)
	return &product, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID string, input ProductInput) (*catalog.Product, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var product catalog.Product
	if err := s.api.Put(ctx, "/api/admin/products/"+productID, input, &product); err != nil {
		return nil, err
	}
	s.products.Invalidate(ctx)
	return &product, nil
}

func (s *service) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if err := s.api.Delete(ctx, "/api/admin/products/"+productID, nil); err != nil {
		return err
	}
	s.products.Invalidate(ctx)
	return nil
}
