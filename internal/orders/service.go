package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/dmoreno/shopfront/internal/cart"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/validate"
	"github.com/shopspring/decimal"
)

type remoteClient interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type sessionReader interface {
	IsAuthenticated() bool
}

// Order is a server-owned order record. The client never mutates one
// locally; state changes round-trip through the API.
type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Lines     []cart.Line     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// PlaceInput is the checkout payload.
type PlaceInput struct {
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Phone       string `json:"phone" validate:"required,min=7"`
}

// Service exposes the shopper's order operations.
type Service interface {
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, orderID string) (*Order, error)
	Place(ctx context.Context, input PlaceInput) (*Order, error)
	Cancel(ctx context.Context, orderID string) (*Order, error)
}

type service struct {
	api     remoteClient
	session sessionReader
	logger  *logger.Logger
}

// NewService builds the orders service.
func NewService(api remoteClient, sess sessionReader, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if sess == nil {
		return nil, fmt.Errorf("session reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, session: sess, logger: logg}, nil
}

func (s *service) List(ctx context.Context) ([]Order, error) {
	if !s.session.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders")
	}

	var orders []Order
	if err := s.api.Get(ctx, "/api/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !s.session.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to view orders")
	}

	var order Order
	if err := s.api.Get(ctx, "/api/orders/"+orderID, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*Order, error) {
	if !s.session.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var order Order
	if err := s.api.Post(ctx, "/api/orders", input, &order); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "orders"), "place order", err)
		return nil, err
	}
	return &order, nil
}

func (s *service) Cancel(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !s.session.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to cancel an order")
	}

	var order Order
	if err := s.api.Post(ctx, "/api/orders/"+orderID+"/cancel", nil, &order); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "orders"), "cancel order", err)
		return nil, err
	}
	return &order, nil
}
