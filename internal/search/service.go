package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmoreno/shopfront/internal/catalog"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
)

type remoteClient interface {
	Post(ctx context.Context, path string, body, out any) error
}

type filterSink interface {
	SetAIResults(results []catalog.Product)
}

// Service runs semantic product search and the storefront chat assistant.
type Service interface {
	Semantic(ctx context.Context, query string) ([]catalog.Product, error)
	Chat(ctx context.Context, message string) (string, error)
}

type service struct {
	api     remoteClient
	filters filterSink
	logger  *logger.Logger
}

// NewService builds the search service. Semantic results flow straight
// into the filter state as an AI override.
func NewService(api remoteClient, filters filterSink, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("api client required")
	}
	if filters == nil {
		return nil, fmt.Errorf("filter state required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, filters: filters, logger: logg}, nil
}

type semanticRequest struct {
	Query string `json:"query"`
}

type semanticResponse struct {
	Products []catalog.Product `json:"products"`
}

// Semantic posts the query to the AI search endpoint and installs the
// result set as the active filter override. An empty result set still
// overrides: the shopper sees "no matches", not the unfiltered list.
func (s *service) Semantic(ctx context.Context, query string) ([]catalog.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is empty")
	}

	var resp semanticResponse
	if err := s.api.Post(ctx, "/api/search-ai", semanticRequest{Query: query}, &resp); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "search"), "semantic search", err)
		return nil, err
	}

	results := resp.Products
	if results == nil {
		results = []catalog.Product{}
	}
	s.filters.SetAIResults(results)
	return results, nil
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat sends a message to the storefront assistant and returns its reply.
// Chat never touches filter state.
func (s *service) Chat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "chat message is empty")
	}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chatbot", chatRequest{Message: message}, &resp); err != nil {
		s.logger.Error(s.logger.WithComponent(ctx, "search"), "chat request", err)
		return "", err
	}
	return resp.Reply, nil
}
