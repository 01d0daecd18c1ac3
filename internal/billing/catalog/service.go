// Package catalog wraps the product list/detail screens' backend calls.
// These are plain CRUD pass-throughs; the only local behaviour is the
// staleness guard on list refreshes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bagshop/billing/internal/billing/api"
	"github.com/bagshop/billing/internal/billing/fetch"
)

// ErrNotAuthenticated indicates no credential is available.
var ErrNotAuthenticated = errors.New("catalog: not authenticated")

type bagClient interface {
	ListBags(ctx context.Context, token, query string) ([]api.Bag, error)
	CreateBag(ctx context.Context, token string, bag api.Bag) (*api.Bag, error)
	UpdateBag(ctx context.Context, token, id string, bag api.Bag) (*api.Bag, error)
	DeleteBag(ctx context.Context, token, id string) error
}

// TokenSource supplies the current session credential.
type TokenSource interface {
	Token() string
}

// Service maintains the catalog view state.
type Service struct {
	client bagClient
	tokens TokenSource

	mu    sync.Mutex
	bags  []api.Bag
	guard fetch.Guard
}

// NewService constructs a catalog Service.
func NewService(client bagClient, tokens TokenSource) (*Service, error) {
	if client == nil {
		return nil, errors.New("catalog service: api client is required")
	}
	if tokens == nil {
		return nil, errors.New("catalog service: token source is required")
	}
	return &Service{client: client, tokens: tokens}, nil
}

// Refresh reloads the catalog, optionally filtered by the search query.
// A response that lost to a newer refresh is discarded.
func (s *Service) Refresh(ctx context.Context, query string) ([]api.Bag, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	version := s.guard.Begin()
	bags, err := s.client.ListBags(ctx, token, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard.Commit(version) {
		s.bags = bags
	}
	return bags, nil
}

// Bags returns the last refreshed catalog snapshot.
func (s *Service) Bags() []api.Bag {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]api.Bag, len(s.bags))
	copy(dup, s.bags)
	return dup
}

// Save creates the bag when it has no id and updates it otherwise, then
// refreshes the catalog.
func (s *Service) Save(ctx context.Context, bag api.Bag) (*api.Bag, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	var (
		saved *api.Bag
		err   error
	)
	if strings.TrimSpace(bag.ID) == "" {
		saved, err = s.client.CreateBag(ctx, token, bag)
	} else {
		saved, err = s.client.UpdateBag(ctx, token, bag.ID, bag)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: save: %w", err)
	}

	if _, err := s.Refresh(ctx, ""); err != nil {
		return saved, err
	}
	return saved, nil
}

// Delete removes a bag and refreshes the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	token := s.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	if err := s.client.DeleteBag(ctx, token, id); err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	_, err := s.Refresh(ctx, "")
	return err
}
