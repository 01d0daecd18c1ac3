// Package customers backs the customer directory screen.
package customers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bagshop/billing/internal/billing/api"
	"github.com/bagshop/billing/internal/billing/fetch"
)

// ErrNotAuthenticated indicates no credential is available.
var ErrNotAuthenticated = errors.New("customers: not authenticated")

type customerClient interface {
	ListCustomers(ctx context.Context, token string) ([]api.Customer, error)
	CreateCustomer(ctx context.Context, token string, customer api.Customer) (*api.Customer, error)
}

// TokenSource supplies the current session credential.
type TokenSource interface {
	Token() string
}

// Service maintains the customer directory state.
type Service struct {
	client customerClient
	tokens TokenSource

	mu        sync.Mutex
	customers []api.Customer
	guard     fetch.Guard
}

// NewService constructs a customers Service.
func NewService(client customerClient, tokens TokenSource) (*Service, error) {
	if client == nil {
		return nil, errors.New("customers service: api client is required")
	}
	if tokens == nil {
		return nil, errors.New("customers service: token source is required")
	}
	return &Service{client: client, tokens: tokens}, nil
}

// Refresh reloads the directory, discarding responses that lost to a
// newer refresh.
func (s *Service) Refresh(ctx context.Context) ([]api.Customer, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	version := s.guard.Begin()
	customers, err := s.client.ListCustomers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("customers: refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard.Commit(version) {
		s.customers = customers
	}
	return customers, nil
}

// Customers returns the last refreshed snapshot.
func (s *Service) Customers() []api.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]api.Customer, len(s.customers))
	copy(dup, s.customers)
	return dup
}

// Create adds a customer and refreshes the directory.
func (s *Service) Create(ctx context.Context, customer api.Customer) (*api.Customer, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	created, err := s.client.CreateCustomer(ctx, token, customer)
	if err != nil {
		return nil, fmt.Errorf("customers: create: %w", err)
	}

	if _, err := s.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}
