// Package dashboard backs the summary screen.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bagshop/billing/internal/billing/api"
	"github.com/bagshop/billing/internal/billing/fetch"
)

// ErrNotAuthenticated indicates no credential is available.
var ErrNotAuthenticated = errors.New("dashboard: not authenticated")

type summaryClient interface {
	Dashboard(ctx context.Context, token string) (*api.DashboardSummary, error)
}

// TokenSource supplies the current session credential.
type TokenSource interface {
	Token() string
}

// Service caches the latest dashboard summary.
type Service struct {
	client summaryClient
	tokens TokenSource

	mu      sync.Mutex
	summary *api.DashboardSummary
	guard   fetch.Guard
}

// NewService constructs a dashboard Service.
func NewService(client summaryClient, tokens TokenSource) (*Service, error) {
	if client == nil {
		return nil, errors.New("dashboard service: api client is required")
	}
	if tokens == nil {
		return nil, errors.New("dashboard service: token source is required")
	}
	return &Service{client: client, tokens: tokens}, nil
}

// Refresh fetches the summary, discarding responses that lost to a newer
// refresh.
func (s *Service) Refresh(ctx context.Context) (*api.DashboardSummary, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	version := s.guard.Begin()
	summary, err := s.client.Dashboard(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("dashboard: refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.guard.Commit(version) {
		s.summary = summary
	}
	return summary, nil
}

// Summary returns the last refreshed summary, or nil before the first
// successful refresh.
func (s *Service) Summary() *api.DashboardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}
