// Package checkout drives the submit -> clear -> refresh -> invoice workflow
// for a draft order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/bagshop/billing/internal/billing/api"
	"github.com/bagshop/billing/internal/billing/cart"
	"github.com/bagshop/billing/internal/billing/fetch"
	"github.com/bagshop/billing/internal/billing/pricing"
)

// Orders are always settled in cash at the counter; the payment method is a
// fixed constant, not configuration.
const paymentMethodCash = "cash"

var (
	// ErrNotAuthenticated indicates no credential is available for the
	// submission.
	ErrNotAuthenticated = errors.New("checkout: not authenticated")
	// ErrSubmitInFlight indicates a submission attempt is already running;
	// repeated submits are rejected until it resolves.
	ErrSubmitInFlight = errors.New("checkout: submit already in flight")
	// ErrSubmission wraps any backend or transport failure during submit.
	ErrSubmission = errors.New("checkout: submission failed")
)

type orderClient interface {
	CreateOrder(ctx context.Context, token string, order api.OrderRequest, idempotencyKey string) (*api.Order, error)
	ListOrders(ctx context.Context, token string) ([]api.Order, error)
}

// TokenSource supplies the current session credential.
type TokenSource interface {
	Token() string
}

// InvoiceSink receives the invoice reference for a newly created order.
type InvoiceSink func(ctx context.Context, order api.Order, invoiceURL string)

// ServiceDeps wires the collaborators for the submission workflow.
type ServiceDeps struct {
	Client orderClient
	Tokens TokenSource
	Cart   *cart.Cart
	// InvoiceURL renders the invoice resource location for an order id.
	InvoiceURL func(orderID string) string
	// Invoices is signalled after a successful submission. Optional.
	Invoices InvoiceSink
	Logger   func(ctx context.Context, event string, fields map[string]any)
	// IDGenerator mints one idempotency key per submission attempt.
	// Defaults to ULIDs.
	IDGenerator func() string
}

// Draft is a snapshot of the order-level adjustments being composed.
type Draft struct {
	CustomerName string
	Discount     float64
	TaxRate      float64
}

// Service owns the draft order state around the cart and orchestrates
// submission.
type Service struct {
	client     orderClient
	tokens     TokenSource
	cart       *cart.Cart
	invoiceURL func(string) string
	invoices   InvoiceSink
	logger     func(ctx context.Context, event string, fields map[string]any)
	newID      func() string

	mu       sync.Mutex
	draft    Draft
	inFlight bool
	recent   []api.Order
	guard    fetch.Guard
}

// NewService constructs a Service validating required dependencies.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Client == nil {
		return nil, errors.New("checkout service: api client is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("checkout service: token source is required")
	}
	if deps.Cart == nil {
		return nil, errors.New("checkout service: cart is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	invoiceURL := deps.InvoiceURL
	if invoiceURL == nil {
		invoiceURL = func(string) string { return "" }
	}

	return &Service{
		client:     deps.Client,
		tokens:     deps.Tokens,
		cart:       deps.Cart,
		invoiceURL: invoiceURL,
		invoices:   deps.Invoices,
		logger:     logger,
		newID:      idGen,
	}, nil
}

// SetCustomerName updates the draft customer name.
func (s *Service) SetCustomerName(name string) {
	s.mu.Lock()
	s.draft.CustomerName = name
	s.mu.Unlock()
}

// SetDiscount updates the order-level discount. Values are accepted as-is;
// pricing applies the zero floor.
func (s *Service) SetDiscount(discount float64) {
	s.mu.Lock()
	s.draft.Discount = discount
	s.mu.Unlock()
}

// SetTaxRate updates the order-level tax rate.
func (s *Service) SetTaxRate(rate float64) {
	s.mu.Lock()
	s.draft.TaxRate = rate
	s.mu.Unlock()
}

// Draft returns a snapshot of the current adjustments.
func (s *Service) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Totals derives the pricing state from the cart and the draft adjustments.
// Derived on every call, never cached.
func (s *Service) Totals() pricing.Totals {
	draft := s.Draft()
	return pricing.ComputeTotals(s.cart.Lines(), draft.Discount, draft.TaxRate)
}

// Submit assembles the payload, creates the order, and on success resets the
// cart, clears the draft, refreshes the recent-order list, and signals the
// invoice reference. Failure leaves the cart and draft untouched. Each
// attempt carries a fresh idempotency key; overlapping attempts are
// rejected.
func (s *Service) Submit(ctx context.Context) (*api.Order, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	s.inFlight = true
	draft := s.draft
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	token := s.tokens.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	payload := api.OrderRequest{
		CustomerName:  draft.CustomerName,
		Items:         s.cart.Items(),
		Discount:      draft.Discount,
		TaxRate:       draft.TaxRate,
		PaymentMethod: paymentMethodCash,
	}
	attemptKey := s.newID()

	order, err := s.client.CreateOrder(ctx, token, payload, attemptKey)
	if err != nil {
		s.logger(ctx, "checkout.submit_failed", map[string]any{
			"attempt": attemptKey,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	s.cart.Reset()
	s.mu.Lock()
	s.draft = Draft{}
	s.mu.Unlock()

	if err := s.RefreshOrders(ctx); err != nil {
		// The order is already placed; a failed refresh only leaves the
		// recent list stale.
		s.logger(ctx, "checkout.refresh_failed", map[string]any{
			"orderID": order.ID,
			"error":   err.Error(),
		})
	}

	if s.invoices != nil {
		s.invoices(ctx, *order, s.invoiceURL(order.ID))
	}

	return order, nil
}

// RefreshOrders reloads the recent-order list. A response that lost to a
// newer refresh is discarded.
func (s *Service) RefreshOrders(ctx context.Context) error {
	token := s.tokens.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	version := s.guard.Begin()
	orders, err := s.client.ListOrders(ctx, token)
	if err != nil {
		return fmt.Errorf("checkout: refresh orders: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard.Commit(version) {
		return nil
	}
	s.recent = orders
	return nil
}

// RecentOrders returns the last refreshed order list.
func (s *Service) RecentOrders() []api.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]api.Order, len(s.recent))
	copy(dup, s.recent)
	return dup
}
