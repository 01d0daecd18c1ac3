// Package api implements the authenticated REST client for the bag shop
// billing backend. Every call takes the bearer credential explicitly; the
// session store decides which credential is current.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client issues authenticated requests against the billing backend.
type Client struct {
	base   *url.URL
	client HTTPClient
}

// New constructs a Client for the given base URL.
func New(baseURL string, client HTTPClient) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("api: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		base:   parsed,
		client: client,
	}, nil
}

// Login exchanges operator credentials for an access token. The backend
// expects a form-encoded body. Rejections map to ErrUnauthorized without
// further detail.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("/auth/login"), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return "", ErrUnauthorized
	default:
		return "", errorFromResponse(resp)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("api: decode login response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", ErrUnauthorized
	}
	return payload.AccessToken, nil
}

// Me retrieves the profile for the current credential.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.getJSON(ctx, token, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Dashboard retrieves the overview summary.
func (c *Client) Dashboard(ctx context.Context, token string) (*DashboardSummary, error) {
	var summary DashboardSummary
	if err := c.getJSON(ctx, token, "/dashboard", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListBags returns catalog products, optionally filtered by the search query.
func (c *Client) ListBags(ctx context.Context, token, query string) ([]Bag, error) {
	endpoint := "/bags"
	if strings.TrimSpace(query) != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	var bags []Bag
	if err := c.getJSON(ctx, token, endpoint, &bags); err != nil {
		return nil, err
	}
	return bags, nil
}

// CreateBag adds a catalog product.
func (c *Client) CreateBag(ctx context.Context, token string, bag Bag) (*Bag, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/bags", bag, token)
	if err != nil {
		return nil, err
	}
	var created Bag
	if err := c.doJSON(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateBag overwrites a catalog product.
func (c *Client) UpdateBag(ctx context.Context, token, id string, bag Bag) (*Bag, error) {
	endpoint := path.Join("/bags", url.PathEscape(strings.TrimSpace(id)))
	req, err := c.newJSONRequest(ctx, http.MethodPut, endpoint, bag, token)
	if err != nil {
		return nil, err
	}
	var updated Bag
	if err := c.doJSON(req, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBag removes a catalog product.
func (c *Client) DeleteBag(ctx context.Context, token, id string) error {
	endpoint := path.Join("/bags", url.PathEscape(strings.TrimSpace(id)))
	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil, token)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errorFromResponse(resp)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return nil
}

// ListCustomers returns all customers.
func (c *Client) ListCustomers(ctx context.Context, token string) ([]Customer, error) {
	var customers []Customer
	if err := c.getJSON(ctx, token, "/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// CreateCustomer adds a customer record.
func (c *Client) CreateCustomer(ctx context.Context, token string, customer Customer) (*Customer, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/customers", customer, token)
	if err != nil {
		return nil, err
	}
	var created Customer
	if err := c.doJSON(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListOrders returns the recent orders, newest first per backend ordering.
func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if err := c.getJSON(ctx, token, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder submits a composed order. The idempotency key travels in the
// Idempotency-Key header so the backend can deduplicate repeated attempts.
func (c *Client) CreateOrder(ctx context.Context, token string, order OrderRequest, idempotencyKey string) (*Order, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/orders", order, token)
	if err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	var created Order
	if err := c.doJSON(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// FetchInvoice retrieves the rendered invoice document for an order.
func (c *Client) FetchInvoice(ctx context.Context, token, orderID string) (*Invoice, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.invoicePath(orderID), nil, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read invoice: %w", err)
	}
	return &Invoice{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// InvoiceURL returns the absolute URL of the invoice resource, suitable for
// handing to an external viewer.
func (c *Client) InvoiceURL(orderID string) string {
	return c.resolve(c.invoicePath(orderID))
}

// SeedAdmin asks the backend to create the demo admin account. Best effort:
// callers are expected to ignore the error.
func (c *Client) SeedAdmin(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/seed/admin", nil, "")
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp)
	}
	return nil
}

func (c *Client) invoicePath(orderID string) string {
	return path.Join("/orders", url.PathEscape(strings.TrimSpace(orderID)), "invoice")
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, token)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errorFromResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, endpoint string, payload any, token string) (*http.Request, error) {
	var buf bytes.Buffer
	if payload != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return nil, fmt.Errorf("api: encode payload: %w", err)
		}
	}
	req, err := c.newRequest(ctx, method, endpoint, &buf, token)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	if endpoint == "" {
		return c.base.String()
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	trimmed := strings.TrimPrefix(endpoint, "/")
	ref, err := url.Parse(trimmed)
	if err != nil {
		ref = &url.URL{Path: trimmed}
	}
	return c.base.ResolveReference(ref).String()
}
