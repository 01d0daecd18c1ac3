package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bagshop/billing/internal/billing/api"
)

func TestClientLogin(t *testing.T) {
	t.Parallel()

	var form map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"username": r.PostFormValue("username"),
			"password": r.PostFormValue("password"),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	token, err := client.Login(context.Background(), "admin@example.com", "admin123")
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
	require.Equal(t, "admin@example.com", form["username"])
	require.Equal(t, "admin123", form["password"])
}

func TestClientLoginRejected(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"})
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	_, err = client.Login(context.Background(), "admin@example.com", "wrong")
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestClientListBags(t *testing.T) {
	t.Parallel()

	var receivedAuth, receivedQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bags", r.URL.Path)
		receivedAuth = r.Header.Get("Authorization")
		receivedQuery = r.URL.Query().Get("q")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]api.Bag{
			{ID: "bag-1", SKU: "TOTE-01", Name: "Canvas Tote", SalePrice: 39.5, Stock: 12},
		})
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	bags, err := client.ListBags(context.Background(), "tok", "tote")
	require.NoError(t, err)
	require.Len(t, bags, 1)
	require.Equal(t, "Bearer tok", receivedAuth)
	require.Equal(t, "tote", receivedQuery)
	require.Equal(t, "Canvas Tote", bags[0].Name)
}

func TestClientCreateOrder(t *testing.T) {
	t.Parallel()

	var payload api.OrderRequest
	var idemKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		idemKey = r.Header.Get("Idempotency-Key")

		defer r.Body.Close()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.Order{
			ID:            "order-1",
			InvoiceNumber: "INV-0001",
			Items:         payload.Items,
			Total:         24.5,
		})
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	order, err := client.CreateOrder(context.Background(), "tok", api.OrderRequest{
		CustomerName:  "Aiko",
		Items:         []api.OrderItem{{BagID: "bag-1", Quantity: 2, UnitPrice: 10}},
		Discount:      3,
		TaxRate:       0.1,
		PaymentMethod: "cash",
	}, "attempt-1")
	require.NoError(t, err)
	require.Equal(t, "INV-0001", order.InvoiceNumber)
	require.Equal(t, "attempt-1", idemKey)
	require.Equal(t, "cash", payload.PaymentMethod)
	require.Equal(t, 0.1, payload.TaxRate)
}

func TestClientStatusError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "stock exhausted", "code": "out_of_stock"})
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), "tok", api.OrderRequest{}, "")
	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusConflict, statusErr.StatusCode)
	require.Equal(t, "out_of_stock", statusErr.Code)
	require.Contains(t, statusErr.Error(), "stock exhausted")
}

func TestClientInvoice(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/order-9/invoice", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>invoice</html>"))
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	inv, err := client.FetchInvoice(context.Background(), "tok", "order-9")
	require.NoError(t, err)
	require.Equal(t, "text/html", inv.ContentType)
	require.Equal(t, "<html>invoice</html>", string(inv.Body))

	require.Equal(t, ts.URL+"/orders/order-9/invoice", client.InvoiceURL("order-9"))
}

func TestClientSeedAdminBestEffort(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/seed/admin", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusConflict)
	}))
	t.Cleanup(ts.Close)

	client, err := api.New(ts.URL, ts.Client())
	require.NoError(t, err)

	err = client.SeedAdmin(context.Background())
	require.Error(t, err)
}
