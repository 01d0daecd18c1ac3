package api

// User is the authenticated operator profile returned by /auth/me.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Bag is a catalog product. Read-only for the billing core; the catalog
// screens own create/update/delete.
type Bag struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	CostPrice   float64 `json:"cost_price"`
	SalePrice   float64 `json:"sale_price"`
	Stock       int     `json:"stock"`
	Description string  `json:"description,omitempty"`
}

// Customer is a shop customer record.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// OrderItem is one line of an order payload or a confirmed order.
type OrderItem struct {
	BagID     string  `json:"bag_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderRequest is the payload for creating an order.
type OrderRequest struct {
	CustomerName  string      `json:"customer_name"`
	Items         []OrderItem `json:"items"`
	Discount      float64     `json:"discount"`
	TaxRate       float64     `json:"tax_rate"`
	PaymentMethod string      `json:"payment_method"`
}

// Order is a server-confirmed order. Owned by the remote service; the client
// only reads it back for the recent-orders view and the invoice link.
type Order struct {
	ID            string      `json:"id"`
	InvoiceNumber string      `json:"invoice_number"`
	CustomerName  string      `json:"customer_name,omitempty"`
	Items         []OrderItem `json:"items"`
	Subtotal      float64     `json:"subtotal,omitempty"`
	Discount      float64     `json:"discount,omitempty"`
	TaxRate       float64     `json:"tax_rate,omitempty"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"payment_method,omitempty"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

// DashboardCards holds the aggregate counters shown on the overview screen.
type DashboardCards struct {
	Bags      int     `json:"bags"`
	Customers int     `json:"customers"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
}

// DashboardSummary is the /dashboard response.
type DashboardSummary struct {
	Cards        DashboardCards `json:"cards"`
	RecentOrders []Order        `json:"recent_orders"`
	LowStock     []Bag          `json:"low_stock"`
}

// Invoice is the rendered invoice document for an order.
type Invoice struct {
	ContentType string
	Body        []byte
}
