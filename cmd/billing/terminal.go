package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bagshop/billing/internal/billing/api"
	"github.com/bagshop/billing/internal/billing/cart"
	"github.com/bagshop/billing/internal/billing/catalog"
	"github.com/bagshop/billing/internal/billing/checkout"
	"github.com/bagshop/billing/internal/billing/customers"
	"github.com/bagshop/billing/internal/billing/dashboard"
	"github.com/bagshop/billing/internal/billing/pricing"
	"github.com/bagshop/billing/internal/billing/session"
)

const helpText = `commands:
  bags [query]             list catalog, optionally filtered
  bag+ <name> <price>      add a catalog item
  bag- <id>                remove a catalog item
  add <id>                 add a bag to the cart (merges duplicates)
  line+                    append an empty cart line
  sku <line> <id>          change the bag on a cart line
  qty <line> <n>           change a line quantity
  price <line> <amount>    change a line unit price
  rm <line>                remove a cart line
  cart                     show the cart and totals
  customer [name]          set or clear the order customer name
  customers                list customers
  customer+ <name> [phone] add a customer
  discount <amount>        set the order discount
  tax <rate>               set the tax rate (e.g. 0.1)
  submit                   submit the order
  orders                   list recent orders
  invoice <order-id>       fetch an order's invoice
  dashboard                show the summary screen
  logout                   forget the stored credential
  quit                     exit`

type terminalDeps struct {
	Client    *api.Client
	Session   *session.Store
	Catalog   *catalog.Service
	Customers *customers.Service
	Dashboard *dashboard.Service
	Checkout  *checkout.Service
	Cart      *cart.Cart
}

type terminal struct {
	deps terminalDeps
	in   *bufio.Scanner
	out  io.Writer
}

func newTerminal(deps terminalDeps, in io.Reader, out io.Writer) *terminal {
	return &terminal{deps: deps, in: bufio.NewScanner(in), out: out}
}

// Run drives the interactive loop until the input closes, the context is
// cancelled, or the operator quits.
func (t *terminal) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if !t.deps.Session.Current().Authenticated() {
			if ok := t.login(ctx); !ok {
				return nil
			}
			continue
		}

		fmt.Fprint(t.out, "billing> ")
		if !t.in.Scan() {
			return t.in.Err()
		}
		line := strings.TrimSpace(t.in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		t.dispatch(ctx, cmd, args)
	}
	return nil
}

func (t *terminal) login(ctx context.Context) bool {
	fmt.Fprint(t.out, "email: ")
	if !t.in.Scan() {
		return false
	}
	email := strings.TrimSpace(t.in.Text())

	fmt.Fprint(t.out, "password: ")
	if !t.in.Scan() {
		return false
	}
	password := t.in.Text()

	if _, err := t.deps.Session.Login(ctx, email, password); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(t.out, "invalid credentials")
		} else {
			fmt.Fprintf(t.out, "login failed: %v\n", err)
		}
		return true
	}
	fmt.Fprintf(t.out, "signed in as %s\n", email)
	return true
}

func (t *terminal) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		fmt.Fprintln(t.out, helpText)
	case "bags":
		t.listBags(ctx, strings.Join(args, " "))
	case "bag+":
		t.createBag(ctx, args)
	case "bag-":
		t.deleteBag(ctx, args)
	case "add":
		t.addToCart(ctx, args)
	case "line+":
		t.deps.Cart.AppendBlankLine(t.deps.Catalog.Bags())
		t.showCart()
	case "sku":
		t.editLine(args, 2, func(i int) bool { return t.deps.Cart.SetBagID(i, args[1]) })
	case "qty":
		t.editLine(args, 2, func(i int) bool {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(t.out, "bad quantity %q\n", args[1])
				return true
			}
			return t.deps.Cart.SetQuantity(i, n)
		})
	case "price":
		t.editLine(args, 2, func(i int) bool {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				fmt.Fprintf(t.out, "bad amount %q\n", args[1])
				return true
			}
			return t.deps.Cart.SetUnitPrice(i, amount)
		})
	case "rm":
		t.editLine(args, 1, func(i int) bool { return t.deps.Cart.Remove(i) })
	case "cart":
		t.showCart()
	case "customer":
		t.deps.Checkout.SetCustomerName(strings.Join(args, " "))
	case "customers":
		t.listCustomers(ctx)
	case "customer+":
		t.createCustomer(ctx, args)
	case "discount":
		t.setAmount(args, t.deps.Checkout.SetDiscount)
	case "tax":
		t.setAmount(args, t.deps.Checkout.SetTaxRate)
	case "submit":
		t.submit(ctx)
	case "orders":
		t.listOrders(ctx)
	case "invoice":
		t.fetchInvoice(ctx, args)
	case "dashboard":
		t.showDashboard(ctx)
	case "logout":
		t.deps.Session.Logout()
		fmt.Fprintln(t.out, "signed out")
	default:
		fmt.Fprintf(t.out, "unknown command %q (try help)\n", cmd)
	}
}

func (t *terminal) listBags(ctx context.Context, query string) {
	bags, err := t.deps.Catalog.Refresh(ctx, query)
	if err != nil {
		fmt.Fprintf(t.out, "bags: %v\n", err)
		return
	}
	if len(bags) == 0 {
		fmt.Fprintln(t.out, "no bags")
		return
	}
	for _, bag := range bags {
		fmt.Fprintf(t.out, "%-12s %-24s %8s  stock %d\n",
			bag.ID, bag.Name, pricing.FormatAmount(bag.SalePrice), bag.Stock)
	}
}

func (t *terminal) createBag(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(t.out, "usage: bag+ <name> <price>")
		return
	}
	price, err := strconv.ParseFloat(args[len(args)-1], 64)
	if err != nil {
		fmt.Fprintf(t.out, "bad price %q\n", args[len(args)-1])
		return
	}
	name := strings.Join(args[:len(args)-1], " ")
	saved, err := t.deps.Catalog.Save(ctx, api.Bag{Name: name, SalePrice: price})
	if err != nil {
		fmt.Fprintf(t.out, "bag+: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "added %s (%s)\n", saved.Name, saved.ID)
}

func (t *terminal) deleteBag(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(t.out, "usage: bag- <id>")
		return
	}
	if err := t.deps.Catalog.Delete(ctx, args[0]); err != nil {
		fmt.Fprintf(t.out, "bag-: %v\n", err)
	}
}

func (t *terminal) addToCart(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(t.out, "usage: add <id>")
		return
	}
	bag, ok := t.findBag(args[0])
	if !ok {
		// The snapshot may be stale; refresh once before giving up.
		if _, err := t.deps.Catalog.Refresh(ctx, ""); err != nil {
			fmt.Fprintf(t.out, "add: %v\n", err)
			return
		}
		if bag, ok = t.findBag(args[0]); !ok {
			fmt.Fprintf(t.out, "no bag %q\n", args[0])
			return
		}
	}
	t.deps.Cart.AddProduct(bag)
	t.showCart()
}

func (t *terminal) findBag(id string) (api.Bag, bool) {
	for _, bag := range t.deps.Catalog.Bags() {
		if bag.ID == id {
			return bag, true
		}
	}
	return api.Bag{}, false
}

func (t *terminal) editLine(args []string, want int, edit func(i int) bool) {
	if len(args) != want {
		fmt.Fprintln(t.out, "usage: <cmd> <line> [value]")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(t.out, "bad line number %q\n", args[0])
		return
	}
	if !edit(i) {
		fmt.Fprintf(t.out, "no line %d\n", i)
		return
	}
	t.showCart()
}

func (t *terminal) setAmount(args []string, set func(float64)) {
	if len(args) != 1 {
		fmt.Fprintln(t.out, "usage: <cmd> <amount>")
		return
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(t.out, "bad amount %q\n", args[0])
		return
	}
	set(amount)
	t.showCart()
}

func (t *terminal) showCart() {
	lines := t.deps.Cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(t.out, "cart is empty")
		return
	}
	for i, line := range lines {
		fmt.Fprintf(t.out, "%2d  %-12s x%-3d @ %s\n",
			i, line.BagID, line.Quantity, pricing.FormatAmount(line.UnitPrice))
	}
	draft := t.deps.Checkout.Draft()
	totals := t.deps.Checkout.Totals()
	if draft.CustomerName != "" {
		fmt.Fprintf(t.out, "customer: %s\n", draft.CustomerName)
	}
	fmt.Fprintf(t.out, "subtotal %s  tax %s  discount %s  total %s\n",
		pricing.FormatAmount(totals.Subtotal),
		pricing.FormatAmount(totals.Tax),
		pricing.FormatAmount(draft.Discount),
		pricing.FormatAmount(totals.Total))
}

func (t *terminal) listCustomers(ctx context.Context) {
	list, err := t.deps.Customers.Refresh(ctx)
	if err != nil {
		fmt.Fprintf(t.out, "customers: %v\n", err)
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(t.out, "no customers")
		return
	}
	for _, c := range list {
		fmt.Fprintf(t.out, "%-12s %-24s %s\n", c.ID, c.Name, c.Phone)
	}
}

func (t *terminal) createCustomer(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(t.out, "usage: customer+ <name> [phone]")
		return
	}
	customer := api.Customer{Name: args[0]}
	if len(args) > 1 {
		customer.Phone = args[1]
	}
	created, err := t.deps.Customers.Create(ctx, customer)
	if err != nil {
		fmt.Fprintf(t.out, "customer+: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "added %s (%s)\n", created.Name, created.ID)
}

func (t *terminal) submit(ctx context.Context) {
	order, err := t.deps.Checkout.Submit(ctx)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrSubmitInFlight):
			fmt.Fprintln(t.out, "a submission is already in progress")
		case errors.Is(err, checkout.ErrNotAuthenticated):
			fmt.Fprintln(t.out, "sign in first")
		default:
			fmt.Fprintf(t.out, "submit: %v\n", err)
		}
		return
	}
	fmt.Fprintf(t.out, "order %s confirmed, total %s\n",
		order.InvoiceNumber, pricing.FormatAmount(order.Total))
}

func (t *terminal) listOrders(ctx context.Context) {
	if err := t.deps.Checkout.RefreshOrders(ctx); err != nil {
		fmt.Fprintf(t.out, "orders: %v\n", err)
		return
	}
	orders := t.deps.Checkout.RecentOrders()
	if len(orders) == 0 {
		fmt.Fprintln(t.out, "no orders")
		return
	}
	for _, order := range orders {
		fmt.Fprintf(t.out, "%-12s %-10s %8s  %s\n",
			order.ID, order.InvoiceNumber, pricing.FormatAmount(order.Total), order.CreatedAt)
	}
}

func (t *terminal) fetchInvoice(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(t.out, "usage: invoice <order-id>")
		return
	}
	invoice, err := t.deps.Client.FetchInvoice(ctx, t.deps.Session.Token(), args[0])
	if err != nil {
		fmt.Fprintf(t.out, "invoice: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "invoice %s (%s, %d bytes): %s\n",
		args[0], invoice.ContentType, len(invoice.Body), t.deps.Client.InvoiceURL(args[0]))
}

func (t *terminal) showDashboard(ctx context.Context) {
	summary, err := t.deps.Dashboard.Refresh(ctx)
	if err != nil {
		fmt.Fprintf(t.out, "dashboard: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "bags %d  customers %d  orders %d  revenue %s\n",
		summary.Cards.Bags, summary.Cards.Customers, summary.Cards.Orders,
		pricing.FormatAmount(summary.Cards.Revenue))
	for _, order := range summary.RecentOrders {
		fmt.Fprintf(t.out, "  recent %-10s %8s\n", order.InvoiceNumber, pricing.FormatAmount(order.Total))
	}
	for _, bag := range summary.LowStock {
		fmt.Fprintf(t.out, "  low stock %-24s %d left\n", bag.Name, bag.Stock)
	}
}
