package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bagshop/billing/internal/billing/api"
	"github.com/bagshop/billing/internal/billing/cart"
	"github.com/bagshop/billing/internal/billing/catalog"
	"github.com/bagshop/billing/internal/billing/checkout"
	"github.com/bagshop/billing/internal/billing/config"
	"github.com/bagshop/billing/internal/billing/customers"
	"github.com/bagshop/billing/internal/billing/dashboard"
	"github.com/bagshop/billing/internal/billing/observability"
	"github.com/bagshop/billing/internal/billing/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	hook := observability.EventHook(logger)

	client, err := api.New(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout})
	if err != nil {
		logger.Fatal("build api client", zap.Error(err))
	}

	var blockKey []byte
	if cfg.Credentials.BlockKey != "" {
		blockKey = []byte(cfg.Credentials.BlockKey)
	}
	creds, err := session.NewFileStore(session.FileStoreConfig{
		Path:     cfg.Credentials.File,
		HashKey:  []byte(cfg.Credentials.HashKey),
		BlockKey: blockKey,
	})
	if err != nil {
		logger.Fatal("build credential store", zap.Error(err))
	}

	store, err := session.NewStore(session.StoreDeps{
		Client:      client,
		Credentials: creds,
		Logger:      hook,
	})
	if err != nil {
		logger.Fatal("build session store", zap.Error(err))
	}

	basket := cart.New()
	checkoutSvc, err := checkout.NewService(checkout.ServiceDeps{
		Client:     client,
		Tokens:     store,
		Cart:       basket,
		InvoiceURL: client.InvoiceURL,
		Invoices: func(_ context.Context, order api.Order, invoiceURL string) {
			fmt.Fprintf(os.Stdout, "invoice %s ready: %s\n", order.InvoiceNumber, invoiceURL)
		},
		Logger: hook,
	})
	if err != nil {
		logger.Fatal("build checkout service", zap.Error(err))
	}
	checkoutSvc.SetTaxRate(cfg.Billing.DefaultTaxRate)

	catalogSvc, err := catalog.NewService(client, store)
	if err != nil {
		logger.Fatal("build catalog service", zap.Error(err))
	}
	customersSvc, err := customers.NewService(client, store)
	if err != nil {
		logger.Fatal("build customers service", zap.Error(err))
	}
	dashboardSvc, err := dashboard.NewService(client, store)
	if err != nil {
		logger.Fatal("build dashboard service", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First run against an empty backend; ignored once the admin exists.
	if err := client.SeedAdmin(ctx); err != nil {
		logger.Debug("seed admin skipped", zap.Error(err))
	}

	term := newTerminal(terminalDeps{
		Client:    client,
		Session:   store,
		Catalog:   catalogSvc,
		Customers: customersSvc,
		Dashboard: dashboardSvc,
		Checkout:  checkoutSvc,
		Cart:      basket,
	}, os.Stdin, os.Stdout)

	if err := term.Run(ctx); err != nil {
		logger.Fatal("terminal session failed", zap.Error(err))
	}
}
