package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront-checkout/internal/backend"
	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/events"
	"storefront-checkout/internal/httpserver"
	cartrepo "storefront-checkout/internal/repository/cart"
	checkoutrepo "storefront-checkout/internal/repository/checkout"
	tenantrepo "storefront-checkout/internal/repository/tenant"
	addresssvc "storefront-checkout/internal/service/address"
	cartsvc "storefront-checkout/internal/service/cart"
	checkoutsvc "storefront-checkout/internal/service/checkout"
	identitysvc "storefront-checkout/internal/service/identity"
	inquirysvc "storefront-checkout/internal/service/inquiry"
	ordersvc "storefront-checkout/internal/service/order"
	"storefront-checkout/internal/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	client, err := backend.New(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout}, logger)
	if err != nil {
		logger.Fatalf("init backend client: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.Dial(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatalf("connect to broker: %v", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		logger.Printf("AMQP_URL not set, order events disabled")
	}

	tenantRepo := tenantrepo.NewPostgres(dbpool)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), client)
	checkoutService := checkoutsvc.New(addresssvc.New(client, logger), checkoutrepo.NewPostgres(dbpool), logger)
	orderService := ordersvc.New(client, cartService, checkoutService, publisher, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		TenantRepo:  tenantRepo,
		StoreConfig: client,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		IdentitySvc: identitysvc.New(client, logger),
		OrderSvc:    orderService,
		InquirySvc:  inquirysvc.New(client, logger),
		Codec:       session.NewCodec(cfg.SessionSecret, cfg.SessionTTL),
		Cookies:     session.CookieOptions{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure},
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
