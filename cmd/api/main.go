package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/events"
	"tailorshop/internal/events/natsbus"
	"tailorshop/internal/events/rabbit"
	"tailorshop/internal/gateway/razorpay"
	"tailorshop/internal/httpserver"
	"tailorshop/internal/logging"
	"tailorshop/internal/migrate"
	"tailorshop/internal/payment"
	altrepo "tailorshop/internal/repository/alteration"
	cartrepo "tailorshop/internal/repository/cart"
	catalogrepo "tailorshop/internal/repository/catalog"
	customerrepo "tailorshop/internal/repository/customer"
	orderrepo "tailorshop/internal/repository/order"
	tokenrepo "tailorshop/internal/repository/token"
	altsvc "tailorshop/internal/service/alteration"
	cartsvc "tailorshop/internal/service/cart"
	catalogsvc "tailorshop/internal/service/catalog"
	customersvc "tailorshop/internal/service/customer"
	ordersvc "tailorshop/internal/service/order"
	"tailorshop/internal/service/reconcile"
	"tailorshop/internal/session"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger, err := logging.New("api")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	hub := events.NewHub(0, logger)
	publisher, closeBroker, err := brokerPublisher(ctx, cfg.Events, logger)
	if err != nil {
		logger.Fatal("connect event broker", zap.Error(err))
	}
	defer closeBroker()
	publisher = events.Multi{hub, publisher}

	tokens := tokenrepo.NewPostgres(dbpool)
	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.TTL, tokens)

	catalogRepo := catalogrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	alterationRepo := altrepo.NewPostgres(dbpool, logger)

	catalogService := catalogsvc.New(catalogRepo, logger)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool, logger), catalogRepo, logger)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), sessions, customersvc.AdminCredentials{
		Email:        cfg.Admin.Email,
		PasswordHash: cfg.Admin.PasswordHash,
	}, logger)
	orderService := ordersvc.New(orderRepo, cartService, publisher, logger)
	alterationService := altsvc.New(alterationRepo, publisher, logger)

	gateway := razorpay.New(razorpay.Config{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Currency:  cfg.Razorpay.Currency,
		Timeout:   cfg.Razorpay.Timeout,
	}, logger)
	reconciler := reconcile.New(orderRepo, alterationRepo, gateway, publisher, logger)
	payments := payment.New(gateway, gateway, reconciler, reconciler, payment.Options{
		KeyID:      gateway.KeyID(),
		ShopName:   cfg.Payments.ShopName,
		StaleAfter: cfg.Payments.StaleAfter,
	}, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:    sessions,
		Auth:        customerService,
		Catalog:     catalogService,
		Cart:        cartService,
		Orders:      orderService,
		Alterations: alterationService,
		Reconcile:   reconciler,
		Payments:    payments,
		Gateway:     gateway,
		Events:      hub,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	sweeper := customersvc.NewSweeper(tokens, cfg.TokenSweepInterval, logger.Named("token_sweeper"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("server stopped")
}

// brokerPublisher connects the configured broker. The returned close func is never nil.
func brokerPublisher(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, func(), error) {
	switch cfg.Backend {
	case "amqp":
		p, err := rabbit.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return p, func() { _ = p.Close() }, nil
	case "nats":
		p, err := natsbus.Connect(ctx, cfg.NATSURL, cfg.SubjectPrefix, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return p, p.Close, nil
	default:
		return events.Nop{}, func() {}, nil
	}
}
