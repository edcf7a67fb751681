package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/gateway"
	"github.com/example/cloudkitchen/pkg/catalog"
	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/dashboard"
	"github.com/example/cloudkitchen/pkg/discovery"
	"github.com/example/cloudkitchen/pkg/export"
	"github.com/example/cloudkitchen/pkg/grpc"
	"github.com/example/cloudkitchen/pkg/orders"
	"github.com/example/cloudkitchen/pkg/pricing"
	"github.com/example/cloudkitchen/pkg/repository"
	"github.com/example/cloudkitchen/pkg/terminal"
)

const shutdownTimeout = 10 * time.Second

func configPath() string {
	if p := os.Getenv("CK_CONFIG"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func main() {
	// Load config
	cfg, err := config.Load(configPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := cfg.Log.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("http_port", cfg.Gateway.Port),
		zap.Int("grpc_port", cfg.Server.Port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	store, err := repository.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		logger.Warn("Store ping failed", zap.Error(err))
	} else {
		logger.Info("Store connected", zap.String("driver", cfg.Storage.Driver))
	}

	calc, err := pricing.FromConfig(&cfg.Pricing)
	if err != nil {
		logger.Fatal("Invalid pricing", zap.Error(err))
	}

	checks := map[string]grpc.Pinger{"store": store}

	// Audit log
	var auditor repository.Auditor = repository.NopAuditor{}
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB unavailable, audit log disabled", zap.Error(err))
		} else {
			auditor = mongoRepo
			checks["mongodb"] = mongoRepo
			defer mongoRepo.Close(context.Background())
		}
	}

	menu, closeMenu, err := catalog.Load(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	defer closeMenu()

	history := orders.NewHistory(store, cfg.Storage.Key(cfg.Storage.OrdersKey), logger)
	exporter := export.NewFileExporter(cfg.Export.Dir, cfg.Pricing.Currency, logger)

	// Terminal actors
	registry := terminal.NewRegistry(actor.NewActorSystem(), terminal.Deps{
		Store:      store,
		History:    history,
		Calculator: calc,
		Auditor:    auditor,
		Exporter:   exporter,
		Logger:     logger,
	}, terminal.Options{
		Storage:        cfg.Storage,
		Dwell:          cfg.Session.AutoClose,
		RequestTimeout: cfg.Gateway.RequestTimeout,
	})

	dash := dashboard.New(history, auditor, logger)

	resync := func() {
		registry.Resync()
		dash.HandleChange(repository.Change{Key: history.Key()})
	}
	go watchChanges(ctx, store, logger, resync, registry.HandleChange, dash.HandleChange)

	// Health service
	health := grpc.NewHealthServer(&cfg.Server, logger, checks)
	go health.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		if err := health.Start(); err != nil {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	// Gateway
	gw := gateway.NewGateway(cfg, logger, gateway.Services{
		Terminals: registry,
		Dashboard: dash,
		Catalog:   menu,
		Reports:   exporter,
		Store:     store,
	})
	gw.SetupRoutes()

	go func() {
		if err := gw.Start(); err != nil {
			errCh <- fmt.Errorf("gateway: %w", err)
		}
	}()

	// Service discovery
	instance := &discovery.ServiceInstance{
		Name:      cfg.Server.Name,
		Host:      cfg.Server.Host,
		GRPCPort:  cfg.Server.Port,
		HTTPPort:  cfg.Gateway.Port,
		StartedAt: time.Now().UTC(),
	}
	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		}
	}

	logger.Info("Storefront started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}
	registry.Stop()
	health.Stop()
	cancel()

	logger.Info("Storefront stopped")
}

const feedRetryDelay = time.Second

// watchChanges keeps the change feed running until ctx is done. Changes
// missed while the feed was down are covered by resync after reconnecting.
func watchChanges(ctx context.Context, store repository.Store, logger *zap.Logger, resync func(), handlers ...func(repository.Change)) {
	for {
		err := repository.Dispatch(ctx, store, handlers...)
		if ctx.Err() != nil {
			return
		}
		logger.Error("Change feed stopped, reconnecting", zap.Error(err), zap.Duration("delay", feedRetryDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(feedRetryDelay):
		}
		resync()
	}
}
