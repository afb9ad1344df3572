package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/yyvfuruta/employees/internal/broker"
	"github.com/yyvfuruta/employees/internal/database"
	"github.com/yyvfuruta/employees/internal/env"
	"github.com/yyvfuruta/employees/internal/logger"
	"github.com/yyvfuruta/employees/internal/models"
	"github.com/yyvfuruta/employees/internal/rpc"
	"github.com/yyvfuruta/employees/internal/worker"
)

func main() {
	var dev bool

	flag.BoolVar(&dev, "dev", false, "Enable godotenv")
	flag.Parse()

	logger := logger.New()

	if err := env.Load(dev); err != nil {
		logger.Error("Error loading .env file", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("Domain service stopped", "error", err)
		os.Exit(1)
	}
}

// run serves the gRPC read path and the change listener until ctx is done
// or either of them fails.
func run(ctx context.Context, logger *slog.Logger) error {
	appModels, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	brokerCfg, err := broker.ConfigFromEnv()
	if err != nil {
		return err
	}

	exchange, err := broker.Open(brokerCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open exchange: %w", err)
	}
	defer exchange.Close()

	w := worker.New(exchange, logger)
	h := &handler{models: appModels, logger: logger}
	h.register(w)

	port := env.String("GRPC_PORT", "9090")
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	srv := rpc.NewGRPCServer(rpc.NewServer(appModels.Employee, exchange, logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		if err := w.Run(ctx); err != nil {
			errs <- fmt.Errorf("listener: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		logger.Info("gRPC server starting", "port", port, "exchange", brokerCfg.Driver)
		if err := srv.Serve(lis); err != nil {
			errs <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down domain service...")
	srv.GracefulStop()
	wg.Wait()

	close(errs)
	return <-errs
}

func openStore(ctx context.Context) (models.Models, func(), error) {
	switch driver := env.String("STORE_DRIVER", "postgres"); driver {
	case "memory":
		return models.NewMemoryModels(), func() {}, nil
	case "postgres":
		db, err := database.NewConnection()
		if err != nil {
			return models.Models{}, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return models.Models{}, nil, err
		}
		return models.NewModels(db), func() { db.Close() }, nil
	default:
		return models.Models{}, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
