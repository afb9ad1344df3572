package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yyvfuruta/employees/internal/broker"
	"github.com/yyvfuruta/employees/internal/cache"
	"github.com/yyvfuruta/employees/internal/employees"
	"github.com/yyvfuruta/employees/internal/env"
	"github.com/yyvfuruta/employees/internal/logger"
	"github.com/yyvfuruta/employees/internal/rpc"
)

type application struct {
	logger    *slog.Logger
	employees *employees.Service
	authToken string
}

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
		logger.Error("Gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	vars, err := env.Require("API_PORT", "DOMAIN_GRPC_ADDR")
	if err != nil {
		return err
	}

	cacheCfg, err := cache.ConfigFromEnv()
	if err != nil {
		return err
	}
	c, err := cache.Open(cacheCfg)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer c.Close()

	brokerCfg, err := broker.ConfigFromEnv()
	if err != nil {
		return err
	}
	if err := checkExchangeDriver(brokerCfg.Driver); err != nil {
		return err
	}
	exchange, err := broker.Open(brokerCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open exchange: %w", err)
	}
	defer exchange.Close()

	conn, err := rpc.Dial(vars["DOMAIN_GRPC_ADDR"])
	if err != nil {
		return fmt.Errorf("failed to connect to domain service: %w", err)
	}
	defer conn.Close()

	app := &application{
		logger:    logger,
		employees: employees.NewService(rpc.NewClient(conn), exchange, c, logger),
		authToken: env.String("AUTH_TOKEN", ""),
	}

	return app.serve(ctx, vars["API_PORT"])
}

// checkExchangeDriver rejects drivers that cannot reach the domain tier. The
// memory exchange only delivers inside this process, and nothing here
// consumes it.
func checkExchangeDriver(driver string) error {
	if driver == "memory" {
		return errors.New("EXCHANGE_DRIVER=memory does not reach the domain service")
	}
	return nil
}

// serve runs the HTTP server until ctx is done, then drains open requests.
func (app *application) serve(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		app.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info("API starting", "port", port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return err
	}
	app.logger.Info("Server stopped")
	return nil
}
