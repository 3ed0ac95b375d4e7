// Command sd-server starts the sample dispatch HTTP API and its gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/sample-dispatch/internal/config"
	"github.com/and161185/sample-dispatch/internal/limiter"
	"github.com/and161185/sample-dispatch/internal/migrate"
	"github.com/and161185/sample-dispatch/internal/repository/postgres"
	grpcserver "github.com/and161185/sample-dispatch/internal/server/grpc"
	httpserver "github.com/and161185/sample-dispatch/internal/server/http"
	"github.com/and161185/sample-dispatch/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sd-server",
		Short:         "Sample dispatch API server",
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// run applies migrations, wires services and serves until SIGINT/SIGTERM.
func run(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("healthAddr", cfg.HealthAddr),
		zap.Bool("tls", cfg.TLS()),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applied, err := migrate.Up(ctx, cfg.DSN)
	if err != nil {
		logger.Error("migrate up", zap.Error(err))
		return err
	}
	logger.Info("migrations applied", zap.Int64s("versions", applied))

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Error("postgres.New", zap.Error(err))
		return err
	}
	defer db.Close()

	// Repositories
	agentRepo := postgres.NewAgentRepo(db)
	sampleRepo := postgres.NewSampleRepo(db)
	lim := limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlock)

	// Services
	authSvc := service.NewAuthService(agentRepo, []byte(cfg.JWTSecret), lim, nil)
	sampleSvc := service.NewSampleService(sampleRepo, nil)

	api := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.New(authSvc, sampleSvc, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Addr))
		var err error
		if cfg.TLS() {
			err = api.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = api.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var gs *grpc.Server
	if cfg.HealthAddr != "" {
		gs, err = startHealth(ctx, cfg, db, logger, errCh)
		if err != nil {
			_ = api.Close()
			return err
		}
	}

	// Wait for stop
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("server error", zap.Error(runErr))
	}

	shutdown(cfg.ShutdownTimeout, api, gs, logger)
	logger.Info("shutdown complete")
	return runErr
}

func startHealth(ctx context.Context, cfg config.Config, db *postgres.DB, logger *zap.Logger, errCh chan<- error) (*grpc.Server, error) {
	var opts []grpc.ServerOption
	if cfg.TLS() {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Error("failed to load TLS cert/key", zap.Error(err))
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}
	gs, hs := grpcserver.NewHealth(logger, opts...)
	if cfg.Dev {
		reflection.Register(gs)
	}

	lis, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		logger.Error("listen", zap.Error(err))
		return nil, err
	}
	go grpcserver.Watch(ctx, hs, db.Ping, cfg.HealthInterval, logger)
	go func() {
		logger.Info("grpc health listening", zap.String("addr", cfg.HealthAddr))
		if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	return gs, nil
}

func shutdown(timeout time.Duration, api *http.Server, gs *grpc.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := api.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
		_ = api.Close()
	}
	if gs == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		gs.Stop()
	}
}
