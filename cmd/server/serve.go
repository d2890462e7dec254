package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/simaogato/ledger-backend/internal/adapter/grpc"
	"github.com/simaogato/ledger-backend/internal/adapter/grpc/ledgerv1"
	"github.com/simaogato/ledger-backend/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC ledger service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()

			// 1. Backends and services
			application, cleanup, err := app.NewApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			// 2. Demo accounts
			if cfg.Seed.Enabled {
				created, err := application.Seeder.Seed(ctx)
				if err != nil {
					return err
				}
				log.Info("seed accounts ensured", zap.Int("created", created))
			}

			// 3. gRPC server
			grpcServer := grpclib.NewServer(
				grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.Server.APIToken)),
			)
			ledgerv1.RegisterLedgerServiceServer(grpcServer,
				grpcadapter.NewServer(application.Ledger, application.Dashboard))

			lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
			if err != nil {
				return err
			}

			serveErr := make(chan error, 1)
			go func() {
				log.Info("gRPC server listening",
					zap.String("addr", cfg.Server.GRPCAddr),
					zap.String("database", cfg.Database.Driver),
					zap.String("locks", cfg.Lock.Backend),
					zap.Bool("events", cfg.Events.Enabled),
				)
				serveErr <- grpcServer.Serve(lis)
			}()

			// Graceful shutdown
			return waitForShutdown(grpcServer, serveErr, cfg.Server.ShutdownTimeout, log)
		},
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the
// server, forcing a stop once timeout elapses.
func waitForShutdown(grpcServer *grpclib.Server, serveErr <-chan error, timeout time.Duration, log *zap.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case err := <-serveErr:
		return err
	case sig := <-sigChan:
		log.Info("shutting down gracefully", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		log.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}
	log.Info("gRPC server stopped")
	return nil
}
