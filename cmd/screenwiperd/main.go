package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/screenwiper/internal/app"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	logger := app.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := common.Load(*configPath)
	if err != nil {
		logger.Error("config.load.failed", "error", err)
		os.Exit(1)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("app.init.failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := server.NewHTTPServer(a.Service, server.HTTPConfig{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxUploadBytes: cfg.Acquire.MaxBytes,
		Gatherer:       a.Registry,
	}, logger)
	grpcSrv, health := server.NewGRPCServer(a.Service, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("grpc.listen.failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc.listen", "addr", cfg.Server.GRPCAddr)
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		return httpSrv.Start(cfg.Server.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server.exit", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}
