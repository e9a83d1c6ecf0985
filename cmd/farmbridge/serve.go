package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/agriservices/farmbridge/internal/connector"
	"github.com/agriservices/farmbridge/internal/gateway"
	"github.com/agriservices/farmbridge/pkg/bridgepb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC BridgeService and the HTTP/JSON facade",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := connector.NewDispatcher(cfg.Endpoints(), cfg.Transport.ClientConfig(), logger)
	g, gctx := errgroup.WithContext(ctx)

	if addr := cfg.Gateway.GRPCAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		glog := logger.Named("grpc")
		server, healthSvc := gateway.NewGRPCServer(gateway.NewService(dispatcher, glog), glog)
		g.Go(func() error {
			logger.Info("gRPC listening", zap.String("addr", addr))
			return server.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			healthSvc.SetServingStatus(bridgepb.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			stopGRPC(server, cfg.Gateway.ShutdownTimeout)
			return nil
		})
	}

	if addr := cfg.Gateway.HTTPAddr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           gateway.NewRouter(dispatcher, logger.Named("http")),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("farmbridge serving",
		zap.String("crop_url", cfg.Backends.CropURL),
		zap.String("billing_url", cfg.Backends.BillingURL))
	err := g.Wait()
	logger.Info("farmbridge stopped")
	return err
}

// stopGRPC drains in-flight calls, forcing a stop after timeout.
func stopGRPC(server *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop timed out, forcing stop")
		server.Stop()
	}
}
