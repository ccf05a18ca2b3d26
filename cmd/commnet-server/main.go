// Command commnet-server serves the range calculator over gRPC and HTTP and
// exposes Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/commnet-calculator/internal/calc"
	"github.com/signalsfoundry/commnet-calculator/internal/config"
	"github.com/signalsfoundry/commnet-calculator/internal/devicefile"
	"github.com/signalsfoundry/commnet-calculator/internal/httpapi"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi"
	"github.com/signalsfoundry/commnet-calculator/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "optional configuration file (YAML, JSON or TOML)")
	grpcAddr := flag.String("grpc-addr", "", "override server.grpc_addr")
	httpAddr := flag.String("http-addr", "", "override server.http_addr")
	metricsAddr := flag.String("metrics-addr", "", "override server.metrics_addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *grpcAddr != "" {
		cfg.Server.GRPCAddr = *grpcAddr
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}

	log := logging.New(cfg.Log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or a server fails. lis is the gRPC
// listener; the HTTP API and metrics servers bind their configured
// addresses and are skipped when the address is empty.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}

	tracing, err := observability.StartTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer tracing.Close(ctx)

	collector, err := observability.NewCalcCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	watcher, err := devicefile.NewWatcher(cfg.Devices.Files, log.With(logging.String("component", "devicefile")))
	if err != nil {
		return err
	}
	calculator, err := calc.New(cfg,
		calc.WithLogger(log.With(logging.String("component", "calc"))),
		calc.WithMetrics(collector),
		calc.WithBatches(watcher.Snapshot().Batches),
	)
	if err != nil {
		return err
	}
	watcher.OnChange(func(s devicefile.Snapshot) {
		if err := calculator.Reload(ctx, s.Batches); err != nil {
			log.Error(ctx, "device catalog reload rejected; keeping previous devices",
				logging.Any("version", s.Version),
				logging.Err(err),
			)
		}
	})
	if cfg.Devices.Watch {
		if err := watcher.Watch(ctx); err != nil {
			log.Warn(ctx, "device file watch incomplete", logging.Err(err))
		}
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RunIDUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
		),
	)
	nbi.RegisterRangeServiceServer(grpcServer, nbi.NewRangeService(calculator, log))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting gRPC server", logging.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		gracefulStop(grpcServer, cfg.Server.ShutdownTimeout)
		return nil
	})

	if cfg.Server.HTTPAddr != "" {
		api := httpapi.NewServer(calculator, httpapi.Config{
			Addr:    cfg.Server.HTTPAddr,
			Logger:  log.With(logging.String("component", "httpapi")),
			Metrics: collector,
		})
		g.Go(func() error {
			return api.Start(gctx, cfg.Server.ShutdownTimeout)
		})
	}

	if cfg.Server.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Server.MetricsAddr, cfg.Server.ShutdownTimeout, collector, log)
		})
	}

	err = g.Wait()
	log.Info(context.Background(), "commnet server stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// gracefulStop drains in-flight calls, forcing a stop after timeout.
func gracefulStop(s *grpc.Server, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.Stop()
	}
}

func serveMetrics(ctx context.Context, addr string, timeout time.Duration, collector *observability.CalcCollector, log logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))

	select {
	case <-ctx.Done():
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
