package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/survcurve/internal/adapters/http/api"
	service "github.com/okian/survcurve/internal/app"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/metrics"
	"github.com/okian/survcurve/pkg/survival"
)

// HTTP server timeout constants.
const (
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the curves HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured addr)")
	return cmd
}

// serve runs the API on ln until ctx is canceled, then shuts down gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	registerRuntimeCollectors()

	mode, err := survival.ParseTieMode(a.cfg.TieMode)
	if err != nil {
		return err
	}
	svc := service.New(
		service.WithLogger(a.log),
		service.WithWorkers(a.cfg.Workers),
		service.WithTieMode(mode),
		service.WithColumns(survival.Columns{Risk: a.cfg.RiskColumn, Event: a.cfg.EventColumn, Time: a.cfg.TimeColumn}),
		service.WithLimits(a.cfg.MaxHorizons, a.cfg.MaxObservations),
	)
	srv := &http.Server{
		Handler:           api.NewServer(svc, svc, api.WithLogger(a.log)).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	a.log.Info(ctx, "server stopped")
	return nil
}

// registerRuntimeCollectors adds Go runtime and process metrics to the custom
// registry once.
func registerRuntimeCollectors() {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := metrics.GetRegistry().Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				logger.Get().Warn(context.Background(), "collector registration failed", logger.Error(err))
			}
		}
	}
}
