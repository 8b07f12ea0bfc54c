package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/hostbench/internal/ratelimit"
	"github.com/psantana5/hostbench/internal/report"
	"github.com/psantana5/hostbench/internal/server"
	"github.com/psantana5/hostbench/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve script runs and metrics over HTTP",
	Long: `Serve exposes the benchmark script over HTTP:

  GET  /health              liveness
  GET  /metrics             Prometheus text format
  GET  /results?limit=N     most recent measurements, newest first
  POST /run                 run the script once (rate limited per client)

Example:
  hostbench serve --addr :9464 --rps 2 --burst 4`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":9464", "listen address")
	serveCmd.Flags().Float64("rps", 5, "POST /run requests per second per client (0 disables the limit)")
	serveCmd.Flags().Int("burst", 5, "POST /run burst per client")
	serveCmd.Flags().Int("history", 100, "measurements kept for GET /results")
	serveCmd.Flags().StringSlice("trusted-proxy", nil, "proxy addresses allowed to set X-Forwarded-For")
	bindFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	bindFlag("serve.rps", serveCmd.Flags().Lookup("rps"))
	bindFlag("serve.burst", serveCmd.Flags().Lookup("burst"))
	bindFlag("serve.history", serveCmd.Flags().Lookup("history"))
	bindFlag("serve.trusted_proxies", serveCmd.Flags().Lookup("trusted-proxy"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	provider, err := tracing.InitTracer(context.Background(), tracingConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer shutdownTracer(provider)

	limiter := ratelimit.NewLimiter(cfg.Serve.RPS, cfg.Serve.Burst)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go limiter.RunCleanup(cleanupCtx, time.Minute, 10*time.Minute)

	srv := server.New(server.Options{
		Resource:       cfg.Resource,
		Resources:      cfg.Resources,
		Labels:         cfg.Labels,
		Metrics:        report.NewMetrics(),
		History:        report.NewHistory(cfg.Serve.History),
		Limiter:        limiter,
		Tracer:         provider.Tracer(),
		Logger:         logger,
		TrustedProxies: cfg.Serve.TrustedProxies,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Serve.Addr,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", map[string]interface{}{"addr": cfg.Serve.Addr})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve %s: %w", cfg.Serve.Addr, err)
		}
		return nil
	case sig := <-stop:
		logger.Info("Shutting down", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
