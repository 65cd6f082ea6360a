package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/dmarchuk/legalintel/internal/adapters/http"
	"github.com/dmarchuk/legalintel/internal/bootstrap"
	"github.com/dmarchuk/legalintel/internal/config"
	"github.com/dmarchuk/legalintel/internal/observability/logging"
	"github.com/dmarchuk/legalintel/internal/observability/metrics"
	"github.com/dmarchuk/legalintel/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("api", "info").Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	hub := realtime.NewHub(app.PubSub, httpMetrics, logger)
	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()

	router := httpadapter.NewRouter(
		app.IngestUC, app.QueryUC, app.DashboardUC, app.ExportUC,
		app.Repo, hub, httpMetrics,
		httpadapter.Options{
			MaxUploadBytes: int64(cfg.MaxUploadSizeMB) << 20,
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxConcurrent:  cfg.APIMaxConcurrent,
		},
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", httpMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
	if err := <-hubDone; err != nil {
		logger.Error("push hub error", "error", err)
	}
}
