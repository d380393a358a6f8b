// cmd/qrc-bridge/run_command.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tamzrod/qrc-bridge/internal/config"
	"github.com/tamzrod/qrc-bridge/internal/logging"
	"github.com/tamzrod/qrc-bridge/internal/manager"
	"github.com/tamzrod/qrc-bridge/internal/metrics"
	"github.com/tamzrod/qrc-bridge/internal/mirror"
)

const shutdownGrace = 5 * time.Second

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Hold sessions to the configured cores until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.load()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(runCtx, ctx.configPath, cfg, logger)
		},
	}
}

func run(ctx context.Context, path string, cfg *config.Config, logger *slog.Logger) error {
	// --------------------
	// Metrics
	// --------------------

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mtx, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var srv *http.Server
	if addr := cfg.Bridge.Metrics.Listen; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener stopped", logging.Error(err))
			}
		}()
		logger.Info("metrics listening", logging.String("addr", addr))
	}

	// --------------------
	// Status mirror (optional)
	// --------------------

	var observers manager.Multi
	if mc := cfg.Bridge.Mirror; mc != nil {
		mir, err := mirror.Build(mc, logger)
		if err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		defer mir.Close()
		go mir.Run(ctx)
		observers = append(observers, manager.Funcs{OnStatus: mir.StatusChanged})
	}

	// --------------------
	// Session manager
	// --------------------

	mgr := manager.New(manager.Options{
		Logger:   logger,
		Metrics:  mtx,
		Observer: observers,
	})
	defer mgr.Shutdown()

	if err := mgr.Apply(ctx, cfg); err != nil {
		return err
	}

	// Every accepted edit tears down and re-arms the sessions.
	w, err := config.NewWatcher(path, func(c *config.Config) {
		if err := mgr.Apply(ctx, c); err != nil {
			logger.Error("apply reloaded config", logging.Error(err))
		}
	}, logger)
	if err != nil {
		logger.Warn("config reload disabled", logging.Error(err))
	} else {
		go w.Run(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return nil
}
