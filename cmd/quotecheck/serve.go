package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/api"
	"github.com/dgallion1/quotecheck/internal/pipeline"
	"github.com/dgallion1/quotecheck/internal/stats"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.ValidateServer(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		v, err := newValidator(0, 0)
		if err != nil {
			return err
		}
		b, err := newBuilder(v, 0)
		if err != nil {
			return err
		}
		latency := stats.NewLatency(time.Hour)
		b.WithLatency(latency)

		logger := zap.L()
		orch := pipeline.NewOrchestrator(pipeline.Config{
			WorkerCount:  cfg.Pipeline.WorkerCount,
			MaxQueueSize: cfg.Pipeline.MaxQueueSize,
			JobTTL:       cfg.Pipeline.JobTTL,
		}, b, parserOptions(), logger)
		orch.Start(ctx)

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      api.NewServer(orch, v, latency, logger, cfg.Server),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown
		done := make(chan struct{})
		go func() {
			defer close(done)
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown", zap.Error(err))
			}
			orch.Stop()
		}()

		logger.Info("starting quotecheck", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stop()
			<-done
			return eris.Wrap(err, "server listen")
		}
		<-done
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
