package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/denisok6893-rgb/property-exchange-matching/internal/http"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("address", "", "listen address (overrides server.address)")
}

func serve(cmd *cobra.Command) {
	a := newApp(cmd)
	defer a.shutdown()

	addr := a.cfg.Server.Address
	if v, _ := cmd.Flags().GetString("address"); v != "" {
		addr = v
	}

	gin.SetMode(a.cfg.Server.Mode)
	srv := httpapi.NewServer(a.engine, a.exchange, a.repo,
		httpapi.WithLogger(a.logger),
		httpapi.WithMetrics(metrics.New()),
	)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutting down", zap.Error(err))
		}
	}()

	a.logger.Info("API listening", zap.String("address", addr), zap.String("storage", a.cfg.Storage.Driver))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("server error", zap.Error(err))
		return
	}
	a.logger.Info("API stopped")
}
