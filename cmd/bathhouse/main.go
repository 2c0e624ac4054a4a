// Package main запускает HTTP-сервер сервиса бронирования Jake's Bath House.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nenoreno/jakes-bath-house/internal/config"
	"github.com/nenoreno/jakes-bath-house/internal/handler"
	"github.com/nenoreno/jakes-bath-house/internal/middleware"
	"github.com/nenoreno/jakes-bath-house/internal/payment"
	"github.com/nenoreno/jakes-bath-house/internal/repository"
	"github.com/nenoreno/jakes-bath-house/internal/service"
	"github.com/nenoreno/jakes-bath-house/internal/ws"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		sugar.Fatalw("uploads directory error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var paymentClient *payment.Client
	if cfg.PaymentProviderAddress != "" {
		paymentClient = payment.NewClient(cfg.PaymentProviderAddress)
	}

	hub := ws.NewHub(logger)

	svc := service.NewService(repo, paymentClient, hub)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware, hub, cfg.UploadsDir)

	r := h.SetupRouter()

	// Read/write таймауты не ставятся: /ws держит соединение открытым.
	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Hub живых обновлений
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting bath house server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
