package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cassiomorais/qrpay/internal/apiclient"
	"github.com/cassiomorais/qrpay/internal/bootstrap"
	"github.com/cassiomorais/qrpay/internal/checkout"
	"github.com/cassiomorais/qrpay/internal/controller"
	"github.com/cassiomorais/qrpay/internal/domain/cart"
	"github.com/cassiomorais/qrpay/internal/kv"
	"github.com/cassiomorais/qrpay/internal/ledger"
	"github.com/cassiomorais/qrpay/internal/qrflow"
	"github.com/cassiomorais/qrpay/internal/session"
	"github.com/cassiomorais/qrpay/pkg/clock"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "qrpay-gateway", "qrpay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config
	logger := app.Logger

	snapshots := kv.NewRedisStore(app.Redis)
	led := ledger.New(snapshots, time.Now, logger)
	sessions := session.New(ctx, snapshots, logger)
	shoppingCart := cart.New()

	paymentClient := apiclient.NewPaymentClient(cfg.Services.PaymentURL, cfg.Services.Timeout, sessions, logger)
	orderClient := apiclient.NewOrderClient(cfg.Services.OrderURL, cfg.Services.Timeout, sessions, logger)
	productClient := apiclient.NewProductClient(cfg.Services.ProductURL, cfg.Services.Timeout, sessions, logger)

	coordinator := qrflow.New(paymentClient, clock.New(), app.Metrics, qrflow.Config{
		PollInterval:    cfg.QR.PollInterval,
		MaxPollAttempts: cfg.QR.MaxPollAttempts,
		DefaultTTL:      cfg.QR.DefaultTTL,
	}, logger)
	defer coordinator.Close()

	saga := checkout.New(checkout.Config{
		MerchantID: cfg.Checkout.MerchantID,
		Currency:   cfg.Checkout.Currency,
	}, paymentClient, orderClient, productClient, led, shoppingCart, app.Metrics, logger)

	router := controller.NewRouter(controller.RouterDeps{
		RedisClient: app.Redis,
		Coordinator: coordinator,
		Saga:        saga,
		Payments:    paymentClient,
		Orders:      orderClient,
		Products:    productClient,
		Ledger:      led,
		Cart:        shoppingCart,
		Sessions:    sessions,
		Metrics:     app.Metrics,
		CORSConfig:  cfg.Server.CORS,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		case <-gCtx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Gateway exited with error")
		os.Exit(1)
	}

	logger.Info().Msg("Gateway stopped")
}
