package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chopchop-pos/order-engine/internal/config"
	"github.com/chopchop-pos/order-engine/internal/db"
	"github.com/chopchop-pos/order-engine/internal/invoice"
	"github.com/chopchop-pos/order-engine/internal/menu"
	"github.com/chopchop-pos/order-engine/internal/notify"
	"github.com/chopchop-pos/order-engine/internal/order"
	"github.com/chopchop-pos/order-engine/internal/payment"
	"github.com/chopchop-pos/order-engine/internal/report"
	"github.com/chopchop-pos/order-engine/internal/transport"
	"github.com/chopchop-pos/order-engine/internal/worker"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "order-engine").Logger()

	log.Info().Msg("Order engine starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	orderRepo := order.NewRepository(pg.Pool)
	invoiceRepo := invoice.NewRepository(pg.Pool)
	menuRepo := menu.NewRepository(pg.Pool)

	locks := order.NewKeyMutex()
	notifier := notify.NewLogNotifier()

	menus := menu.NewService(menuRepo, menu.LogAuditSink{})
	engine := order.NewEngine(orderRepo, menus, locks, notifier, cfg.Engine.TaxRate)
	coordinator := invoice.NewCoordinator(invoiceRepo, orderRepo, cfg.Engine.TaxRate)
	payments := payment.NewService(
		orderRepo,
		locks,
		coordinator,
		payment.NewRailVerifier(cfg.Engine.QRRailAddress),
		notifier,
		cfg.Engine.TaxRate,
		cfg.App.MerchantName,
		cfg.Engine.QRVerifyTimeout,
	)
	reports := report.NewService(orderRepo, menuRepo, cfg.Engine.TaxRate)

	sweeper := worker.NewInvoiceSweeper(orderRepo, coordinator, cfg.Engine.SweepInterval, cfg.Engine.SweepBatchSize)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Start(ctx)
	}()

	router := transport.NewRouter(transport.Deps{
		Engine:      engine,
		Payments:    payments,
		Coordinator: coordinator,
		Menus:       menus,
		Reports:     reports,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}

	// An in-flight sweep finishes its batch before the process exits.
	<-sweeperDone
	log.Info().Msg("Server stopped")
}
