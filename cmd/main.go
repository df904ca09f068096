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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kkkkikiki/crowdfund/internal/auth"
	"github.com/kkkkikiki/crowdfund/internal/config"
	"github.com/kkkkikiki/crowdfund/internal/database"
	"github.com/kkkkikiki/crowdfund/internal/ledger"
	"github.com/kkkkikiki/crowdfund/internal/logging"
	"github.com/kkkkikiki/crowdfund/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration from .env and environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.App)
	logger.Info().Str("environment", cfg.App.Environment).Msg("starting crowdfund ledger")

	// Initialize database connection
	db, err := database.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing database connection")
		}
	}()

	program, err := cfg.Ledger.Program()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid program id")
	}
	processor, err := ledger.NewProcessor(db.Ledger, program, ledger.Params{
		PlatformFee:   cfg.Ledger.PlatformFee,
		MinDonation:   cfg.Ledger.MinDonation,
		MinWithdrawal: cfg.Ledger.MinWithdrawal,
		RentPerByte:   cfg.Ledger.RentPerByte,
	}, ledger.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ledger processor")
	}

	genesis, err := cfg.Ledger.GenesisAccounts()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid genesis accounts")
	}
	if len(genesis) > 0 {
		if _, err := processor.Genesis(ctx, genesis); err != nil {
			logger.Fatal().Err(err).Msg("failed to fund genesis accounts")
		}
	}

	verifier := auth.NewVerifier(time.Duration(cfg.Ledger.AuthMaxAge) * time.Second)
	ledgerService := service.NewLedgerServer(processor, verifier, logger)

	router := newRouter(logger, db, ledgerService)

	// Create server with configuration optimized for high concurrency
	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(router, &http2.Server{
			MaxConcurrentStreams: 1000,
		}),
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Stringer("program", program).
			Msg("ledger service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	logger.Info().Msg("server exited gracefully")
}

func newRouter(logger zerolog.Logger, db *database.DB, ledgerService *service.LedgerServer) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		hlog.NewHandler(logger),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", middleware.GetReqID(r.Context())).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	)

	path, handler := ledgerService.Handler()
	r.Handle(path+"*", handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"crowdfund-ledger","hostname":%q}`, hostname)
	})

	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ledger.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"ledger database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","driver":%q}`, db.Ledger.DriverName())
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}
