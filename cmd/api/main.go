// Package main is the entry point for the voter file export API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thegoodparty/gp-api-sub001/internal/config"
	"github.com/thegoodparty/gp-api-sub001/internal/handler"
	"github.com/thegoodparty/gp-api-sub001/internal/middleware"
	"github.com/thegoodparty/gp-api-sub001/internal/query"
	"github.com/thegoodparty/gp-api-sub001/internal/repo"
	"github.com/thegoodparty/gp-api-sub001/internal/service"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A missing temporal-window setting or database URL is fatal here, at
	// startup, never mid-request.
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages the pool of Postgres connections the pipeline borrows
	// from: one query per count probe, one connection per CSV stream.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Pipeline ---------------------------------------------------------
	compiler := query.NewCompiler(query.Window{
		EvenYear: cfg.EvenElectionYear,
		OddYear:  cfg.OddElectionYear,
		Depth:    cfg.ElectionLookback,
	})
	exports := service.NewExportService(compiler, repo.NewVoterRepo(pool), logger)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID → RealIP → SlogLogger → Recoverer → CORS
	// → body limit. The body limit only constrains inbound JSON; streamed
	// CSV responses are outbound and unaffected.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	handler.NewServer(exports, logger).Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// --- HTTP Server ------------------------------------------------------
	// No WriteTimeout: a full-state CSV export can legitimately stream for
	// minutes. Client disconnects cancel the request context, which aborts
	// the COPY and releases the connection.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown: wait for an OS signal, then give in-flight exports
	// up to 30 seconds to finish streaming.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
