// Command main is the entry point for the Cidade em Foco backend server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cidadeemfoco/internal/bootstrap"
	"cidadeemfoco/internal/config"
	"cidadeemfoco/internal/middleware"
	"cidadeemfoco/internal/models"
	"cidadeemfoco/internal/observability"
	"cidadeemfoco/internal/server"

	"golang.org/x/sync/errgroup"
)

// @title Cidade em Foco API
// @version 1.0
// @description Community photo feed: users publish pictures of their city and like each other's posts.

// @contact.name API Support
// @contact.email suporte@cidadeemfoco.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3344
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.ConfigureLogger(cfg.Env, os.Stdout)
	models.SetExposeDetails(!cfg.IsProduction())

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	// Create server with dependency injection
	srv, err := server.NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Media)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := bootstrap.EnsureDevRootAdmin(ctx, cfg, srv.Users()); err != nil {
		middleware.Logger.Error("dev root admin bootstrap failed", slog.String("error", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		middleware.Logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			middleware.Logger.Error("server resource shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			middleware.Logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server stopped: %v", err)
	}
}
