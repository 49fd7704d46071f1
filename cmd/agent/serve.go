package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/observability"
	"github.com/lexiqai/rag-agent/internal/web"
)

// ServeCmd starts the web API
type ServeCmd struct {
	Port string `short:"p" long:"port" description:"listen port (overrides PORT)"`
}

func (s *ServeCmd) Execute(_ []string) error {
	a, err := newApp(config.ModeServe)
	if err != nil {
		return err
	}
	cfg := a.cfg
	port := cfg.Port
	if s.Port != "" {
		port = s.Port
	}
	logger := a.logger

	checks := a.healthChecks()
	srv := web.New(web.Dependencies{
		LLM:                 a.llmClient(),
		Registry:            a.registry,
		Retriever:           a.retriever,
		Options:             a.options(),
		OpenAIConfigured:    cfg.OpenAIConfigured(),
		VectorizeConfigured: cfg.VectorizeConfigured(),
		Checks:              checks,
		MetricsEnabled:      cfg.MetricsEnabled,
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", port),
		Handler:     srv.Handler(),
		ReadTimeout: 15 * time.Second,
		// chat turns make up to two LLM calls plus tool calls
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh, err := start(ctx, server, cfg.GRPCHealthPort, checks)
	if err != nil {
		return err
	}
	logger.Info().
		Str("port", port).
		Str("endpoint", fmt.Sprintf("http://localhost:%s/api/chat", port)).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Server listening")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("Server exited gracefully")
	return nil
}

// start binds every listener before serving on any of them, so a port conflict
// fails the command with nothing left running. Serve errors arrive on the returned channel.
func start(ctx context.Context, server *http.Server, grpcHealthPort string, checks map[string]observability.HealthCheckFunc) (<-chan error, error) {
	var healthLis net.Listener
	if grpcHealthPort != "" {
		lis, err := net.Listen("tcp", ":"+grpcHealthPort)
		if err != nil {
			return nil, fmt.Errorf("failed to listen for gRPC health: %w", err)
		}
		healthLis = lis
	}

	httpLis, err := net.Listen("tcp", server.Addr)
	if err != nil {
		if healthLis != nil {
			healthLis.Close()
		}
		return nil, fmt.Errorf("server failed: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := server.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	if healthLis != nil {
		health := observability.NewGRPCHealthServer(checks, 10*time.Second)
		go func() {
			if err := health.Serve(ctx, healthLis); err != nil {
				errCh <- fmt.Errorf("gRPC health server failed: %w", err)
			}
		}()
	}
	return errCh, nil
}
