package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ncsdns/resolver/internal/dns/cache"
	"github.com/ncsdns/resolver/internal/dns/common/clock"
	"github.com/ncsdns/resolver/internal/dns/common/log"
	"github.com/ncsdns/resolver/internal/dns/config"
	"github.com/ncsdns/resolver/internal/dns/resolver"
	"github.com/ncsdns/resolver/internal/dns/server"
	"github.com/ncsdns/resolver/internal/dns/upstream"
)

const version = "0.1.0-dev"

// Application holds the fully wired components of the resolver.
type Application struct {
	server   *server.Server
	upstream *upstream.Transport
}

func main() {
	argv0 := filepath.Base(os.Args[0])

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: configuration error: %v\n", argv0, err)
		os.Exit(2)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "%s: logging configuration error: %v\n", argv0, err)
		os.Exit(2)
	}

	log.Info(map[string]any{
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.LogLevel,
		"port":          cfg.Port,
		"max_recursion": cfg.MaxRecursion,
	}, "starting resolver")

	app, err := buildApplication(argv0, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: startup error: %v\n", argv0, err)
		os.Exit(2)
	}
	defer app.upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "shutdown signal received")
		cancel()
	}()

	if err := app.server.ListenAndServe(ctx); err != nil {
		if errors.Is(err, server.ErrBannerFailed) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", argv0, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", argv0, err)
		os.Exit(2)
	}

	log.Info(nil, "resolver stopped gracefully")
}

// buildApplication constructs and wires the cache store, upstream
// transport, resolver engine and request loop server.
func buildApplication(argv0 string, cfg *config.AppConfig) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	store, err := cache.NewStore(clk)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache store: %w", err)
	}

	up, err := upstream.New(upstream.Options{
		Timeout:  upstream.DefaultTimeout,
		Attempts: upstream.DefaultAttempts,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream transport: %w", err)
	}

	res := resolver.New(resolver.Options{
		Store:        store,
		Upstream:     up,
		Clock:        clk,
		Logger:       logger,
		MaxRecursion: cfg.MaxRecursion,
	})

	srv := server.New(server.Options{
		Port:     cfg.Port,
		Argv0:    argv0,
		Resolver: res,
		Logger:   logger,
	})

	return &Application{server: srv, upstream: up}, nil
}
