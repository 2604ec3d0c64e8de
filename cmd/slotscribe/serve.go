package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/slotscribe/slotscribe/pkg/api"
	"github.com/slotscribe/slotscribe/pkg/audit"
	"github.com/slotscribe/slotscribe/pkg/chain"
	"github.com/slotscribe/slotscribe/pkg/config"
	"github.com/slotscribe/slotscribe/pkg/store"
	"github.com/slotscribe/slotscribe/pkg/trace"
	"github.com/slotscribe/slotscribe/pkg/verify"
)

func logLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// clientFactory honors per-cluster profile endpoints when a profiles
// directory is configured; a per-request rpcUrl still wins.
func clientFactory(profiles map[string]*config.ClusterProfile) verify.ClientFactory {
	return func(cluster trace.Cluster, rpcURL string) (chain.Client, error) {
		if rpcURL == "" {
			if p, ok := profiles[string(cluster)]; ok {
				rpcURL = p.RPCURL()
			}
		}
		return chain.NewClusterClient(cluster, rpcURL)
	}
}

func runServeCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var port string
	cmd.StringVar(&port, "port", "", "Listen port (overrides PORT)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	if port != "" {
		cfg.Port = port
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx := context.Background()
	st, err := store.NewStoreFromEnv(ctx)
	if err != nil {
		logger.Error("storage setup failed", "error", err)
		return 2
	}

	profiles := map[string]*config.ClusterProfile{}
	if cfg.ProfilesDir != "" {
		profiles, err = config.LoadAllProfiles(cfg.ProfilesDir)
		if err != nil {
			logger.Error("cluster profiles load failed", "dir", cfg.ProfilesDir, "error", err)
			return 2
		}
	}

	defaultCluster, err := trace.ParseCluster(cfg.DefaultCluster)
	if err != nil {
		logger.Error("invalid DEFAULT_CLUSTER", "error", err)
		return 2
	}

	verifier := verify.NewVerifier(st, clientFactory(profiles))
	server, err := api.NewServer(st, verifier,
		api.WithLogger(logger),
		api.WithAuditLogger(audit.NewLogger()),
		api.WithDefaultCluster(defaultCluster),
	)
	if err != nil {
		logger.Error("server setup failed", "error", err)
		return 2
	}

	limiter := api.NewGlobalRateLimiter(50, 100)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           limiter.Middleware(server.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("slotscribe listening",
			"port", cfg.Port,
			"storage", cfg.StorageType,
			"defaultCluster", string(defaultCluster))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return 2
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			_, _ = fmt.Fprintf(stderr, "shutdown error: %v\n", err)
			return 2
		}
	}
	return 0
}
