package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/safecoin/interest-api/api"
	"github.com/safecoin/interest-api/database"
	"github.com/safecoin/interest-api/fetcher"
	"github.com/safecoin/interest-api/node"
)

// Version will be set at build time
var Version = "development"

func main() {
	// .env is optional, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	// set global logger with custom options
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}),
	))
	Logger := slog.Default()

	Logger.Info("Starting interest-api ("+Version+")",
		"Go Version", runtime.Version(),
		"Operating System", runtime.GOOS,
		"Architecture", runtime.GOARCH)

	fetchWorkers, err := strconv.Atoi(getenv("FETCH_WORKERS", "4"))
	if err != nil {
		log.Fatalf("failed to parse FETCH_WORKERS: %v", err)
	}

	fetchTimeout, err := time.ParseDuration(getenv("FETCH_TIMEOUT", "30s"))
	if err != nil {
		log.Fatalf("failed to parse FETCH_TIMEOUT: %v", err)
	}

	sessionTTL, err := time.ParseDuration(getenv("SESSION_TTL", "30m"))
	if err != nil {
		log.Fatalf("failed to parse SESSION_TTL: %v", err)
	}

	maxSessions, err := strconv.Atoi(getenv("MAX_SESSIONS", "10000"))
	if err != nil {
		log.Fatalf("failed to parse MAX_SESSIONS: %v", err)
	}

	nodeClient, err := node.NewClient(node.ClientOpts{
		Endpoint: os.Getenv("NODE_RPC_URL"),
		User:     os.Getenv("NODE_RPC_USER"),
		Password: os.Getenv("NODE_RPC_PASSWORD"),
		CoinName: getenv("COIN_NAME", "SAFE"),
		Logger:   Logger.With("component", "node"),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer nodeClient.Close()

	fetcherOpts := fetcher.FetcherOpts{
		Source:  nodeClient,
		Logger:  Logger.With("component", "fetcher"),
		Workers: fetchWorkers,
		Timeout: fetchTimeout,
	}
	serverOpts := api.ServerOpts{
		Logger:      Logger.With("component", "api-server"),
		Port:        getenv("API_PORT", "8080"),
		ExplorerURL: os.Getenv("EXPLORER_URL"),
		SessionTTL:  sessionTTL,
		MaxSessions: maxSessions,
	}

	// the cache is optional: without it the service only proxies the node
	if uri := os.Getenv("DATABASE_URI"); uri != "" {
		db, err := database.NewDatabase(database.DatabaseOpts{
			URI:          uri,
			DatabaseName: getenv("DATABASE_NAME", "interest"),
			Logger:       Logger.With("component", "database"),
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := db.CreateIndexes(context.Background()); err != nil {
			log.Fatalf("failed to create database indexes: %v", err)
		}
		defer db.Close(context.Background())

		fetcherOpts.Store = db
		serverOpts.Cache = db
	}

	f := fetcher.NewFetcher(fetcherOpts)
	serverOpts.Fetcher = f

	server, err := api.NewServer(serverOpts)
	if err != nil {
		log.Fatalf("failed to create api server: %v", err)
	}

	// Create context that will be canceled on SIGINT or SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)
	fetcherDone := make(chan struct{})
	go func() {
		defer close(fetcherDone)
		errChan <- f.Run(ctx)
	}()
	go func() {
		errChan <- server.StartServer()
	}()
	go server.SweepSessions(ctx)

	// Wait for either error or signal
	select {
	case err := <-errChan:
		if err != nil {
			log.Printf("service error: %v", err)
		}
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// the fetcher answers whatever is still queued before it returns
	select {
	case <-fetcherDone:
	case <-shutdownCtx.Done():
		log.Printf("fetcher did not stop in time")
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
