/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the point-of-sale engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize zap logger
  3. Initialize SQLite store
  4. Wire checkout engine, cash ledger, balance calculator
  5. Configure HTTP router
  6. Start server with graceful shutdown

CONFIGURATION:
  Flags take precedence; each falls back to an environment variable:
  -port     / PORT         HTTP server port (default: 8080)
  -db       / POS_DB       SQLite database path (default: pos.db)
                           Use ":memory:" for in-memory database
  -sellers  / POS_SELLERS  Comma-separated seller roster; empty accepts
                           any non-empty seller

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/pos.db"

  # Run with a fixed seller roster
  POS_SELLERS="deh,carol" ./server

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/warp/pos-engine/api"
	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/store/sqlite"
)

func main() {
	// .env is optional; real env vars win over the file.
	_ = godotenv.Load()

	// Flags, with environment fallbacks
	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("POS_DB", "pos.db"), "SQLite database path")
	sellers := flag.String("sellers", envStr("POS_SELLERS", ""), "comma-separated seller roster (empty accepts any)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	// Wire domain services
	engine := pos.NewEngine(store, logger)
	if roster := splitRoster(*sellers); len(roster) > 0 {
		engine.RestrictSellers(roster...)
	}
	ledger := pos.NewCashLedger(store, logger)
	balance := pos.NewBalanceCalculator(store, store)

	// Initialize handler and router
	handler := api.NewHandler(store, engine, ledger, balance)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.Bool("transactional", engine.Transactional()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitRoster(s string) []string {
	var roster []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			roster = append(roster, name)
		}
	}
	return roster
}
