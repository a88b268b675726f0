/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime tracker server: configuration,
  store wiring, HTTP server, graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Open the local SQLite cache
  3. Connect the remote key-value endpoint (optional)
  4. Configure the HTTP router
  5. Start the server; on SIGINT/SIGTERM flush pending syncs and exit

CONFIGURATION:
  Flags override environment variables; the environment may come from a
  .env file in the working directory.

    -port / PORT             HTTP server port (default 8080)
    -db / DB_PATH            SQLite cache path (default payroll.db,
                             ":memory:" for ephemeral)
    -redis / REDIS_ADDR      Remote sync endpoint (empty = sync disabled)
    -redis-password / REDIS_PASSWORD
    -debounce / SYNC_DEBOUNCE  Quiet period before a remote push (default 2s)
    -log-level / LOG_LEVEL   logrus level (default info)

EXAMPLES:
  # Local-only, no remote sync
  ./server -db=./data/payroll.db

  # With remote sync
  ./server -redis=localhost:6379
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/api"
	redisstore "github.com/warp/payroll-engine/store/redis"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/tracker"
)

func main() {
	// .env is optional; flags still win.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "payroll.db"), "SQLite cache path")
	redisAddr := flag.String("redis", envStr("REDIS_ADDR", ""), "remote sync endpoint (empty disables sync)")
	redisPassword := flag.String("redis-password", envStr("REDIS_PASSWORD", ""), "remote sync password")
	debounce := flag.Duration("debounce", envDuration("SYNC_DEBOUNCE", 2*time.Second), "quiet period before a remote push")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	// Local cache
	local, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open local cache")
	}
	defer local.Close()

	// Remote sync endpoint (optional)
	handler := api.NewHandler(local, nil, tracker.SyncOptions{Debounce: *debounce}, log)
	if *redisAddr != "" {
		remote := redisstore.New(*redisAddr, *redisPassword, 0)
		defer remote.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := remote.Ping(ctx); err != nil {
			log.WithError(err).Warn("remote sync endpoint unreachable at startup, will keep retrying per mutation")
		}
		cancel()

		handler = api.NewHandler(local, remote, tracker.SyncOptions{Debounce: *debounce}, log)
	}

	router := api.NewRouter(handler)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Pending debounced syncs go out before the listener closes.
	handler.Shutdown(ctx)

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}
	log.Info("server stopped")
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
