/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the wheel engine server: durable action ledger,
  journal replay to rebuild the lot collection, engine wiring, HTTP server
  with graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the SQLite action ledger
  3. Replay the journal into the lot collection
  4. Wire engine, modal controller, and API handler
  5. Start server; shut down gracefully on SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: wheel.db)
           Use ":memory:" for an in-memory ledger
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/allocraft/wheel-engine/api"
	"github.com/allocraft/wheel-engine/store/sqlite"
	"github.com/allocraft/wheel-engine/wheel"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "wheel.db", "SQLite database path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	led, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to open ledger", "err", err)
		os.Exit(1)
	}
	defer led.Close()

	// Rebuild the lot collection from the recorded journal.
	acts, err := led.Actions(context.Background())
	if err != nil {
		log.Error("failed to load action journal", "err", err)
		os.Exit(1)
	}
	lots, err := wheel.Replay(acts)
	if err != nil {
		log.Error("failed to replay action journal", "err", err)
		os.Exit(1)
	}
	log.Info("journal replayed", "actions", len(acts), "lots", len(lots))

	collection := wheel.NewCollection(lots)
	modal := wheel.NewModalController()
	engine := wheel.NewEngine(led, modal, collection.View, collection.Apply)

	handler := api.NewHandler(engine, collection, led, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "err", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
