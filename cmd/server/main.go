// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/sudoku-arena/arena/internal/arena"
	"github.com/sudoku-arena/arena/internal/handlers"
	"github.com/sudoku-arena/arena/internal/journal"
	"github.com/sudoku-arena/arena/internal/middleware"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Optional: relay traffic journal for the historian. Unset REDIS_ADDR
	// leaves it disabled.
	if err := journal.Connect(); err != nil {
		logger.Warnf("match journal disabled: %v", err)
	}

	store := arena.NewRoomStore()
	registry := handlers.NewConnRegistry()
	manager := arena.NewManager(store, registry, logger)
	dispatcher := arena.NewDispatcher(store, registry, logger)

	mux := http.NewServeMux()

	// relay websocket
	mux.Handle("/arena/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ArenaWSHandler(logger, registry, manager, dispatcher),
	)))

	// puzzle endpoint
	mux.Handle("/puzzle/new", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.NewPuzzleHandler(),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
