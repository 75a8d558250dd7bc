/*
main.go - Application entry point

PURPOSE:
  Starts the leave management API. Loads configuration, opens the selected
  store, seeds the leave-type catalog and serves HTTP until interrupted.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load config (defaults -> YAML -> env), apply flag overrides
  3. Open store (sqlite | mongo | memory)
  4. Seed default leave types into an empty catalog
  5. Wire service, tokens, handlers and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config path (optional)
  -port    HTTP server port, overrides config
  -db      Database driver override: sqlite | mongo | memory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  ./server -config=config.yaml
  ./server -db=memory -port=3000
  JWT_SECRET=... DB_DRIVER=mongo MONGO_URI=mongodb://db:27017 ./server

SEE ALSO:
  - config/config.go: Keys and environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-manager/api"
	"github.com/warp/leave-manager/auth"
	"github.com/warp/leave-manager/config"
	"github.com/warp/leave-manager/leave"
	"github.com/warp/leave-manager/store"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	driver := flag.String("db", "", "Database driver: sqlite, mongo or memory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		log.Printf("Warning: using the development JWT secret; set JWT_SECRET in production")
	}

	// Initialize store
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := store.Open(ctx, cfg.Database)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()
	log.Printf("Using %s store", cfg.Database.Driver)

	svc := leave.NewService(st, leave.WithLocation(cfg.Location()))

	if cfg.SeedLeaveTypes {
		n, err := svc.SeedLeaveTypes(context.Background())
		if err != nil {
			log.Fatalf("Failed to seed leave types: %v", err)
		}
		if n > 0 {
			log.Printf("Seeded %d default leave types", n)
		}
	}

	handler := api.NewHandler(svc, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), nil)
	router := api.NewRouter(handler, api.RouterConfig{
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("API available at http://localhost:%d%s", cfg.Server.Port, cfg.Server.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
