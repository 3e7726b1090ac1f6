// Package main provides the PDF reader MCP server entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpserver "github.com/bull/pdf-reader-mcp/internal/mcp"
	"github.com/bull/pdf-reader-mcp/internal/reader"
	"github.com/bull/pdf-reader-mcp/internal/summary"
)

func main() {
	// Load .env file if present (local development), ignore if missing.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Configuration from environment.
	port := getEnv("PORT", "8080")
	cacheSize := getEnvInt("CACHE_SIZE", 16)
	summaryDir := getEnv("SUMMARY_DIR", "")

	// In stdio mode stdout belongs to the protocol; log to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	svc, err := reader.New(reader.Config{
		CacheSize: cacheSize,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create reader service: %v", err)
	}
	defer svc.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Reader:    svc,
		Summaries: summary.NewStore(summaryDir),
	})

	// HTTP endpoints for remote clients and health checks.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(svc))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, &mcpserver.HTTPHandlerOptions{Stateless: true}))
	mux.HandleFunc("/", mcpserver.NewLandingHandler())

	// SERVER_MODE=true serves MCP over HTTP; otherwise stdio for local clients.
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting PDF Reader MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
