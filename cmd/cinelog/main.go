package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cinelog/internal/config"
	"cinelog/internal/core"
	"cinelog/internal/database"
	"cinelog/internal/handlers"
	"cinelog/internal/mcp"
	"cinelog/internal/utils"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	stdio := flag.Bool("stdio", false, "Serve MCP over stdin/stdout instead of HTTP")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logger. In stdio mode stdout belongs to the MCP transport,
	// so logs go to a file only.
	var logOut io.Writer = os.Stdout
	if err := os.MkdirAll(cfg.App.DataPath, 0755); err != nil {
		log.Fatal("Failed to create data directory:", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.App.DataPath, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	if *stdio {
		logOut = logFile
	} else {
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	logger := utils.NewLogger(cfg.App.Debug, logOut)

	// Initialize database
	db, err := database.NewSQLite(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("Failed to run migrations:", err)
	}

	// Create manager and MCP surface
	manager := core.NewManager(cfg, db, logger)
	mcpServer := mcp.NewServer(manager, logger)

	if *stdio {
		manager.StartScheduler()
		defer manager.Stop()
		if err := mcpServer.ServeStdio(); err != nil {
			logger.Fatal("MCP stdio server failed:", err)
		}
		return
	}

	// Start web server with the MCP handler mounted at /mcp
	server := handlers.NewServer(cfg, manager, mcpServer.HTTPHandler(), logger)

	// Handle shutdown gracefully
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start:", err)
		}
	}()

	manager.StartScheduler()

	logger.Info("Cinelog started successfully on port", cfg.App.Port)

	// Wait for interrupt
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down...")
	manager.Stop()
	server.Stop(ctx)
}
