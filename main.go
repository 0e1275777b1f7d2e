package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"futureweaver/internal/config"
	"futureweaver/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if err := appContainer.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := appContainer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting FutureWeaver server on port %s", appConfig.Server.Port)
	if appConfig.Ops.Enabled {
		log.Printf("Metrics and profiles on :%s (/metrics, /debug/pprof)", appConfig.Ops.Port)
	}
	if err := appContainer.Serve(ctx); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
