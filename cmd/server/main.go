package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iyulab/shell-tunnel/internal/config"
	"github.com/iyulab/shell-tunnel/internal/server"
)

func main() {
	cfg := config.LoadOrDefault()

	host := flag.String("host", cfg.Server.Host, "Server host")
	port := flag.Int("port", cfg.Server.Port, "Server port")
	dev := flag.Bool("dev", cfg.Logging.Dev, "Development logging")
	flag.Parse()

	cfg.Server.Host = *host
	cfg.Server.Port = *port
	cfg.Logging.Dev = *dev

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("server error: %v", err)
	}
}
