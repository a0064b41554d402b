package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matthewjhunter/newsdesk"
	"github.com/matthewjhunter/newsdesk/internal/storage"
)

func main() {
	configPath := flag.String("config", "newsdesk.yaml", "path to config file (YAML or TOML)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := storage.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "newsdesk-web: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx := context.Background()
	svc, err := newsdesk.NewService(ctx, newsdesk.ServiceConfig{
		Database: cfg.Database,
		PageSize: cfg.Pagination.DefaultLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "newsdesk-web: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(svc, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("newsdesk-web: listening on %s (%s)", cfg.Server.Addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("newsdesk-web: %v", err)
		}
	}()

	<-done
	log.Println("newsdesk-web: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("newsdesk-web: shutdown error: %v", err)
	}
	log.Println("newsdesk-web: stopped")
}
