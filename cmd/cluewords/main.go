package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/forensiclab/cluewords/internal/api"
	"github.com/forensiclab/cluewords/internal/config"
	"github.com/forensiclab/cluewords/internal/db"
	"github.com/forensiclab/cluewords/internal/jobs"
	"github.com/forensiclab/cluewords/internal/version"
)

func main() {
	ver := version.Load()
	log.Printf("cluewords %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	srv := api.NewServer(cfg, database)

	var queue *jobs.Queue
	if cfg.JobsEnabled() {
		queue = jobs.NewQueue(cfg.RedisAddr)
		if err := jobs.RegisterHandlers(queue, srv.Workspaces(), cfg.WorkspaceTTL); err != nil {
			log.Fatalf("job registration failed: %v", err)
		}
		if err := queue.Start(context.Background()); err != nil {
			log.Fatalf("job queue failed to start: %v", err)
		}
		defer queue.Stop()
		log.Printf("workspace cleanup jobs enabled (redis %s, ttl %dh)", cfg.RedisAddr, cfg.WorkspaceTTL)
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
