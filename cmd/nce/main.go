package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AHGGG/nce-english-practices-sub006/internal/config"
	"github.com/AHGGG/nce-english-practices-sub006/internal/database"
	"github.com/AHGGG/nce-english-practices-sub006/internal/dict"
	"github.com/AHGGG/nce-english-practices-sub006/internal/hydrate"
	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/platform"
	"github.com/AHGGG/nce-english-practices-sub006/internal/podcast"
	"github.com/AHGGG/nce-english-practices-sub006/internal/review"
	"github.com/AHGGG/nce-english-practices-sub006/internal/server"
	ws "github.com/AHGGG/nce-english-practices-sub006/internal/websocket"
)

var version = "dev"

func main() {
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("nce-practice " + version)
		os.Exit(0)
	}

	logger.Banner()

	cfg := config.Load()

	db, err := database.New(cfg.DataDir)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Broadcast closures capture the hub pointer, which is set after
	// server creation.
	var wsHub *ws.Hub
	broadcastFn := func(msgType string, payload interface{}) {
		if wsHub == nil {
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		wsHub.Broadcast(ws.Message{Type: msgType, Payload: data})
	}
	topicBroadcastFn := func(topic, msgType string, payload interface{}) {
		if wsHub == nil {
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		wsHub.BroadcastToTopic(topic, ws.Message{Type: msgType, Payload: data})
	}

	podcastMgr := podcast.NewManager(db, broadcastFn)
	dictClient := dict.NewClient(db, cfg.DictEndpoint)
	reviewSvc := review.NewService(db)
	streamMgr := hydrate.NewManager(topicBroadcastFn)

	reviewSched := review.NewScheduler(reviewSvc, broadcastFn)
	reviewSched.Start()
	defer reviewSched.Stop()

	srv := server.New(server.Config{
		DB:       db,
		Streams:  streamMgr,
		Podcasts: podcastMgr,
		Dict:     dictClient,
		Review:   reviewSvc,
		WSHub:    ws.NewHub(cfg.Port),
		App:      cfg,
		Version:  version,
	})
	wsHub = srv.WSHub

	go srv.WSHub.Run()

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	if cfg.BindAddress != "127.0.0.1" && cfg.BindAddress != "localhost" {
		logger.Warn("Binding to %s — accessible from the network. Use NCE_BIND=127.0.0.1 for localhost-only.", cfg.BindAddress)
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // intentionally zero for WebSocket support
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		logger.Listen(addr, url, cfg.Port)
		if os.Getenv("NCE_NO_OPEN") != "1" {
			platform.OpenBrowser(url)
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	<-done
	logger.Shutdown("Shutting down server...")

	// Close open hydration sessions so their channels are released
	streamMgr.Shutdown()
	srv.WSHub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("Server shutdown failed: %v", err)
	}

	logger.Bye()
}
