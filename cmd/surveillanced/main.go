// Command surveillanced runs the Camera Fleet Engine: it loads camera
// configuration from the repository, starts one reader per enabled
// camera, and serves the narrow HTTP surface (latest frame, snapshot,
// zone updates, recording control) spec.md carves out as in-scope.
//
// Wiring style grounded on cmd/orbo/main.go: flag parsing, a single
// bracketed-prefix *log.Logger, env-var driven configuration.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnHumenny/video-surveillance/internal/config"
	"github.com/AnHumenny/video-surveillance/internal/events"
	"github.com/AnHumenny/video-surveillance/internal/fleet"
	"github.com/AnHumenny/video-surveillance/internal/repository"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.Parse()

	logger := log.New(os.Stderr, "[surveillanced] ", log.Ltime)

	cfg := config.Load()
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	repo, err := repository.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	hub := events.NewHub()
	var notifier events.Notifier
	if webhook := os.Getenv("NOTIFY_WEBHOOK_URL"); webhook != "" {
		notifier = events.NewWebhookNotifier(webhook, 30*time.Second)
	}
	dispatcher := events.NewDispatcher(256, hub, notifier, log.New(os.Stderr, "[events] ", log.Ltime))

	f := fleet.New(repo, dispatcher, fleet.Options{
		QueueCapacity:          cfg.MaxQueueSize,
		FPS:                    cfg.FPS,
		ConnectTimeout:         cfg.ConnectTimeout,
		FrameTimeout:           cfg.FrameTimeout,
		ReconnectAttempts:      cfg.ReconnectAttempts,
		ReconnectDelay:         cfg.ReconnectDelay,
		RetryBackoff:           cfg.RetryBackoff,
		RTSPTransport:          cfg.RTSPTransport,
		StreamWidth:            cfg.StreamWidth,
		StreamHeight:           cfg.StreamHeight,
		MinContourArea:         cfg.MinContourArea,
		MaxTrackerDistance:     cfg.MaxTrackerDistance,
		TrackerStaleness:       cfg.TrackerStaleness,
		ScreenshotDebounce:     cfg.ScreenshotDebounce,
		ClipDuration:           cfg.ClipDuration,
		ContinuousClipDuration: cfg.ContinuousClipDuration,
		WorkerPoolSize:         cfg.WorkerPoolSize,
		MediaRoot:              cfg.MediaRoot,
		Logger:                 log.New(os.Stderr, "[fleet] ", log.Ltime),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.LoadAll(ctx); err != nil {
		logger.Fatalf("load cameras: %v", err)
	}

	mux := http.NewServeMux()
	newServer(f, repo, log.New(os.Stderr, "[http] ", log.Ltime)).register(mux)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Printf("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	f.Close()
}
