package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"content-indexer/internal/database"
	"content-indexer/internal/handlers"
	"content-indexer/internal/logging"
	"content-indexer/internal/scanner"
	"content-indexer/internal/scheduler"
	"content-indexer/internal/startup"
	"content-indexer/internal/treescan"
	"content-indexer/internal/watcher"
)

func main() {
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	dispatch := scanner.NewDispatcher(db)
	sched := scheduler.New(dispatch, db, config.Debounce)
	ts := treescan.New(sched, db, config.ContentDir)

	// Initial reconciliation runs in the background; the HTTP surface is up
	// immediately and readiness only gates on the database.
	go ts.ScanIndex()

	var w *watcher.Watcher
	if config.WatchEnabled {
		w, err = watcher.New(config.ContentDir, sched)
		if err != nil {
			startup.LogFatal("Failed to create watcher: %v", err)
		}
		if err := w.Start(); err != nil {
			startup.LogFatal("Failed to start watcher: %v", err)
		}
	}

	// Periodic rescans catch deletions and anything a watch event missed.
	go func() {
		ticker := time.NewTicker(config.RescanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logging.Debug("Periodic rescan triggered")
				ts.ScanIndex()
			case <-ctx.Done():
				return
			}
		}
	}()

	h := handlers.New(db, sched, ts, config.LogHealthChecks)
	router := setupRouter(h)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logging.Info("Listening on :%s", config.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logging.Info("Shutting down...")

		// Stop accepting watch events first, then let the current drain
		// pass finish. Pending items lost here are rediscovered by the
		// tree scan on the next start.
		if w != nil {
			if err := w.Stop(); err != nil {
				logging.Warn("Error stopping watcher: %v", err)
			}
		}
		sched.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		startup.LogFatal("Server error: %v", err)
	}
	logging.Info("Shutdown complete")
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/api/index/status", h.GetIndexStatus).Methods("GET")
	r.HandleFunc("/api/version", h.GetVersion).Methods("GET")
	r.HandleFunc("/api/index/rescan", h.TriggerRescan).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
