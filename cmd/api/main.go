package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"freightsync/internal/api"
	"freightsync/internal/config"
	"freightsync/internal/forwarder"
	"freightsync/internal/metrics"
	"freightsync/internal/store"
	syncpkg "freightsync/internal/sync"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	metrics.RegisterDefault()

	var st store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		if cfg.Database.Migrate {
			if err := pg.MigrateDir("db/migrations"); err != nil {
				log.Fatal().Err(err).Msg("apply migrations")
			}
		}
		st = pg
		log.Info().Msg("using postgres store")
	} else {
		st = store.NewMemory()
		log.Info().Msg("using in-memory store")
	}

	var broker syncpkg.EventBroker
	if cfg.Redis.URL != "" {
		rb, err := syncpkg.NewRedisBroker(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		broker = rb
		log.Info().Msg("using redis event broker")
	} else {
		broker = syncpkg.NewBroker()
	}

	tokens := forwarder.NewTokenManager(cfg.Forwarder.TokenURL, forwarder.Credentials{
		ClientID:     cfg.Forwarder.ClientID,
		ClientSecret: cfg.Forwarder.ClientSecret,
		Username:     cfg.Forwarder.Username,
		Password:     cfg.Forwarder.Password,
	}, log)
	client := forwarder.NewClient(cfg.Forwarder.APIBaseURL, tokens, log)

	syncer := syncpkg.New(client, st, broker, log)
	syncer.SetPageSize(cfg.Sync.PageSize)

	if cfg.Sync.Interval > 0 {
		sched := syncpkg.NewScheduler(syncer, cfg.Sync.Interval, log)
		sched.Start()
		log.Info().Dur("interval", cfg.Sync.Interval).Msg("background sync enabled")
	}

	srvDeps := api.New(st, syncer, client, broker, log)

	mux := http.NewServeMux()

	// Sync triggers and history
	mux.HandleFunc("/v1/sync/shipments", srvDeps.SyncShipmentsHandler)
	mux.HandleFunc("/v1/sync/documents", srvDeps.SyncDocumentsHandler)
	mux.HandleFunc("/v1/sync/invoices", srvDeps.SyncInvoicesHandler)
	mux.HandleFunc("/v1/sync/runs", srvDeps.SyncRunsHandler)

	// Sync event streams
	mux.HandleFunc("/v1/sync/events/stream", srvDeps.EventsStreamHandler)
	mux.HandleFunc("/v1/sync/ws", srvDeps.EventsWSHandler)

	// Read endpoints
	mux.HandleFunc("/v1/shipments", srvDeps.ShipmentsHandler)
	mux.HandleFunc("/v1/shipments/", srvDeps.ShipmentByIDHandler) // includes /documents, /events
	mux.HandleFunc("/v1/invoices", srvDeps.InvoicesHandler)

	// Health and metrics
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(log, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("API listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logMiddleware(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades need the raw ResponseWriter (Hijacker).
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", dur).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}
