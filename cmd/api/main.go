package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental-reception/internal/auth"
	"dental-reception/internal/config"
	"dental-reception/internal/dialogue"
	"dental-reception/internal/persistence"
	"dental-reception/internal/schedule"
	"dental-reception/internal/session"
	"dental-reception/internal/telephony"
	"dental-reception/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ring := logger.NewRing(500)
	log := logger.New(cfg.App.Env, ring)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	persister, err := persistence.New(cfg.Storage.TranscriptsDir, cfg.Storage.DataDir, log)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	var guard persistence.CompletionGuard = persistence.NewMemoryGuard()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		pingCtx, cancel := context.WithTimeout(rootCtx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Error("redis init failed", "addr", cfg.Redis.Addr, "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		guard = persistence.NewRedisGuard(rdb, 24*time.Hour)
		log.Info("completion guard using redis", "addr", cfg.Redis.Addr)
	}

	var authManager *auth.Manager
	if cfg.DebugEnabled() {
		authManager, err = auth.NewManager(cfg.Debug.TokenSecret)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	}

	var sigValidator *telephony.SignatureValidator
	if cfg.Twilio.VerifySignatures {
		sigValidator = telephony.NewSignatureValidator(cfg.Twilio.AuthToken)
	}

	store := session.NewStore(nil)
	ledger := schedule.NewLedger(cfg.Storage.ScheduleCSV)
	machine := dialogue.NewMachine(cfg.Practice, ledger, persister, log)

	handler := telephony.WebhookHandler{
		Store:     store,
		Machine:   machine,
		Persister: persister,
		Guard:     guard,
		Render: telephony.PromptRenderer{
			Voice:    cfg.Speech.Voice,
			Language: cfg.Speech.Language,
		},
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, cfg, handler, store, ring, authManager, sigValidator)

	// Orphaned sessions (no completion callback) are reaped on a schedule
	// and best-effort persisted when they carry any transcript.
	reap := func() {
		for _, sess := range store.EvictIdle(cfg.Sessions.TTL) {
			log.Warn("reaping idle session", "call_sid", sess.CallID, "state", sess.State)
			if len(sess.Transcript) > 0 {
				_ = persister.PersistCall(sess, time.Now())
			}
		}
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sessions.ReapSchedule, reap); err != nil {
		log.Error("reap schedule invalid", "schedule", cfg.Sessions.ReapSchedule, "err", err)
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "practice", cfg.Practice.PracticeName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	<-scheduler.Stop().Done()

	// Final sweep: flush whatever the completion callbacks never closed out.
	for _, sess := range store.EvictIdle(0) {
		if len(sess.Transcript) > 0 {
			_ = persister.PersistCall(sess, time.Now())
		}
	}
}
