package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/tailor-app/internal/config"
	"github.com/diewo77/tailor-app/internal/db"
	"github.com/diewo77/tailor-app/internal/logging"
	"github.com/diewo77/tailor-app/internal/notify"
	"github.com/diewo77/tailor-app/internal/server"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	recomputeFlag   = flag.Bool("recompute-pricing", false, "Backfill order totals with missing pricing and exit")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	log := logging.Init("tailor-app")
	cfg := config.Load()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(cfg.DatabaseDSN); err != nil {
			log.Error("migrate-only failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations completed; exiting as requested")
		return
	}

	conn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Error("database setup failed", "err", err)
		os.Exit(1)
	}

	if *recomputeFlag {
		if err := runRecomputePricing(conn); err != nil {
			log.Error("recompute-pricing failed", "err", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dispatcher notify.Dispatcher
	if cfg.NotificationsEnabled() {
		kd := notify.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.KafkaTopic, 256)
		kd.Start(ctx)
		dispatcher = kd
		defer kd.WaitClosed()
	} else {
		dispatcher = notify.NewLogDispatcher()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(conn, dispatcher),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
