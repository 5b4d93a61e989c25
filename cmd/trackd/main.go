package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fleet-track/tracking/internal/config"
	"fleet-track/tracking/internal/domain"
	"fleet-track/tracking/internal/engine"
	"fleet-track/tracking/internal/pipeline"
	"fleet-track/tracking/internal/spatial"
	"fleet-track/tracking/internal/store"
	"fleet-track/tracking/internal/sweep"
	transport "fleet-track/tracking/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewTimescaleStore(ctx, cfg)
	if err != nil {
		log.Fatalf("timescale connect failed: %v", err)
	}
	defer db.Close()

	rds, err := store.NewRedisStore(ctx, cfg)
	if err != nil {
		log.Fatalf("redis connect failed: %v", err)
	}
	defer rds.Close()

	index := spatial.NewRedisIndex(rds.Client(), cfg.FleetID)

	dispatcher := pipeline.NewDispatcher(cfg.ArchiveChannelSize, cfg.MirrorChannelSize, 1024)
	feed := transport.NewFeedHub()

	eng := engine.New(db, index, engine.Options{
		Thresholds: domain.RuleThresholds{
			SpeedLimitKmh: cfg.SpeedLimitKmh,
			IdleLimitMin:  cfg.IdleLimitMinutes,
			LowBatteryPct: cfg.LowBatteryPct,
		},
		BatchMaxItems:  cfg.BatchMaxItems,
		DefaultRadiusM: cfg.DefaultRadiusM,
		MaxRadiusM:     cfg.MaxRadiusM,
		Sink:           engine.MultiSink{dispatcher, feed},
	})

	archiveWriter := pipeline.NewArchiveWriter(dispatcher.ArchiveChan, db, cfg.ArchiveBatchSize, cfg.ArchiveFlushIntervalMS)
	mirrorWriter := pipeline.NewMirrorWriter(dispatcher.MirrorChan, rds)
	alertPublisher := pipeline.NewAlertPublisher(dispatcher.AlertChan, db, rds)
	go archiveWriter.Run(ctx)
	go mirrorWriter.Run(ctx)
	go alertPublisher.Run(ctx)

	sweeper := sweep.New(eng)
	if err := sweeper.Start(cfg.SweepSchedule); err != nil {
		log.Fatalf("sweeper start failed: %v", err)
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           transport.NewServer(eng, sweeper, feed).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("tracking engine listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	cancel()
	dispatcher.Close()
}
