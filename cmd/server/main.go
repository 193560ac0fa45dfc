package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"kahve-backend/internal/alerts"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/config"
	"kahve-backend/internal/database"
	"kahve-backend/internal/events"
	"kahve-backend/internal/logging"
	"kahve-backend/internal/metrics"
	"kahve-backend/internal/server"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("saat dilimi yüklenemedi, yerel saat kullanılıyor")
		loc = time.Local
	}

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("veritabanı açılamadı")
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("migration başarısız")
	}

	pub := events.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	m := metrics.New()
	rec := audit.NewRecorder(db, log)
	scanner := alerts.NewScanner(db, log, m)

	sched, err := scanner.Start(cfg.StockAlertCron, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("stok uyarı taraması başlatılamadı")
	}

	app := server.New(server.Options{
		DB:          db,
		Log:         log,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Location:    loc,
		Audit:       rec,
		Events:      pub,
		Metrics:     m,
		Alerts:      scanner,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("kapanıyor...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("HTTP sunucusu düzgün kapanmadı")
		}
	}()

	log.Info().Str("port", cfg.HTTPPort).Msg("Server çalışıyor")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Error().Err(err).Msg("sunucu durdu")
	}

	sched.Stop()
	rec.Wait()
	if err := pub.Close(); err != nil {
		log.Error().Err(err).Msg("event yayıncısı kapatılamadı")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
