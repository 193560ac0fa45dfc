// reconcile: cari bakiyelerini hareketlerle karşılaştırır, negatif ve
// minimum altı stokları raporlar. -fix ile bakiye farklarını düzeltir.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"kahve-backend/internal/alerts"
	"kahve-backend/internal/cari"
	"kahve-backend/internal/config"
	"kahve-backend/internal/database"
	"kahve-backend/internal/logging"
	"kahve-backend/internal/models"
)

func main() {
	fix := flag.Bool("fix", false, "bakiye farklarını hareketlerden yeniden hesapla")
	timeout := flag.Duration("timeout", 5*time.Minute, "toplam süre sınırı")
	flag.Parse()

	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel)

	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("veritabanı açılamadı")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	results, err := cari.NewLedger(db, log).ReconcileAll(ctx, *fix)
	if err != nil {
		log.Fatal().Err(err).Msg("cari mutabakatı yapılamadı")
	}
	drifted := 0
	for _, r := range results {
		if r.InSync() {
			continue
		}
		drifted++
		log.Warn().
			Uint("cari_id", r.CariID).
			Uint("customer_id", r.CustomerID).
			Uint("branch_id", r.BranchID).
			Str("balance", r.Balance.StringFixed(2)).
			Str("expected", r.Expected.StringFixed(2)).
			Str("drift", r.Drift.StringFixed(2)).
			Bool("fixed", r.Fixed).
			Msg("cari bakiye farkı")
	}
	log.Info().Int("accounts", len(results)).Int("drifted", drifted).Bool("fix", *fix).Msg("cari mutabakatı tamamlandı")

	var negIngredients, negProducts int64
	db.WithContext(ctx).Model(&models.Ingredient{}).Where("stock < 0").Count(&negIngredients)
	db.WithContext(ctx).Model(&models.Product{}).Where("stock < 0").Count(&negProducts)
	if negIngredients+negProducts > 0 {
		log.Error().Int64("ingredients", negIngredients).Int64("products", negProducts).Msg("negatif stok bulundu")
	}

	scanner := alerts.NewScanner(db, log, nil)
	report, err := scanner.Scan(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("stok taraması yapılamadı")
	}
	scanner.LogReport(report)

	if (drifted > 0 && !*fix) || negIngredients+negProducts > 0 {
		os.Exit(1)
	}
}
