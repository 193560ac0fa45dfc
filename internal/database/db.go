package database

import (
	"fmt"

	"kahve-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open: Postgres bağlantısı açar. Global handle yok, *gorm.DB bileşenlere
// constructor üzerinden verilir.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}
	return db, nil
}

// AllModels: AutoMigrate sırası (bağımlılıklar önce)
func AllModels() []any {
	return []any{
		&models.Branch{},
		&models.User{},
		&models.Customer{},
		&models.ProductCategory{},
		&models.Ingredient{},
		&models.Product{},
		&models.Recipe{},
		&models.RecipeItem{},
		&models.IngredientMovement{},
		&models.WasteEntry{},
		&models.Order{},
		&models.OrderItem{},
		&models.Cari{},
		&models.CariTransaction{},
		&models.AuditLog{},
	}
}

const legacyIdempotencyIndex = "idx_orders_idempotency_key"

func Migrate(db *gorm.DB, log zerolog.Logger) error {
	// Eski kayıtlar: "Standart" / NULL boyutlu reçeteler jenerik reçeteye çevrilir
	// (AutoMigrate'ten ÖNCE, yoksa (product_id, size) unique index'i oluşturulamaz)
	if db.Migrator().HasTable(&models.Recipe{}) {
		res := db.Exec("UPDATE recipes SET size = '' WHERE size IS NULL OR lower(size) IN ('standart', 'standard')")
		if res.Error != nil {
			log.Warn().Err(res.Error).Msg("reçete boyutları normalize edilemedi")
		} else if res.RowsAffected > 0 {
			log.Info().Int64("rows", res.RowsAffected).Msg("jenerik reçete boyutları normalize edildi")
		}
	}

	// Eski bakım scriptlerinden kalan negatif stoklar sıfırlanır
	for _, t := range []struct {
		model any
		table string
		msg   string
	}{
		{&models.Ingredient{}, "ingredients", "negatif hammadde stokları sıfırlandı"},
		{&models.Product{}, "products", "negatif ürün stokları sıfırlandı"},
	} {
		if !db.Migrator().HasTable(t.model) {
			continue
		}
		res := db.Exec("UPDATE " + t.table + " SET stock = 0 WHERE stock < 0")
		if res.Error != nil {
			log.Warn().Err(res.Error).Str("table", t.table).Msg("negatif stoklar sıfırlanamadı")
		} else if res.RowsAffected > 0 {
			log.Warn().Int64("rows", res.RowsAffected).Msg(t.msg)
		}
	}

	// idempotency key eskiden global tekildi; artık (branch_id, idempotency_key)
	if db.Migrator().HasIndex(&models.Order{}, legacyIdempotencyIndex) {
		if err := db.Migrator().DropIndex(&models.Order{}, legacyIdempotencyIndex); err != nil {
			return fmt.Errorf("eski idempotency index'i kaldırılamadı: %w", err)
		}
		log.Info().Str("index", legacyIdempotencyIndex).Msg("global idempotency index'i kaldırıldı")
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}

	log.Info().Msg("Migration tamamlandı")
	return nil
}
