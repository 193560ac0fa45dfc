// Package dbtest: testler için bellek içi sqlite veritabanı.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"kahve-backend/internal/database"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var seq atomic.Int64

// New: her test için ayrı, migrate edilmiş bir veritabanı.
// Tek bağlantı kullanılır; eşzamanlı transaction'lar havuzda sıraya girer.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, zerolog.Nop()); err != nil {
		t.Fatalf("migration: %v", err)
	}
	return db
}
