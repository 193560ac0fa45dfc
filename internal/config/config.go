package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	LogLevel       string
	KafkaBrokers   string // virgülle ayrılmış; boşsa event yayını kapalı
	KafkaTopic     string
	StockAlertCron string // düşük stok taraması (cron ifadesi)
	Timezone       string
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=kahve port=5432 sslmode=disable"

func Load() *Config {
	// .env opsiyonel, yoksa sadece ortam değişkenleri kullanılır
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] .env okunamadı: %v", err)
	}

	cfg := FromEnv()

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN varsayılan değer kullanılıyor, production için mutlaka kendi Postgres bağlantı bilgisini tanımla.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla.")
	}

	return cfg
}

// FromEnv: doğrulama yapmadan ortamdan okur (CLI araçları JWT istemez)
func FromEnv() *Config {
	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		KafkaBrokers:   getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:     getEnv("KAFKA_ORDER_TOPIC", "orders"),
		StockAlertCron: getEnv("STOCK_ALERT_CRON", "*/15 * * * *"),
		Timezone:       getEnv("TIMEZONE", "Europe/Istanbul"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
