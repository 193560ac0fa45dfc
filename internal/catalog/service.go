// Package catalog: hammadde, ürün, kategori ve reçete yönetimi.
package catalog

import (
	"errors"
	"strings"

	"kahve-backend/internal/apperr"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log.With().Str("component", "catalog").Logger()}
}

// DB: importer gibi aynı transaction'a katılması gereken bileşenler için
func (s *Service) DB() *gorm.DB {
	return s.db
}

func notFoundOr(err error, entity string, id uint, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return apperr.Persistence(msg, err)
}

// isUniqueViolation: postgres (23505) ve sqlite mesajları
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// wrap: apperr olmayan hataları Persistence'a çevirir
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Persistence(msg, err)
}
