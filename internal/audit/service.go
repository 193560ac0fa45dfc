package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"kahve-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type LogOptions struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	UserEmail   string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Recorder: audit log yazıcısı. Record ile yazılan kayıtlar asıl işlemden
// bağımsızdır; hata olursa sadece loglanır.
type Recorder struct {
	db      *gorm.DB
	log     zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(db *gorm.DB, log zerolog.Logger) *Recorder {
	return &Recorder{
		db:      db,
		log:     log.With().Str("component", "audit").Logger(),
		timeout: 5 * time.Second,
	}
}

func buildEntry(opts LogOptions) models.AuditLog {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	return models.AuditLog{
		BranchID:    opts.BranchID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		UserEmail:   opts.UserEmail,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}
}

// WriteLog: senkron yazım, hatayı çağırana döner
func (r *Recorder) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := buildEntry(opts)
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// Record: fire-and-forget. Snapshot'lar çağrı anında JSON'a çevrilir,
// yazım arka planda yapılır. Hiçbir hata ya da panic çağırana ulaşmaz.
func (r *Recorder) Record(opts LogOptions) {
	entry := buildEntry(opts)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().Interface("panic", rec).Str("entity_type", entry.EntityType).Msg("audit log yazımında panic")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
			r.log.Error().Err(err).
				Str("entity_type", entry.EntityType).
				Uint("entity_id", entry.EntityID).
				Str("action", string(entry.Action)).
				Msg("audit log yazılamadı")
		}
	}()
}

// Wait: bekleyen arka plan yazımlarını bitirir (kapanışta ve testlerde)
func (r *Recorder) Wait() {
	r.wg.Wait()
}

type Filter struct {
	BranchID   *uint
	UserID     uint
	EntityType string
	EntityID   uint
	Action     models.AuditAction
	Limit      int
}

func (r *Recorder) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	dbq := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.BranchID != nil {
		dbq = dbq.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID > 0 {
		dbq = dbq.Where("user_id = ?", f.UserID)
	}
	if f.EntityType != "" {
		dbq = dbq.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		dbq = dbq.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		dbq = dbq.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var logs []models.AuditLog
	if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
