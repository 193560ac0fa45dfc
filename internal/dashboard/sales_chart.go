package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesChartPoint struct {
	Label  string          `json:"label"` // tarih / hafta başlangıcı / ay başlangıcı
	Cash   decimal.Decimal `json:"cash"`
	Card   decimal.Decimal `json:"card"`
	Cari   decimal.Decimal `json:"cari"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

type SalesChartResponse struct {
	BranchID    uint              `json:"branch_id"`
	Period      string            `json:"period"` // daily | weekly | monthly
	From        string            `json:"from"`
	To          string            `json:"to"`
	Points      []SalesChartPoint `json:"points"`
	GrandTotals SalesChartPoint   `json:"grand_totals"`
}

// window: periyoda göre [start, end) aralığı
func window(period string, count int, now time.Time) (string, time.Time, time.Time) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	switch period {
	case "weekly":
		// hafta pazartesi başlar
		offset := (int(today.Weekday()) + 6) % 7
		weekStart := today.AddDate(0, 0, -offset)
		return period, weekStart.AddDate(0, 0, -7*(count-1)), weekStart.AddDate(0, 0, 7)
	case "monthly":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return period, monthStart.AddDate(0, -(count - 1), 0), monthStart.AddDate(0, 1, 0)
	default:
		return "daily", today.AddDate(0, 0, -(count - 1)), today.AddDate(0, 0, 1)
	}
}

func bucketOf(period string, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case "weekly":
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

func (p *SalesChartPoint) add(method models.PaymentMethod, amount decimal.Decimal) {
	switch method {
	case models.PaymentCash:
		p.Cash = p.Cash.Add(amount)
	case models.PaymentCard:
		p.Card = p.Card.Add(amount)
	case models.PaymentCari:
		p.Cari = p.Cari.Add(amount)
	}
	p.Total = p.Total.Add(amount)
	p.Orders++
}

// SalesChart: şubenin satışlarını periyot ve ödeme yöntemine göre toplar.
// Satışı olmayan periyotlar sıfır olarak döner.
func SalesChart(ctx context.Context, db *gorm.DB, branchID uint, period string, count int, now time.Time) (*SalesChartResponse, error) {
	period, start, end := window(period, count, now)

	type row struct {
		PaymentMethod models.PaymentMethod
		FinalAmount   decimal.Decimal
		CreatedAt     time.Time
	}
	var rows []row
	err := db.WithContext(ctx).Model(&models.Order{}).
		Select("payment_method, final_amount, created_at").
		Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, start, end).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Persistence("satış verisi toplanamadı", err)
	}

	buckets := map[time.Time]*SalesChartPoint{}
	for b := start; b.Before(end); {
		buckets[b] = &SalesChartPoint{Label: b.Format("2006-01-02")}
		switch period {
		case "weekly":
			b = b.AddDate(0, 0, 7)
		case "monthly":
			b = b.AddDate(0, 1, 0)
		default:
			b = b.AddDate(0, 0, 1)
		}
	}

	grand := SalesChartPoint{Label: "toplam"}
	for _, r := range rows {
		p, ok := buckets[bucketOf(period, r.CreatedAt.In(now.Location()))]
		if !ok {
			continue
		}
		p.add(r.PaymentMethod, r.FinalAmount)
		grand.add(r.PaymentMethod, r.FinalAmount)
	}

	points := make([]SalesChartPoint, 0, len(buckets))
	for _, p := range buckets {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })

	return &SalesChartResponse{
		BranchID:    branchID,
		Period:      period,
		From:        start.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}, nil
}

// GET /api/dashboard/sales-chart?period=daily&count=7&branch_id=1
func SalesChartHandler(db *gorm.DB, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		period := c.Query("period", "daily")
		var count int
		if countStr := c.Query("count", ""); countStr == "" {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				count = 7
			}
		} else if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 || count > 366 {
			return fiber.NewError(fiber.StatusBadRequest, "count geçersiz")
		}

		resp, err := SalesChart(c.UserContext(), db, branchID, period, count, time.Now().In(loc))
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}
