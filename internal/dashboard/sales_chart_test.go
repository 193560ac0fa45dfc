package dashboard

import (
	"context"
	"testing"
	"time"

	"kahve-backend/internal/dbtest"
	"kahve-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func order(t *testing.T, db *gorm.DB, branchID uint, method models.PaymentMethod, amount string, at time.Time) {
	t.Helper()
	o := models.Order{
		Number:        uuid.NewString(),
		BranchID:      branchID,
		Status:        models.OrderCompleted,
		PaymentMethod: method,
		TotalAmount:   dbtest.Dec(amount),
		FinalAmount:   dbtest.Dec(amount),
		CreatedAt:     at,
	}
	require.NoError(t, db.Omit("Branch", "Customer").Create(&o).Error)
}

func TestSalesChartDaily(t *testing.T) {
	db := dbtest.New(t)
	branch := dbtest.Branch(t, db, "Moda")
	other := dbtest.Branch(t, db, "Cihangir")

	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC) // çarşamba
	order(t, db, branch.ID, models.PaymentCash, "90", now.Add(-2*time.Hour))
	order(t, db, branch.ID, models.PaymentCard, "110.50", now.Add(-3*time.Hour))
	order(t, db, branch.ID, models.PaymentCari, "40", now.AddDate(0, 0, -2))
	order(t, db, branch.ID, models.PaymentCash, "999", now.AddDate(0, 0, -10))
	order(t, db, other.ID, models.PaymentCash, "500", now)

	resp, err := SalesChart(context.Background(), db, branch.ID, "daily", 3, now)
	require.NoError(t, err)
	assert.Equal(t, "daily", resp.Period)
	assert.Equal(t, "2026-03-16", resp.From)
	assert.Equal(t, "2026-03-18", resp.To)
	require.Len(t, resp.Points, 3)

	assert.Equal(t, "2026-03-16", resp.Points[0].Label)
	assert.Equal(t, "40.00", resp.Points[0].Cari.StringFixed(2))
	assert.Equal(t, 0, resp.Points[1].Orders)

	today := resp.Points[2]
	assert.Equal(t, "90.00", today.Cash.StringFixed(2))
	assert.Equal(t, "110.50", today.Card.StringFixed(2))
	assert.Equal(t, "200.50", today.Total.StringFixed(2))
	assert.Equal(t, 2, today.Orders)

	assert.Equal(t, "240.50", resp.GrandTotals.Total.StringFixed(2))
	assert.Equal(t, 3, resp.GrandTotals.Orders)
}

func TestSalesChartWeeklyAndMonthlyWindows(t *testing.T) {
	now := time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

	period, start, end := window("weekly", 2, now)
	assert.Equal(t, "weekly", period)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC), end)

	period, start, end = window("monthly", 3, now)
	assert.Equal(t, "monthly", period)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), end)

	period, _, _ = window("yearly", 1, now)
	assert.Equal(t, "daily", period)
}
