package cari

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/dbtest"
	"kahve-backend/internal/events"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "cari-test-secret-cari-test-secret-xx"

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) { p.events = append(p.events, e) }
func (p *recordingPublisher) Close() error           { return nil }

func newTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *Handlers, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	h := &Handlers{
		Ledger: NewLedger(db, zerolog.Nop()),
		Audit:  audit.NewRecorder(db, zerolog.Nop()),
		Events: pub,
	}
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	api := app.Group("/api", auth.JWTMiddleware(testSecret))
	api.Post("/customers", h.CreateCustomer())
	api.Get("/cari", h.ListAccounts())
	api.Get("/cari/:customerId", h.GetAccount())
	api.Post("/cari/payments", h.RecordPayment())
	api.Post("/cari/debits", h.RecordDebit())
	return app, h, pub
}

func cashierToken(t *testing.T, db *gorm.DB, branchID uint) string {
	t.Helper()
	u := models.User{Name: "Kasa 1", Email: fmt.Sprintf("kasa%d@test.local", branchID), PasswordHash: "x", Role: models.RoleCashier, BranchID: &branchID}
	require.NoError(t, db.Create(&u).Error)
	token, err := auth.GenerateToken(testSecret, &u)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestPaymentEndpoint(t *testing.T) {
	db := dbtest.New(t)
	branch := dbtest.Branch(t, db, "Moda")
	customer := dbtest.Customer(t, db, "Mehmet")
	app, h, pub := newTestApp(t, db)
	token := cashierToken(t, db, branch.ID)

	resp, body := doJSON(t, app, http.MethodPost, "/api/cari/debits", token,
		fmt.Sprintf(`{"customer_id": %d, "amount": "150"}`, customer.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "150.00", body["balance"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/cari/payments", token,
		fmt.Sprintf(`{"customer_id": %d, "amount": "50", "description": "nakit tahsilat"}`, customer.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "100.00", body["balance"])

	h.Audit.Wait()
	var logs int64
	db.Model(&models.AuditLog{}).Where("entity_type = ?", "cari").Count(&logs)
	assert.EqualValues(t, 2, logs)

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.TypeCariDebit, pub.events[0].Type)
	assert.Equal(t, events.TypeCariPayment, pub.events[1].Type)

	resp, body = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/cari/%d", customer.ID), token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100.00", body["balance"])
	assert.Len(t, body["transactions"], 2)
}

func TestPaymentEndpointRejectsBadInput(t *testing.T) {
	db := dbtest.New(t)
	branch := dbtest.Branch(t, db, "Moda")
	app, _, pub := newTestApp(t, db)
	token := cashierToken(t, db, branch.ID)

	resp, body := doJSON(t, app, http.MethodPost, "/api/cari/payments", token, `{"customer_id": 42, "amount": "10"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "invalid-customer", body["reason"])

	resp, body = doJSON(t, app, http.MethodPost, "/api/cari/payments", token, `{"customer_id": 42, "amount": "-10"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["reason"])

	other := branch.ID + 1
	resp, _ = doJSON(t, app, http.MethodPost, "/api/cari/payments", token,
		fmt.Sprintf(`{"customer_id": 42, "amount": "10", "branch_id": %d}`, other))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.Empty(t, pub.events)
}
