package importer

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/audit"
	"kahve-backend/internal/auth"
	"kahve-backend/internal/dbtest"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSecret = "importer-test-secret-0123456789abc"

func upload(t *testing.T, app *fiber.App, token, filename string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/ingredients/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestImportAndReportEndpoints(t *testing.T) {
	db := dbtest.New(t)
	h := &Handlers{Importer: New(db, zerolog.Nop()), Audit: audit.NewRecorder(db, zerolog.Nop())}
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	g := app.Group("/api/admin", auth.JWTMiddleware(testSecret))
	g.Post("/ingredients/import", h.ImportIngredients())
	g.Get("/reports/stock.xlsx", h.StockReport())

	admin := models.User{Name: "Patron", Email: "patron@test.local", PasswordHash: "x", Role: models.RoleSuperAdmin}
	require.NoError(t, db.Create(&admin).Error)
	token, err := auth.GenerateToken(testSecret, &admin)
	require.NoError(t, err)

	resp := upload(t, app, token, "stok.csv", []byte("ad,birim"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	buf := workbook(t,
		[]any{"Ad", "Birim", "Stok"},
		[]any{"Süt", "ml", "5000"},
		[]any{"Bardak", "adet", "200"},
	)
	resp = upload(t, app, token, "stok.xlsx", buf.Bytes())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Skipped)

	h.Audit.Wait()
	var logs []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditActionImport).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Description, "2 yeni")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/reports/stock.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "stok-raporu-")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetIngredients)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
