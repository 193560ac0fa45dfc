package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/dbtest"
	"kahve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLoadsRecipesFromDatabase(t *testing.T) {
	db := dbtest.New(t)
	beans := dbtest.Ingredient(t, db, "Espresso Çekirdeği", "gram", "10")
	cup := dbtest.Ingredient(t, db, "Orta Bardak", "adet", "5")
	latte := dbtest.Product(t, db, "Latte", "0", "0")
	dbtest.Recipe(t, db, latte, "M", dbtest.RecipeLine{Ingredient: beans, Quantity: "2"}, dbtest.RecipeLine{Ingredient: cup, Quantity: "1"})

	svc := NewService(db)
	v, err := svc.Check(context.Background(), latte.ID, "M")
	require.NoError(t, err)
	assert.True(t, v.Availability.Available)
	assert.EqualValues(t, 5, *v.Availability.Portions)

	require.NoError(t, db.Model(&models.Ingredient{}).Where("id = ?", cup.ID).Update("stock", 0).Error)
	v, err = svc.Check(context.Background(), latte.ID, "M")
	require.NoError(t, err)
	assert.False(t, v.Availability.Available)

	_, err = svc.Check(context.Background(), 9999, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCatalogSkipsInactiveAndResolvesSizes(t *testing.T) {
	db := dbtest.New(t)
	small := dbtest.Ingredient(t, db, "Küçük Bardak", "adet", "0")
	large := dbtest.Ingredient(t, db, "Büyük Bardak", "adet", "3")

	americano := models.Product{
		Name:     "Americano",
		Price:    models.TieredPrice(models.PriceTier{Size: "S", Amount: dbtest.Dec("60")}, models.PriceTier{Size: "L", Amount: dbtest.Dec("80")}),
		IsActive: true,
	}
	require.NoError(t, db.Create(&americano).Error)
	dbtest.Recipe(t, db, americano, "S", dbtest.RecipeLine{Ingredient: small, Quantity: "1"})
	dbtest.Recipe(t, db, americano, "L", dbtest.RecipeLine{Ingredient: large, Quantity: "1"})

	old := dbtest.Product(t, db, "Eski Kurabiye", "20", "4")
	require.NoError(t, db.Model(&old).Update("is_active", false).Error)

	svc := NewService(db)
	views, err := svc.Catalog(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Americano", views[0].Name)
	assert.True(t, views[0].Availability.Available)
	assert.False(t, views[0].Sizes["S"].Available)
	assert.True(t, views[0].Sizes["L"].Available)

	views, err = svc.Catalog(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestCheckHandler(t *testing.T) {
	db := dbtest.New(t)
	water := dbtest.Product(t, db, "Su", "10", "0")

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zerolog.Nop())})
	app.Get("/api/products/:id/availability", CheckHandler(NewService(db)))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products/%d/availability", water.ID), nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Availability struct {
			Available bool   `json:"available"`
			Source    string `json:"source"`
		} `json:"availability"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Availability.Available)
	assert.Equal(t, "direct", body.Availability.Source)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/products/777/availability", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckReportsDeactivatedProductUnavailable(t *testing.T) {
	db := dbtest.New(t)
	cookie := dbtest.Product(t, db, "Eski Kurabiye", "20", "10")
	require.NoError(t, db.Model(&cookie).Update("is_active", false).Error)

	v, err := NewService(db).Check(context.Background(), cookie.ID, "")
	require.NoError(t, err)
	assert.False(t, v.IsActive)
	assert.False(t, v.Availability.Available)
	assert.Equal(t, SourceInactive, v.Availability.Source)
	assert.Equal(t, "10.00", v.Availability.DirectStock.StringFixed(2))
}
