package catalog

import (
	"context"
	"testing"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/dbtest"
	"kahve-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewService(db, zerolog.Nop()), db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "espresso cekirdegi", NormalizeName("  ESPRESSO  Çekirdeği "))
	assert.Equal(t, "sut", NormalizeName("SÜT"))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestCreateIngredient(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ing, err := svc.CreateIngredient(ctx, IngredientInput{Name: " Yulaf Sütü ", Unit: "ml", Stock: dec("2000"), CostPerUnit: dec("0.08")})
	require.NoError(t, err)
	assert.Equal(t, "Yulaf Sütü", ing.Name)
	assert.Equal(t, "yulaf sutu", ing.NormalizedName)

	_, err = svc.CreateIngredient(ctx, IngredientInput{Name: "Yulaf Sütü", Unit: "ml"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateIngredient(ctx, IngredientInput{Name: "Şeker", Unit: "gram", Stock: dec("-1")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	found, err := svc.ListIngredients(ctx, "SUTU")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ing.ID, found[0].ID)
}

func TestDeleteIngredientRefusedWhileInRecipe(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	cup := dbtest.Ingredient(t, db, "Bardak", "adet", "10")
	lid := dbtest.Ingredient(t, db, "Kapak", "adet", "10")
	tea := dbtest.Product(t, db, "Çay", "20", "0")
	dbtest.Recipe(t, db, tea, "", dbtest.RecipeLine{Ingredient: cup, Quantity: "1"})

	_, err := svc.DeleteIngredient(ctx, cup.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	deleted, err := svc.DeleteIngredient(ctx, lid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kapak", deleted.Name)

	_, err = svc.GetIngredient(ctx, lid.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReceivePurchase(t *testing.T) {
	svc, db := newService(t)
	beans := dbtest.Ingredient(t, db, "Çekirdek", "gram", "100")

	ing, err := svc.ReceivePurchase(context.Background(), StockChange{IngredientID: beans.ID, Quantity: dec("1000"), UnitCost: dec("0.45"), UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "1100", ing.Stock.String())
	assert.Equal(t, "0.45", ing.CostPerUnit.String())

	var mv models.IngredientMovement
	require.NoError(t, db.Where("ingredient_id = ?", beans.ID).First(&mv).Error)
	assert.Equal(t, models.MovementPurchase, mv.Type)
	assert.Equal(t, "1000", mv.Quantity.String())

	_, err = svc.ReceivePurchase(context.Background(), StockChange{IngredientID: beans.ID, Quantity: dec("0")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.ReceivePurchase(context.Background(), StockChange{IngredientID: 999, Quantity: dec("1")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdjustRecordsDelta(t *testing.T) {
	svc, db := newService(t)
	milk := dbtest.Ingredient(t, db, "Süt", "ml", "5000")

	before, after, err := svc.Adjust(context.Background(), StockChange{IngredientID: milk.ID, Quantity: dec("4200"), Note: "akşam sayımı"})
	require.NoError(t, err)
	assert.Equal(t, "5000", before.Stock.String())
	assert.Equal(t, "4200", after.Stock.String())

	movements, err := svc.Movements(context.Background(), milk.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "-800", movements[0].Quantity.String())

	_, _, err = svc.Adjust(context.Background(), StockChange{IngredientID: milk.ID, Quantity: dec("-1")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecordWaste(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	branch := dbtest.Branch(t, db, "Moda")
	cup := dbtest.Ingredient(t, db, "Bardak", "adet", "3")

	entry, err := svc.RecordWaste(ctx, StockChange{IngredientID: cup.ID, BranchID: &branch.ID, Quantity: dec("2"), Note: "kırıldı"})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, "1", dbtest.IngredientStock(t, db, cup.ID).String())

	_, err = svc.RecordWaste(ctx, StockChange{IngredientID: cup.ID, BranchID: &branch.ID, Quantity: dec("2"), Note: "kırıldı"})
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Equal(t, "1", dbtest.IngredientStock(t, db, cup.ID).String())

	_, err = svc.RecordWaste(ctx, StockChange{IngredientID: cup.ID, BranchID: &branch.ID, Quantity: dec("1"), Note: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	list, err := svc.ListWaste(ctx, branch.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bardak", list[0].Ingredient.Name)

	var count int64
	db.Model(&models.IngredientMovement{}).Where("type = ?", models.MovementWaste).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateProductValidatesPrice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: "Latte", Price: models.PriceSpec{Kind: models.PriceTiered}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Latte", Price: models.PriceSpec{Kind: "free"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	p, err := svc.CreateProduct(ctx, ProductInput{
		Name:  "Latte",
		Price: models.PriceSpec{Kind: models.PriceTiered, Tiers: []models.PriceTier{{Size: "m", Amount: dec("75")}, {Size: "L", Amount: dec("90")}}},
	})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{"M", "L"}, p.Price.Sizes())

	missing := uint(42)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Mocha", CategoryID: &missing, Price: models.FlatPrice(dec("80"))})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateAndDeactivateProduct(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	cookie := dbtest.Product(t, db, "Kurabiye", "30", "12")

	newPrice := models.FlatPrice(dec("35"))
	name := "Yulaflı Kurabiye"
	before, after, err := svc.UpdateProduct(ctx, cookie.ID, ProductUpdate{Name: &name, Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "Kurabiye", before.Name)
	assert.Equal(t, name, after.Name)
	assert.Equal(t, "12", dbtest.ProductStock(t, db, cookie.ID).String())

	p, err := svc.DeactivateProduct(ctx, cookie.ID)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	p, err = svc.RestockProduct(ctx, cookie.ID, dec("8"))
	require.NoError(t, err)
	assert.Equal(t, "20", p.Stock.String())

	_, err = svc.DeactivateProduct(ctx, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCategories(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, "Sıcak İçecekler")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, "Sıcak İçecekler")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Çay", CategoryID: &cat.ID, Price: models.FlatPrice(dec("20"))})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Nil(t, reloaded.CategoryID)

	assert.True(t, apperr.Is(svc.DeleteCategory(ctx, cat.ID), apperr.KindNotFound))
}

func TestSaveRecipeReplacesItems(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	beans := dbtest.Ingredient(t, db, "Çekirdek", "gram", "100")
	milk := dbtest.Ingredient(t, db, "Süt", "ml", "1000")
	cup := dbtest.Ingredient(t, db, "Bardak", "adet", "50")
	latte := dbtest.Product(t, db, "Latte", "70", "0")

	r, err := svc.SaveRecipe(ctx, latte.ID, "m", []RecipeItemInput{
		{IngredientID: beans.ID, Quantity: dec("18")},
		{IngredientID: milk.ID, Quantity: dec("200")},
	})
	require.NoError(t, err)
	assert.Equal(t, "M", r.Size)
	assert.Len(t, r.Items, 2)

	r2, err := svc.SaveRecipe(ctx, latte.ID, "M", []RecipeItemInput{
		{IngredientID: beans.ID, Quantity: dec("18")},
		{IngredientID: cup.ID, Quantity: dec("1")},
	})
	require.NoError(t, err)
	assert.Equal(t, r.ID, r2.ID)
	require.Len(t, r2.Items, 2)

	var itemCount int64
	db.Model(&models.RecipeItem{}).Count(&itemCount)
	assert.EqualValues(t, 2, itemCount)

	generic, err := svc.SaveRecipe(ctx, latte.ID, "Standart", []RecipeItemInput{{IngredientID: cup.ID, Quantity: dec("1")}})
	require.NoError(t, err)
	assert.True(t, generic.IsGeneric())

	recipes, err := svc.ListRecipes(ctx, latte.ID)
	require.NoError(t, err)
	assert.Len(t, recipes, 2)

	_, err = svc.SaveRecipe(ctx, latte.ID, "L", []RecipeItemInput{{IngredientID: 999, Quantity: dec("1")}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.SaveRecipe(ctx, latte.ID, "L", []RecipeItemInput{{IngredientID: cup.ID, Quantity: dec("0")}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.SaveRecipe(ctx, latte.ID, "L", []RecipeItemInput{{IngredientID: cup.ID, Quantity: dec("1")}, {IngredientID: cup.ID, Quantity: dec("2")}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.DeleteRecipe(ctx, generic.ID)
	require.NoError(t, err)
	recipes, err = svc.ListRecipes(ctx, latte.ID)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}
