package dbtest

import (
	"testing"

	"kahve-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Branch(t testing.TB, db *gorm.DB, name string) models.Branch {
	t.Helper()
	b := models.Branch{Name: name}
	must(t, db.Create(&b).Error)
	return b
}

func Customer(t testing.TB, db *gorm.DB, name string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name}
	must(t, db.Create(&c).Error)
	return c
}

func Ingredient(t testing.TB, db *gorm.DB, name, unit, stock string) models.Ingredient {
	t.Helper()
	i := models.Ingredient{Name: name, Unit: unit, Stock: Dec(stock)}
	must(t, db.Create(&i).Error)
	return i
}

// Product: reçetesiz, doğrudan stoklu ürün
func Product(t testing.TB, db *gorm.DB, name, price, stock string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: models.FlatPrice(Dec(price)), Stock: Dec(stock), IsActive: true}
	must(t, db.Create(&p).Error)
	return p
}

// RecipeLine: reçete satırı kısayolu
type RecipeLine struct {
	Ingredient models.Ingredient
	Quantity   string
}

func Recipe(t testing.TB, db *gorm.DB, product models.Product, size string, lines ...RecipeLine) models.Recipe {
	t.Helper()
	r := models.Recipe{ProductID: product.ID, Size: models.NormalizeSize(size)}
	for _, l := range lines {
		r.Items = append(r.Items, models.RecipeItem{IngredientID: l.Ingredient.ID, Quantity: Dec(l.Quantity)})
	}
	must(t, db.Create(&r).Error)
	return r
}

func IngredientStock(t testing.TB, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var i models.Ingredient
	must(t, db.First(&i, id).Error)
	return i.Stock
}

func ProductStock(t testing.TB, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var p models.Product
	must(t, db.First(&p, id).Error)
	return p.Stock
}
