// Package availability: bir ürünün şu an satılabilir olup olmadığını
// stok ve reçete durumundan hesaplar. Yan etkisi yoktur.
package availability

import (
	"errors"

	"kahve-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceDirect   Source = "direct" // reçetesiz ürün, Product.Stock
	SourceRecipe   Source = "recipe"
	SourceNone     Source = "none" // istenen boyut için reçete yok
	SourceInactive Source = "inactive"
)

var (
	// ErrSizeRequired: ürünün sadece boyutlu reçeteleri var, boyut seçilmemiş
	ErrSizeRequired = errors.New("bu ürün için boyut seçilmeli")
	// ErrNoRecipeForSize: ne o boyutun ne de jenerik reçete var
	ErrNoRecipeForSize = errors.New("bu boyut için reçete yok")
)

type IngredientCheck struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Stock      decimal.Decimal `json:"stock"`
	Required   decimal.Decimal `json:"required"`
	Sufficient bool            `json:"sufficient"`
	LowStock   bool            `json:"low_stock"`
}

type Result struct {
	Available   bool              `json:"available"`
	Source      Source            `json:"source"`
	RecipeID    *uint             `json:"recipe_id,omitempty"`
	Size        string            `json:"size"`
	DirectStock decimal.Decimal   `json:"direct_stock"`
	Portions    *int64            `json:"portions"` // nil: sınırsız (boş reçete)
	LowStock    bool              `json:"low_stock"`
	Ingredients []IngredientCheck `json:"ingredients,omitempty"`
}

// SelectRecipe: satışta kullanılacak reçete.
//
// Boyut verildiyse önce tam eşleşme, yoksa jenerik reçete; ikisi de yoksa
// ErrNoRecipeForSize. Boyut verilmediyse jenerik reçete, yoksa ErrSizeRequired.
// Ürünün hiç reçetesi yoksa (nil, nil) döner, doğrudan stok kullanılır.
func SelectRecipe(recipes []models.Recipe, size string) (*models.Recipe, error) {
	if len(recipes) == 0 {
		return nil, nil
	}
	size = models.NormalizeSize(size)

	var generic *models.Recipe
	for i := range recipes {
		r := &recipes[i]
		if r.IsGeneric() {
			generic = r
			continue
		}
		if size != models.GenericSize && models.NormalizeSize(r.Size) == size {
			return r, nil
		}
	}
	if generic != nil {
		return generic, nil
	}
	if size == models.GenericSize {
		return nil, ErrSizeRequired
	}
	return nil, ErrNoRecipeForSize
}

// Resolve: product.Recipes[].Items[].Ingredient yüklenmiş olmalı.
// Pasif ürün stoğu ne olursa olsun satılamaz.
func Resolve(p models.Product, size string) Result {
	size = models.NormalizeSize(size)

	if !p.IsActive {
		zero := int64(0)
		return Result{Source: SourceInactive, Size: size, DirectStock: p.Stock, Portions: &zero}
	}

	if !p.HasRecipes() {
		portions := p.Stock.Floor().IntPart()
		if portions < 0 {
			portions = 0
		}
		return Result{
			Available:   p.Stock.IsPositive(),
			Source:      SourceDirect,
			Size:        size,
			DirectStock: p.Stock,
			Portions:    &portions,
			LowStock:    p.MinStock.IsPositive() && p.Stock.LessThanOrEqual(p.MinStock),
		}
	}

	recipe, err := SelectRecipe(p.Recipes, size)
	switch {
	case err == nil:
		res := evaluate(*recipe)
		res.Size = size
		res.DirectStock = p.Stock
		return res
	case errors.Is(err, ErrSizeRequired):
		// listeleme: herhangi bir boyut yapılabiliyorsa ürün satılabilir görünür
		var best *Result
		for _, r := range p.Recipes {
			res := evaluate(r)
			if best == nil || better(res, *best) {
				best = &res
			}
		}
		best.Size = models.NormalizeSize(sizeOf(p.Recipes, best.RecipeID))
		best.DirectStock = p.Stock
		return *best
	default:
		zero := int64(0)
		return Result{Source: SourceNone, Size: size, DirectStock: p.Stock, Portions: &zero}
	}
}

func evaluate(r models.Recipe) Result {
	id := r.ID
	res := Result{
		Available:   true,
		Source:      SourceRecipe,
		RecipeID:    &id,
		Ingredients: make([]IngredientCheck, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		ing := item.Ingredient
		check := IngredientCheck{
			ID:         item.IngredientID,
			Name:       ing.Name,
			Unit:       ing.Unit,
			Stock:      ing.Stock,
			Required:   item.Quantity,
			Sufficient: ing.Stock.GreaterThanOrEqual(item.Quantity),
			LowStock:   ing.MinStock.IsPositive() && ing.Stock.LessThanOrEqual(ing.MinStock),
		}
		if !check.Sufficient {
			res.Available = false
		}
		if check.LowStock {
			res.LowStock = true
		}
		if item.Quantity.IsPositive() {
			n := ing.Stock.Div(item.Quantity).Floor().IntPart()
			if n < 0 {
				n = 0
			}
			if res.Portions == nil || n < *res.Portions {
				res.Portions = &n
			}
		}
		res.Ingredients = append(res.Ingredients, check)
	}
	return res
}

func better(a, b Result) bool {
	if a.Available != b.Available {
		return a.Available
	}
	if a.Portions == nil {
		return b.Portions != nil
	}
	return b.Portions != nil && *a.Portions > *b.Portions
}

func sizeOf(recipes []models.Recipe, id *uint) string {
	if id == nil {
		return ""
	}
	for _, r := range recipes {
		if r.ID == *id {
			return r.Size
		}
	}
	return ""
}
