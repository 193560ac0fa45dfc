package stock

import (
	"testing"

	"kahve-backend/internal/apperr"
	"kahve-backend/internal/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementIngredient(t *testing.T) {
	db := dbtest.New(t)
	cup := dbtest.Ingredient(t, db, "Bardak", "adet", "2")

	require.NoError(t, DecrementIngredient(db, cup.ID, dbtest.Dec("2")))
	assert.True(t, dbtest.IngredientStock(t, db, cup.ID).IsZero())

	err := DecrementIngredient(db, cup.ID, dbtest.Dec("1"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Contains(t, err.Error(), "Bardak")
	assert.True(t, dbtest.IngredientStock(t, db, cup.ID).IsZero())

	err = DecrementIngredient(db, 404, dbtest.Dec("1"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDecrementProduct(t *testing.T) {
	db := dbtest.New(t)
	soda := dbtest.Product(t, db, "Soda", "25", "3")

	require.NoError(t, DecrementProduct(db, soda.ID, dbtest.Dec("2")))
	err := DecrementProduct(db, soda.ID, dbtest.Dec("2"))
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Equal(t, "1", dbtest.ProductStock(t, db, soda.ID).String())

	require.NoError(t, IncrementProduct(db, soda.ID, dbtest.Dec("4")))
	assert.Equal(t, "5", dbtest.ProductStock(t, db, soda.ID).String())
}

func TestIncrementUnknown(t *testing.T) {
	db := dbtest.New(t)
	assert.True(t, apperr.Is(IncrementIngredient(db, 1, dbtest.Dec("1")), apperr.KindNotFound))
	assert.True(t, apperr.Is(IncrementProduct(db, 1, dbtest.Dec("1")), apperr.KindNotFound))
}
