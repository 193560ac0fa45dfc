package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonMapsNotFoundEntities(t *testing.T) {
	assert.Equal(t, "invalid-product", NotFound(EntityProduct, 3).Reason())
	assert.Equal(t, "invalid-customer", NotFound(EntityCustomer, 3).Reason())
	assert.Equal(t, "not-found", NotFound(EntityIngredient, 3).Reason())
	assert.Equal(t, "insufficient-stock", InsufficientStock(EntityIngredient, 1, "Süt").Reason())
	assert.Equal(t, "internal", Persistence("x", errors.New("db")).Reason())
	assert.Equal(t, "validation", Validation("bad").Reason())
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", InsufficientStock(EntityProduct, 7, "Ayran"))
	assert.True(t, Is(err, KindInsufficientStock))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestPersistenceUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("sipariş kaydedilemedi", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
