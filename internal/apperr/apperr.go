// Package apperr: servis katmanının tipli hata sınıfları.
// HTTP katmanı bu sınıflara göre durum kodu ve "reason" döner.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindInsufficientStock
	KindNotFound
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInsufficientStock:
		return "insufficient-stock"
	case KindNotFound:
		return "not-found"
	case KindPersistence:
		return "internal"
	default:
		return "unknown"
	}
}

// Entity adları (NotFound ve InsufficientStock için)
const (
	EntityProduct    = "product"
	EntityIngredient = "ingredient"
	EntityCustomer   = "customer"
	EntityBranch     = "branch"
	EntityOrder      = "order"
	EntityRecipe     = "recipe"
	EntityCari       = "cari"
	EntityCategory   = "category"
	EntityUser       = "user"
)

type Error struct {
	Kind    Kind
	Entity  string
	ID      uint
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason: çağırana dönen hata nedeni
func (e *Error) Reason() string {
	if e.Kind == KindNotFound {
		switch e.Entity {
		case EntityProduct:
			return "invalid-product"
		case EntityCustomer:
			return "invalid-customer"
		}
	}
	return e.Kind.String()
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: fmt.Sprintf("%s bulunamadı (id=%d)", entity, id)}
}

func InsufficientStock(entity string, id uint, name string) *Error {
	return &Error{Kind: KindInsufficientStock, Entity: entity, ID: id, Message: fmt.Sprintf("stok yetersiz: %s", name)}
}

func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus: hata sınıfının HTTP karşılığı
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindInsufficientStock:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
