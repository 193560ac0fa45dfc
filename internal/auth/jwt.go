package auth

import (
	"errors"
	"fmt"
	"time"

	"kahve-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "kahve-backend"
	TokenTTL    = 12 * time.Hour // bir vardiya + pay
)

var ErrInvalidToken = errors.New("geçersiz veya süresi dolmuş token")

// JWTCustomClaims: token'a gömülen kullanıcı bilgisi. Ad ve email audit
// kayıtlarında DB'ye gitmeden kullanılır.
type JWTCustomClaims struct {
	UserID   uint            `json:"user_id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	BranchID *uint           `json:"branch_id"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		BranchID: user.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken: imza, süre ve issuer kontrolü; rolü bilinmeyen token reddedilir
func ParseToken(secret, raw string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	if claims.Role != models.RoleSuperAdmin && claims.BranchID == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
