package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	dErrors "foodbridge/pkg/domain-errors"
	mwauth "foodbridge/pkg/platform/middleware/auth"
)

// TokenClaims represents the JWT claims issued by the identity service.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 access tokens minted by the identity service.
// Token issuance is out of scope here.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the bound user ID.
func (v *JWTValidator) ValidateToken(tokenString string) (*mwauth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || claims.UserID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	return &mwauth.Claims{UserID: claims.UserID}, nil
}
