package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims carries the caller identity the signing pipeline needs: who
// is acting and in what role. User management itself is outside this core.
type TokenClaims struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	IssuedAt time.Time
	ExpireAt time.Time
}

// Service validates bearer tokens at the API boundary
type Service interface {
	ValidateToken(token string) (*TokenClaims, error)
}

type jwtService struct {
	secret []byte
}

// NewJWTService creates a token validator over an HMAC secret
func NewJWTService(secret string) Service {
	return &jwtService{secret: []byte(secret)}
}

func (s *jwtService) ValidateToken(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	tc := &TokenClaims{UserID: userID}
	if email, ok := claims["email"].(string); ok {
		tc.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		tc.Role = role
	}
	if iat, ok := claims["iat"].(float64); ok {
		tc.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		tc.ExpireAt = time.Unix(int64(exp), 0)
	}

	return tc, nil
}
