package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStatus is the outcome of verifying a session token
type TokenStatus int

const (
	TokenOK TokenStatus = iota
	TokenExpired
	TokenInvalid
)

func (s TokenStatus) String() string {
	switch s {
	case TokenOK:
		return "ok"
	case TokenExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// JWTClaims custom claims for JWT
type JWTClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTUtil provides JWT generation and validation
type JWTUtil struct {
	secretKey  string
	expiration time.Duration
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string, expiration time.Duration) *JWTUtil {
	return &JWTUtil{secretKey: secretKey, expiration: expiration}
}

// GenerateToken generates a new JWT token carrying the account id
func (ju *JWTUtil) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ju.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ju.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates the JWT token
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ju.secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Verify checks tokenString and reports the outcome as a TokenStatus.
// Claims are only returned with TokenOK.
func (ju *JWTUtil) Verify(tokenString string) (*JWTClaims, TokenStatus) {
	if tokenString == "" {
		return nil, TokenInvalid
	}
	claims, err := ju.ValidateToken(tokenString)
	switch {
	case err == nil:
		return claims, TokenOK
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, TokenExpired
	default:
		return nil, TokenInvalid
	}
}
