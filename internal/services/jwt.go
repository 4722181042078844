package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wellness-service/internal/models"
)

// JWTService signs and validates session tokens
type JWTService struct {
	secret     string
	expiryTime time.Duration
}

// Claims are the token payload. The session id ties the token to a
// revocable server-side session.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"function"`
	SessionID uuid.UUID `json:"session_id"`
	Verified  bool      `json:"verified"`
	jwt.RegisteredClaims
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, expiryDays int) *JWTService {
	return &JWTService{
		secret:     secret,
		expiryTime: time.Duration(expiryDays) * 24 * time.Hour,
	}
}

// GenerateToken creates a signed token for a user session
func (j *JWTService) GenerateToken(user *models.User, sessionID uuid.UUID, now time.Time) (string, error) {
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
		Verified:  user.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiryTime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates and parses a session token
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// TokenExpiry returns the configured session lifetime
func (j *JWTService) TokenExpiry() time.Duration {
	return j.expiryTime
}
