// Package service holds cross-cutting application services.
package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates the bearer tokens that bind API clients
// to their conversation.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
}

// NewAuthService builds an auth service over an HMAC secret.
func NewAuthService(jwtSecret string, ttl time.Duration) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret), ttl: ttl}
}

// IssueToken creates a signed token carrying the conversation ID.
func (s *AuthService) IssueToken(conversationID string) (string, error) {
	now := time.Now()
	claims := conversationClaims{
		ConversationID: conversationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "tabletalk",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a bearer token and returns its conversation ID.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	claims := &conversationClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.ConversationID == "" {
		return "", ErrInvalidToken
	}
	return claims.ConversationID, nil
}

type conversationClaims struct {
	ConversationID string `json:"conversation_id"`
	jwt.RegisteredClaims
}
