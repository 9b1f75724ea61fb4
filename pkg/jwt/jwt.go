package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Subject identifies who a session token is issued for.
// ID is the role-specific record (student id for students), UserID the auth identity.
type Subject struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Email    string
	UserType string
	Verified bool
}

// Claims represents JWT claims
type Claims struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"userId"`
	Email    string    `json:"email"`
	UserType string    `json:"userType"`
	Verified bool      `json:"verified"`
	jwt.RegisteredClaims
}

// JWTService handles JWT operations
type JWTService struct {
	secret        []byte
	sessionExpiry time.Duration
	issuer        string
}

var signJWTToken = func(token *jwt.Token, secret []byte) (string, error) {
	return token.SignedString(secret)
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string, sessionExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
		issuer:        "gradvillage",
	}
}

// SessionExpiry returns the lifetime of issued tokens.
func (s *JWTService) SessionExpiry() time.Duration {
	return s.sessionExpiry
}

// GenerateToken signs a session token for the subject.
func (s *JWTService) GenerateToken(sub Subject) (string, error) {
	now := time.Now()
	claims := &Claims{
		ID:       sub.ID,
		UserID:   sub.UserID,
		Email:    sub.Email,
		UserType: sub.UserType,
		Verified: sub.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sub.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return signJWTToken(token, s.secret)
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
