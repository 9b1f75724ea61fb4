package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/pkg/jwt"
	"gradvillage.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for the auth identity
	UserIDKey = "userId"
	// SubjectIDKey is the context key for the role record (student id for students)
	SubjectIDKey = "subjectId"
	// UserEmailKey is the context key for user email
	UserEmailKey = "userEmail"
	// UserRoleKey is the context key for user role
	UserRoleKey = "userRole"
)

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, jwtService)
		if err != nil {
			logger.Warn(c.Request.Context(), "Authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present
// and lets anonymous requests through. A malformed or expired token is
// still rejected so clients notice stale sessions.
func OptionalAuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(AuthorizationHeader) == "" {
			c.Next()
			return
		}

		claims, err := bearerClaims(c, jwtService)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, jwtService *jwt.JWTService) (*jwt.Claims, error) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return nil, domainerrors.Unauthorized("Authorization header is required")
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return nil, domainerrors.Unauthorized("Invalid authorization format. Use: Bearer <token>")
	}

	claims, err := jwtService.ValidateToken(strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix)))
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, domainerrors.Unauthorized("Token has expired")
		}
		return nil, domainerrors.Unauthorized("Invalid token")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(SubjectIDKey, claims.ID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, claims.UserType)

	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID.String())
	c.Request = c.Request.WithContext(ctx)
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(c, UserIDKey)
}

// GetSubjectID gets the role record id (the student id for students).
func GetSubjectID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(c, SubjectIDKey)
}

func uuidFromContext(c *gin.Context, key string) (uuid.UUID, bool) {
	v, exists := c.Get(key)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetUserEmail gets the user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetUserRole gets the user role from context
func GetUserRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := GetUserRole(c)
		if !exists {
			response.Error(c, domainerrors.Unauthorized("User role not found"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}

		response.Error(c, domainerrors.Forbidden("Insufficient permissions"))
		c.Abort()
	}
}

// RequireAdmin creates a middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("admin")
}

// RequireStudent creates a middleware that requires student role
func RequireStudent() gin.HandlerFunc {
	return RequireRole("student")
}
