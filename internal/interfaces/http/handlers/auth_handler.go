package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/interfaces/http/response"
)

type authService interface {
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error)
	RegisterDonor(ctx context.Context, input *entities.RegisterDonorInput) (*entities.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*entities.User, *entities.Student, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase authService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase authService) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

// Login handles login for every role
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	authResponse, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidCredentials) {
			response.Error(c, domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeInvalidCredentials, "Invalid email or password", domainerrors.ErrInvalidCredentials))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, authResponse)
}

// RegisterDonor creates a donor account
// POST /api/auth/register-donor
func (h *AuthHandler) RegisterDonor(c *gin.Context) {
	var input entities.RegisterDonorInput
	if !bindJSON(c, &input) {
		return
	}

	authResponse, err := h.authUsecase.RegisterDonor(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, authResponse)
}

// Me returns the signed-in identity
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, student, err := h.authUsecase.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":    user,
		"student": student,
	})
}
