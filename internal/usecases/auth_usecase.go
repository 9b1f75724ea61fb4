package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/pkg/crypto"
	"gradvillage.backend/pkg/jwt"
	"gradvillage.backend/pkg/utils"
)

// AuthUsecase handles authentication business logic
type AuthUsecase struct {
	userRepo    repositories.UserRepository
	studentRepo repositories.StudentRepository
	jwtService  *jwt.JWTService
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	studentRepo repositories.StudentRepository,
	jwtService *jwt.JWTService,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:    userRepo,
		studentRepo: studentRepo,
		jwtService:  jwtService,
	}
}

// Login authenticates any role and returns a session token
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	user, err := u.userRepo.GetByEmail(ctx, utils.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// Accounts created without a password cannot log in until one is set
	if user.PasswordHash == "" || !crypto.CheckPassword(input.Password, user.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	return u.session(ctx, user)
}

// RegisterDonor creates a donor account and signs it in
func (u *AuthUsecase) RegisterDonor(ctx context.Context, input *entities.RegisterDonorInput) (*entities.AuthResponse, error) {
	email := utils.NormalizeEmail(input.Email)
	if len(input.Password) < minPasswordLen {
		return nil, domainerrors.FieldError("password", "password must be at least 8 characters")
	}

	_, err := u.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, domainerrors.Conflict("an account with this email already exists")
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &entities.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         entities.UserRoleDonor,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("an account with this email already exists")
		}
		return nil, err
	}

	return u.session(ctx, user)
}

// Me returns the signed-in user and, for students, the student record
func (u *AuthUsecase) Me(ctx context.Context, userID uuid.UUID) (*entities.User, *entities.Student, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("account no longer exists")
		}
		return nil, nil, err
	}
	if user.Role != entities.UserRoleStudent {
		return user, nil, nil
	}
	student, err := u.studentRepo.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, nil, err
	}
	return user, student, nil
}

// EnsureAdmin creates an admin account or promotes an existing one
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email, name, password string) (*entities.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, domainerrors.FieldError("email", "email is required")
	}
	if len(password) < minPasswordLen {
		return nil, domainerrors.FieldError("password", "password must be at least 8 characters")
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		user.Role = entities.UserRoleAdmin
		user.PasswordHash = hash
		if name != "" {
			user.Name = name
		}
		if err := u.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case errors.Is(err, domainerrors.ErrNotFound):
		user = &entities.User{Email: email, Name: name, PasswordHash: hash, Role: entities.UserRoleAdmin}
		if err := u.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	default:
		return nil, err
	}
}

func (u *AuthUsecase) session(ctx context.Context, user *entities.User) (*entities.AuthResponse, error) {
	sub := jwt.Subject{
		ID:       user.ID,
		UserID:   user.ID,
		Email:    user.Email,
		UserType: string(user.Role),
		Verified: true,
	}

	var student *entities.Student
	if user.Role == entities.UserRoleStudent {
		s, err := u.studentRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return nil, domainerrors.ErrInvalidCredentials
			}
			return nil, err
		}
		student = s
		sub.ID = s.ID
		sub.Verified = s.RegistrationCompleted()
	}

	token, err := u.jwtService.GenerateToken(sub)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(u.jwtService.SessionExpiry()),
		User:      user,
		Student:   student,
	}, nil
}
