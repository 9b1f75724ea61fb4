package usecases_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
)

func TestAuth_StudentLoginAfterRegistration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.registerStudent(t, "login@example.com")

	resp, err := h.auth.Login(ctx, &entities.LoginInput{Email: " LOGIN@example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotNil(t, resp.Student)
	assert.Equal(t, student.ID, resp.Student.ID)
	assert.Equal(t, entities.UserRoleStudent, resp.User.Role)
	assert.True(t, resp.ExpiresAt.After(student.CreatedAt))

	claims, err := h.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, student.ID, claims.ID)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.True(t, claims.Verified)

	_, err = h.auth.Login(ctx, &entities.LoginInput{Email: "login@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = h.auth.Login(ctx, &entities.LoginInput{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	user, s, err := h.auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)
	require.NotNil(t, s)
	assert.Equal(t, student.ID, s.ID)
}

func TestAuth_RegistrationWithoutPasswordCannotLogIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	input := syntheticInput("nopass@example.com")
	input.RegistrationData.Password = ""
	_, err := h.registration.ProcessRegistrationPayment(ctx, input)
	require.NoError(t, err)

	_, err = h.auth.Login(ctx, &entities.LoginInput{Email: "nopass@example.com", Password: ""})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuth_RegisterDonor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.auth.RegisterDonor(ctx, &entities.RegisterDonorInput{Email: "Donor@Example.com", Name: " Dana ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "donor@example.com", resp.User.Email)
	assert.Equal(t, "Dana", resp.User.Name)
	assert.Equal(t, entities.UserRoleDonor, resp.User.Role)
	assert.Nil(t, resp.Student)

	claims, err := h.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, string(entities.UserRoleDonor), claims.UserType)
	assert.Equal(t, resp.User.ID, claims.ID)

	_, err = h.auth.RegisterDonor(ctx, &entities.RegisterDonorInput{Email: "donor@example.com", Name: "Dana", Password: "password123"})
	requireAppError(t, err, http.StatusConflict, domainerrors.CodeConflict)

	_, err = h.auth.RegisterDonor(ctx, &entities.RegisterDonorInput{Email: "short@example.com", Name: "Sam", Password: "short"})
	requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeInvalidInput)

	user, s, err := h.auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Nil(t, s)

	_, _, err = h.auth.Me(ctx, uuid.New())
	requireAppError(t, err, http.StatusUnauthorized, domainerrors.CodeUnauthorized)
}

func TestAuth_EnsureAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	admin, err := h.auth.EnsureAdmin(ctx, "Admin@GradVillage.org", "Ops", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, admin.Role)

	// Promoting again rotates the password.
	again, err := h.auth.EnsureAdmin(ctx, "admin@gradvillage.org", "", "new-admin-password")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
	assert.Equal(t, "Ops", again.Name)

	_, err = h.auth.Login(ctx, &entities.LoginInput{Email: "admin@gradvillage.org", Password: "admin-password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	resp, err := h.auth.Login(ctx, &entities.LoginInput{Email: "admin@gradvillage.org", Password: "new-admin-password"})
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleAdmin, resp.User.Role)

	_, err = h.auth.EnsureAdmin(ctx, "", "x", "admin-password")
	requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeInvalidInput)
}
