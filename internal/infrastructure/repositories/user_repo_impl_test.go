package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
)

func TestUserRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &entities.User{
		Email:        "a@gradvillage.org",
		Name:         "Alice",
		PasswordHash: "hash",
		Role:         entities.UserRoleAdmin,
	}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)
	require.Equal(t, entities.UserRoleAdmin, byID.Role)

	byEmail, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	u.Name = "Alice Updated"
	u.PasswordHash = "hash2"
	require.NoError(t, repo.Update(ctx, u))

	updated, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice Updated", updated.Name)
	require.Equal(t, "hash2", updated.PasswordHash)
}

func TestUserRepository_Errors(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "none@x.io")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = repo.Update(ctx, &entities.User{ID: uuid.New(), Name: "ghost", Role: entities.UserRoleDonor})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, repo.Create(ctx, &entities.User{Email: "dup@x.io", Name: "D", Role: entities.UserRoleDonor}))
	err = repo.Create(ctx, &entities.User{Email: "dup@x.io", Name: "D2", Role: entities.UserRoleDonor})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}
