package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
)

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}
	users := NewUserRepository(db)

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return users.Create(ctx, &entities.User{Email: "one@x.io", Name: "One", Role: entities.UserRoleDonor})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("users").Count(&count).Error)
	require.Equal(t, int64(1), count)

	err = u.Do(context.Background(), func(ctx context.Context) error {
		if err := users.Create(ctx, &entities.User{Email: "two@x.io", Name: "Two", Role: entities.UserRoleDonor}); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	require.NoError(t, db.Table("users").Count(&count).Error)
	require.Equal(t, int64(1), count, "second insert must be rolled back")
}

func TestUnitOfWork_NestedDoJoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}
	users := NewUserRepository(db)

	err := u.Do(context.Background(), func(ctx context.Context) error {
		inner := u.Do(ctx, func(ctx context.Context) error {
			return users.Create(ctx, &entities.User{Email: "nested@x.io", Name: "N", Role: entities.UserRoleDonor})
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})
	require.Error(t, err)

	_, err = users.GetByEmail(context.Background(), "nested@x.io")
	require.Error(t, err, "inner write must roll back with the outer transaction")
}

func TestUnitOfWork_WithLockAndGetDB(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}
	users := NewUserRepository(db)
	require.NoError(t, users.Create(context.Background(), &entities.User{Email: "lock@x.io", Name: "L", Role: entities.UserRoleAdmin}))

	err := u.Do(context.Background(), func(ctx context.Context) error {
		_, err := users.GetByEmail(u.WithLock(ctx), "lock@x.io")
		return err
	})
	require.NoError(t, err)

	require.NotNil(t, u.GetDB(context.Background()))

	tx := db.Begin()
	txCtx := context.WithValue(context.Background(), txKey, tx)
	require.Equal(t, tx.Statement.ConnPool, u.GetDB(txCtx).Statement.ConnPool)
	tx.Rollback()
}

func TestUnitOfWork_DoBeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = u.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to begin transaction")
}

func TestUnitOfWork_DoCommitFailure_WithHook(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	origCommit := commitTx
	t.Cleanup(func() { commitTx = origCommit })
	commitTx = func(*gorm.DB) error { return errors.New("commit failed") }

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return GetDB(ctx, db).Exec("INSERT INTO schools(id,name,created_at) VALUES (?,?,CURRENT_TIMESTAMP)", uuid.New().String(), "MIT").Error
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to commit transaction")

	var count int64
	require.NoError(t, db.Table("schools").Count(&count).Error)
	require.Equal(t, int64(0), count)
}
