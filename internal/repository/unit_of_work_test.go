package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"xchangez/internal/models"
	"xchangez/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUnitOfWork_StagesUntilCommit(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	uow := NewUnitOfWork(db)
	u := &models.User{Name: "ana", Email: "ana@example.com", Password: "x"}
	uow.Create(u)
	assert.Equal(t, 1, uow.Pending())

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)

	affected, err := uow.Commit(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.NotZero(t, u.ID)
	assert.Zero(t, uow.Pending())

	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUnitOfWork_UpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "ana")

	u.Surname = "Changed"
	_, err := NewUnitOfWork(db).Update(u).Commit(ctx)
	require.NoError(t, err)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, u.ID).Error)
	assert.Equal(t, "Changed", reloaded.Surname)

	affected, err := NewUnitOfWork(db).Delete(&models.User{ID: u.ID}).Commit(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	assert.ErrorIs(t, db.First(&reloaded, u.ID).Error, gorm.ErrRecordNotFound)
}

func TestUnitOfWork_UpdateColumnsLeavesOtherColumns(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "ana")
	post := testutil.CreatePost(t, db, author.ID, "bike")
	require.True(t, post.IsActive)

	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Update("visits", 9).Error)

	post.Title = "road bike"
	post.IsActive = false
	_, err := NewUnitOfWork(db).UpdateColumns(post, "title", "is_active").Commit(ctx)
	require.NoError(t, err)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "road bike", reloaded.Title)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, 9, reloaded.Visits)
}

func TestUnitOfWork_RollsBackOnFailure(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	testutil.CreateUser(t, db, "ana")

	uow := NewUnitOfWork(db).
		Create(&models.User{Name: "ben", Email: "ben@example.com", Password: "x"}).
		Create(&models.User{Name: "dup", Email: "ana@example.com", Password: "x"})

	_, err := uow.Commit(ctx)
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "create user", perr.Op)
	assert.True(t, IsUniqueViolation(err))
	assert.Zero(t, uow.Pending())

	var n int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ben@example.com").Count(&n).Error)
	assert.Zero(t, n, "first insert must be rolled back")
}

func TestUnitOfWork_DeleteWhere(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "ana")
	p1 := testutil.CreatePost(t, db, author.ID, "one")
	p2 := testutil.CreatePost(t, db, author.ID, "two")
	testutil.CreateComment(t, db, 1, p1.ID, 0, author.ID)
	testutil.CreateComment(t, db, 2, p1.ID, 1, author.ID)
	testutil.CreateComment(t, db, 3, p2.ID, 0, author.ID)

	affected, err := NewUnitOfWork(db).
		DeleteWhere(&models.Comment{}, Where("post_id = ?", p1.ID)).
		Delete(&models.Post{ID: p1.ID}).
		Commit(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	var left int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&left).Error)
	assert.EqualValues(t, 1, left)

	_, err = NewUnitOfWork(db).DeleteWhere(&models.Comment{}, nil).Commit(ctx)
	assert.ErrorIs(t, err, gorm.ErrMissingWhereClause)
}

func TestUnitOfWork_EmptyCommit(t *testing.T) {
	affected, err := NewUnitOfWork(testutil.NewDB(t)).Commit(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUnitOfWork_CommitStoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "follows"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := NewUnitOfWork(db).
		Create(&models.Follow{FollowerID: 1, FollowedID: 2}).
		Commit(context.Background())
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "create follow", perr.Op)
	assert.True(t, IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
}
