// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"xchangez/internal/database"
	"xchangez/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every connection to ":memory:" is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user named name with a unique email.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Surname:  "Test",
		Nick:     name,
		Email:    name + "@example.com",
		Password: "$2a$10$abcdefghijklmnopqrstuuJ0o6x0K5y0p3Z7Zq8m4rXb8Yb1u3Q2",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a published post by authorID.
func CreatePost(t testing.TB, db *gorm.DB, authorID uint, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:      authorID,
		Title:       title,
		Description: title + " description",
		Price:       10,
		IsActive:    true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateComment inserts a comment with an explicit id so trees can be built deterministically.
func CreateComment(t testing.TB, db *gorm.DB, id, postID, parentID, authorID uint) *models.Comment {
	t.Helper()
	c := &models.Comment{
		ID:        id,
		PostID:    postID,
		ParentID:  parentID,
		UserID:    authorID,
		Content:   "comment",
		CreatedAt: time.Now().Add(time.Duration(id) * time.Millisecond),
	}
	require.NoError(t, db.Create(c).Error)
	return c
}
