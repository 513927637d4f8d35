package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xchangez/internal/models"
	"xchangez/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Nick:     "maria_s",
		Name:     "Maria",
		Surname:  "Sosa",
		Email:    "  Maria@Example.com ",
		Password: "secret123",
	}
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	tokens := testTokens()
	svc := NewUserService(db, tokens, testSink(t))
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.Empty(t, user.Password)
	assert.Equal(t, "Maria Sosa", user.FullName)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.True(t, strings.HasPrefix(stored.Password, "$2"))

	_, err = svc.Register(ctx, validRegistration())
	require.True(t, models.IsCode(err, models.CodeValidation))
	assert.Contains(t, err.Error(), "email already in use")

	token, err := svc.Login(ctx, "maria@example.com", "secret123")
	require.NoError(t, err)
	claims, err := tokens.Parse(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, token.Expiration.IsZero())

	_, err = svc.Login(ctx, "maria@example.com", "wrong-pass1")
	require.True(t, models.IsCode(err, models.CodeValidation))
	assert.Contains(t, err.Error(), "credentials do not match")

	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestUserService_RegisterValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, testTokens(), testSink(t))

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"weak password", func(in *RegisterInput) { in.Password = "short" }},
		{"bad nick", func(in *RegisterInput) { in.Nick = "has spaces" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestUserService_ListAndGetCarryAggregates(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, testTokens(), testSink(t))
	ctx := context.Background()

	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")
	require.NoError(t, db.Create(&models.Rating{RaterID: b.ID, RatedID: a.ID, Amount: 3}).Error)
	require.NoError(t, db.Create(&models.Rating{RaterID: c.ID, RatedID: a.ID, Amount: 5}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: b.ID, FollowedID: a.ID}).Error)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.NotNil(t, users[0].Rating)
	assert.InDelta(t, 4.0, *users[0].Rating, 1e-9)
	assert.Equal(t, 0.0, *users[1].Rating)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.FollowerCount)
	assert.Equal(t, int64(0), got.FollowingCount)

	_, err = svc.Get(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserService_UpdateProfileAndPrivacy(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewUserService(db, testTokens(), testSink(t))
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "pat")

	name := "Patricia"
	got, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Patricia", got.Name)
	assert.Equal(t, "Test", got.Surname)

	empty := ""
	_, err = svc.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Name: &empty})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	got, err = svc.SetPrivacy(ctx, u.ID, true)
	require.NoError(t, err)
	require.NotNil(t, got.IsPrivate)
	assert.True(t, *got.IsPrivate)
}

func TestUserService_UpdateImageReplacesPreviousFile(t *testing.T) {
	db := testutil.NewDB(t)
	sink := testSink(t)
	svc := NewUserService(db, testTokens(), sink)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "img")

	first, err := svc.UpdateImage(ctx, u.ID, ImageAvatar, Upload{Filename: "me.png", Data: pngBytes(t)})
	require.NoError(t, err)
	require.NotNil(t, first.AvatarPath)
	assert.True(t, strings.HasPrefix(*first.AvatarPath, "http://media.test/multimedia/usuarios/"))

	dir := filepath.Join(sink.Root(), "multimedia", "usuarios", "1")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	second, err := svc.UpdateImage(ctx, u.ID, ImageAvatar, Upload{Filename: "again.png", Data: pngBytes(t)})
	require.NoError(t, err)
	assert.NotEqual(t, *first.AvatarPath, *second.AvatarPath)
	assert.Nil(t, second.CoverPath)

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.UpdateImage(ctx, u.ID, ImageCover, Upload{Filename: "notes.txt", Data: []byte("plain text")})
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestUserService_UpdateImageKeepsPreviousFileOnFailedCommit(t *testing.T) {
	db := testutil.NewDB(t)
	sink := testSink(t)
	svc := NewUserService(db, testTokens(), sink)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "img")

	first, err := svc.UpdateImage(ctx, u.ID, ImageAvatar, Upload{Filename: "me.png", Data: pngBytes(t)})
	require.NoError(t, err)
	dir := filepath.Join(sink.Root(), "multimedia", "usuarios", "1")
	before, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, before, 1)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_users", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err = svc.UpdateImage(ctx, u.ID, ImageAvatar, Upload{Filename: "again.png", Data: pngBytes(t)})
	assert.True(t, models.IsCode(err, models.CodeInternal), "got %v", err)

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].Name(), after[0].Name())

	current, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, current.AvatarPath)
	assert.Equal(t, *first.AvatarPath, *current.AvatarPath)
}

func TestParseImageKind(t *testing.T) {
	k, err := ParseImageKind("avatar")
	require.NoError(t, err)
	assert.Equal(t, ImageAvatar, k)
	k, err = ParseImageKind("2")
	require.NoError(t, err)
	assert.Equal(t, ImageCover, k)
	_, err = ParseImageKind("banner")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}
