package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xchangez/internal/cache"
	"xchangez/internal/featureflags"
	"xchangez/internal/models"
	"xchangez/internal/repository"
	"xchangez/internal/storage"
	"xchangez/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostService(t *testing.T, db *gorm.DB, deps PostDeps) *PostService {
	t.Helper()
	if deps.Sink == nil {
		deps.Sink = testSink(t)
	}
	return NewPostService(db, deps)
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestPostService_DeleteRemovesCommentsAndMedia(t *testing.T) {
	db := testutil.NewDB(t)
	sink := testSink(t)
	svc := newPostService(t, db, PostDeps{Sink: sink})
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	post := testutil.CreatePost(t, db, owner.ID, "sofa")
	keep := testutil.CreatePost(t, db, owner.ID, "chair")

	testutil.CreateComment(t, db, 1, post.ID, 0, owner.ID)
	testutil.CreateComment(t, db, 2, post.ID, 1, owner.ID)
	testutil.CreateComment(t, db, 3, keep.ID, 0, owner.ID)

	_, err := svc.AttachMedia(ctx, owner.ID, post.ID, []Upload{
		{Filename: "front.png", Data: pngBytes(t)},
		{Filename: "back.png", Data: pngBytes(t)},
	})
	require.NoError(t, err)
	dir := filepath.Join(sink.Root(), "multimedia", "publicaciones", "1")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	err = svc.Delete(ctx, 999, post.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, owner.ID, post.ID))

	assert.Zero(t, countRows(t, db, &models.Comment{}, "post_id = ?", post.ID))
	assert.Zero(t, countRows(t, db, &models.Media{}, "post_id = ?", post.ID))
	assert.Zero(t, countRows(t, db, &models.Post{}, "id = ?", post.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Comment{}, "post_id = ?", keep.ID))

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	err = svc.Delete(ctx, owner.ID, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_AttachMediaDeduplicatesByNameAndExtension(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(t, db, PostDeps{})
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	first := testutil.CreatePost(t, db, owner.ID, "first")
	second := testutil.CreatePost(t, db, owner.ID, "second")

	created, err := svc.AttachMedia(ctx, owner.ID, first.ID, []Upload{{Filename: "photo.PNG", Data: pngBytes(t)}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "photo", created[0].Name)
	assert.Equal(t, ".png", created[0].Extension)

	again, err := svc.AttachMedia(ctx, owner.ID, first.ID, []Upload{{Filename: "photo.png", Data: []byte("new bytes")}})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, created[0].ID, again[0].ID)
	assert.Equal(t, int64(1), countRows(t, db, &models.Media{}, "post_id = ?", first.ID))

	_, err = svc.AttachMedia(ctx, owner.ID, second.ID, []Upload{{Filename: "photo.png", Data: pngBytes(t)}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), countRows(t, db, &models.Media{}, "post_id = ?", second.ID))

	batch, err := svc.AttachMedia(ctx, owner.ID, second.ID, []Upload{
		{Filename: "doc.pdf", Data: []byte("a")},
		{Filename: "doc.pdf", Data: []byte("b")},
	})
	require.NoError(t, err)
	assert.Len(t, batch, 1)
	assert.Equal(t, int64(2), countRows(t, db, &models.Media{}, "post_id = ?", second.ID))

	_, err = svc.AttachMedia(ctx, 999, first.ID, []Upload{{Filename: "x.png", Data: pngBytes(t)}})
	assert.True(t, models.IsCode(err, models.CodeForbidden))
}

func TestPostService_ReplacedMediaFileSurvivesFailedCommit(t *testing.T) {
	db := testutil.NewDB(t)
	sink := testSink(t)
	svc := newPostService(t, db, PostDeps{Sink: sink})
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	post := testutil.CreatePost(t, db, owner.ID, "camera")
	dir := filepath.Join(sink.Root(), filepath.FromSlash(storage.PostContainer(post.ID)))

	stored := func() map[string]string {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		out := make(map[string]string, len(entries))
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			out[e.Name()] = string(data)
		}
		return out
	}

	first, err := svc.AttachMedia(ctx, owner.ID, post.ID, []Upload{{Filename: "manual.pdf", Data: []byte("v1")}})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, map[string]string{"manual.pdf": "v1"}, stored())

	failing := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_media", func(tx *gorm.DB) {
		if failing && tx.Statement.Table == "media" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	failing = true
	_, err = svc.AttachMedia(ctx, owner.ID, post.ID, []Upload{{Filename: "manual.pdf", Data: []byte("v2")}})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"manual.pdf": "v1"}, stored())
	listed, err := svc.ListMedia(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, first[0].Path, listed[0].Path)

	failing = false
	again, err := svc.AttachMedia(ctx, owner.ID, post.ID, []Upload{{Filename: "manual.pdf", Data: []byte("v3")}})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.NotEqual(t, first[0].Path, again[0].Path)

	files := stored()
	require.Len(t, files, 1)
	assert.NotContains(t, files, "manual.pdf")
	for _, content := range files {
		assert.Equal(t, "v3", content)
	}
}

func TestPostService_GetCountsVisitAndBuildsTree(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(t, db, PostDeps{})
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	viewer := testutil.CreateUser(t, db, "viewer")
	post := testutil.CreatePost(t, db, owner.ID, "desk")
	testutil.CreateComment(t, db, 1, post.ID, 0, viewer.ID)
	testutil.CreateComment(t, db, 2, post.ID, 1, owner.ID)

	_, err := svc.AttachMedia(ctx, owner.ID, post.ID, []Upload{
		{Filename: "manual.pdf", Data: []byte("pdf")},
		{Filename: "cover.jpg", Data: []byte("jpg")},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Visits)
	assert.Equal(t, "owner Test", got.AuthorName)
	require.NotNil(t, got.Thumbnail)
	assert.Equal(t, "cover", got.Thumbnail.Name)
	require.Len(t, got.Comments, 1)
	require.Len(t, got.Comments[0].Replies, 1)

	got, err = svc.Get(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Visits)

	_, err = svc.Get(ctx, viewer.ID, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_DraftsOnlyForOwner(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(t, db, PostDeps{})
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	other := testutil.CreateUser(t, db, "other")

	draft, err := svc.Create(ctx, owner.ID, PostInput{Title: "draft", IsDraft: true}, nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "public", Price: 5}, nil)
	require.NoError(t, err)

	_, err = svc.Get(ctx, other.ID, draft.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = svc.Get(ctx, owner.ID, draft.ID)
	assert.NoError(t, err)

	mine, err := svc.ByAuthor(ctx, owner.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := svc.ByAuthor(ctx, other.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "public", theirs[0].Title)

	feed, err := svc.Feed(ctx, repository.FeedAll, 0, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	missing, err := svc.ByAuthor(ctx, owner.ID, 999)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestPostService_CreateValidatesAndUpdateKeepsIdentity(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(t, db, PostDeps{})
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")

	_, err := svc.Create(ctx, owner.ID, PostInput{Title: ""}, nil)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "ok", Price: -1}, nil)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	created, err := svc.Create(ctx, owner.ID, PostInput{Title: "bike", Price: 100},
		[]Upload{{Filename: "bike.png", Data: pngBytes(t)}})
	require.NoError(t, err)
	require.Len(t, created.Media, 1)
	require.NotNil(t, created.Thumbnail)
	require.NoError(t, svc.AddVisit(ctx, created.ID))

	updated, err := svc.Update(ctx, owner.ID, created.ID, PostInput{Title: "bike v2", Price: 90}, nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, owner.ID, updated.UserID)
	assert.Equal(t, 1, updated.Visits)
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Second)
	require.NotNil(t, updated.ModifiedAt)
	assert.Equal(t, "bike v2", updated.Title)

	_, err = svc.Update(ctx, 999, created.ID, PostInput{Title: "stolen"}, nil)
	assert.True(t, models.IsCode(err, models.CodeForbidden))
}

func TestPostService_UpdateKeepsConcurrentVisits(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(t, db, PostDeps{})
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	post := testutil.CreatePost(t, db, owner.ID, "lamp")
	require.NoError(t, db.Model(post).Update("visits", 3).Error)

	// A visit lands between Update loading the post and writing it back.
	armed, bumped := false, false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:visit_race", func(tx *gorm.DB) {
		if !armed || bumped || tx.Statement.Table != "posts" {
			return
		}
		bumped = true
		_ = tx.AddError(tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE posts SET visits = visits + 5 WHERE id = ?", post.ID).Error)
	}))

	armed = true
	view, err := svc.Update(ctx, owner.ID, post.ID, PostInput{Title: "desk lamp", Price: 12}, nil)
	require.NoError(t, err)
	require.True(t, bumped)
	assert.Equal(t, "desk lamp", view.Title)
	assert.Equal(t, 8, view.Visits)
}

func TestPostService_MediaRemoval(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(t, db, PostDeps{})
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	post := testutil.CreatePost(t, db, owner.ID, "tv")

	media, err := svc.AttachMedia(ctx, owner.ID, post.ID, []Upload{
		{Filename: "a.png", Data: pngBytes(t)},
		{Filename: "b.png", Data: pngBytes(t)},
		{Filename: "c.png", Data: pngBytes(t)},
	})
	require.NoError(t, err)
	require.Len(t, media, 3)

	err = svc.DeleteMedia(ctx, 999, media[0].ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))
	require.NoError(t, svc.DeleteMedia(ctx, owner.ID, media[0].ID))

	listed, err := svc.ListMedia(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, svc.DeleteAllMedia(ctx, owner.ID, post.ID))
	listed, err = svc.ListMedia(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = svc.ListMedia(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_PublishesToFollowers(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	f1 := testutil.CreateUser(t, db, "f1")
	f2 := testutil.CreateUser(t, db, "f2")
	require.NoError(t, db.Create(&models.Follow{FollowerID: f1.ID, FollowedID: author.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: f2.ID, FollowedID: author.ID}).Error)

	var got []uint
	calls := 0
	pub := &publisherStub{publishFn: func(_ context.Context, _, authorID uint, title string, _ time.Time, followers []uint) error {
		calls++
		assert.Equal(t, author.ID, authorID)
		assert.Equal(t, "lamp", title)
		got = followers
		return errors.New("broker down")
	}}
	svc := newPostService(t, db, PostDeps{
		Events: pub,
		Flags:  featureflags.NewManager("feed_events=on"),
	})

	_, err := svc.Create(ctx, author.ID, PostInput{Title: "lamp"}, nil)
	require.NoError(t, err, "publish failures do not fail the write")
	assert.Equal(t, []uint{f1.ID, f2.ID}, got)

	_, err = svc.Create(ctx, author.ID, PostInput{Title: "hidden", IsDraft: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPostService_FeedCache(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := newPostService(t, db, PostDeps{
		Feeds: cache.NewFeedCache(rdb, time.Minute),
		Flags: featureflags.NewManager("feed_cache=on"),
	})
	owner := testutil.CreateUser(t, db, "owner")
	testutil.CreatePost(t, db, owner.ID, "one")

	feed, err := svc.Feed(ctx, repository.FeedRecent, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, mr.Exists(cache.FeedKey(repository.FeedRecent, 10)))

	// A row written behind the service's back is hidden by the cached page.
	testutil.CreatePost(t, db, owner.ID, "two")
	feed, err = svc.Feed(ctx, repository.FeedRecent, 0, 10)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	// Writes through the service invalidate.
	_, err = svc.Create(ctx, owner.ID, PostInput{Title: "three"}, nil)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.FeedKey(repository.FeedRecent, 10)))

	feed, err = svc.Feed(ctx, repository.FeedRecent, 0, 10)
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	_, err = svc.Feed(ctx, repository.FeedFollowing, 0, 10)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}
