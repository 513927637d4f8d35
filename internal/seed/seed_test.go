package seed

import (
	"testing"
	"time"

	"xchangez/internal/models"
	"xchangez/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_BuildsConnectedGraph(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSeeder(db, Options{Seed: 42, SkipBcrypt: true})

	sum, err := s.ApplyPreset("minimal")
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Users)
	assert.Equal(t, 10, sum.Posts)
	assert.Equal(t, 10, sum.Follows)
	assert.Equal(t, 5, sum.Ratings)
	assert.Equal(t, 5, sum.Lists)
	assert.GreaterOrEqual(t, sum.Messages, 6)

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.EqualValues(t, sum.Users, count(&models.User{}))
	assert.EqualValues(t, sum.Posts, count(&models.Post{}))
	assert.EqualValues(t, sum.Comments, count(&models.Comment{}))
	assert.EqualValues(t, sum.Follows, count(&models.Follow{}))
	assert.EqualValues(t, sum.Messages, count(&models.Message{}))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followed_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	var badRatings int64
	require.NoError(t, db.Model(&models.Rating{}).
		Where("amount < ? OR amount > ?", models.MinRatingAmount, models.MaxRatingAmount).
		Count(&badRatings).Error)
	assert.Zero(t, badRatings)

	// Replies always point at a comment of the same post.
	var orphanReplies int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM comments c
		WHERE c.parent_id <> 0 AND NOT EXISTS (
			SELECT 1 FROM comments p WHERE p.id = c.parent_id AND p.post_id = c.post_id)`).
		Scan(&orphanReplies).Error)
	assert.Zero(t, orphanReplies)

	require.NoError(t, s.ClearAll())
	assert.Zero(t, count(&models.User{}))
	assert.Zero(t, count(&models.ListItem{}))
}

func TestApplyPreset_Unknown(t *testing.T) {
	_, err := NewSeeder(nil, Options{}).ApplyPreset("galactic")
	assert.ErrorContains(t, err, "unknown preset")
}

func TestFactory_DryRunAssignsIDs(t *testing.T) {
	f := NewFactory(nil, Options{Seed: 7, DryRun: true, SkipBcrypt: true, MaxDays: 30})

	u, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.LessOrEqual(t, len([]rune(u.Nick)), 25)
	assert.LessOrEqual(t, len(u.Email), 50)

	p := f.BuildPost(u)
	require.NoError(t, f.CreatePostsBatch([]*models.Post{p}))
	assert.Greater(t, p.ID, u.ID)
	assert.LessOrEqual(t, len([]rune(p.Title)), 50)
	assert.LessOrEqual(t, len([]rune(p.Description)), 250)
	assert.WithinDuration(t, time.Now(), p.CreatedAt, 31*24*time.Hour)

	root, err := f.CreateComment(u, p, nil)
	require.NoError(t, err)
	reply, err := f.CreateComment(u, p, root)
	require.NoError(t, err)
	assert.Equal(t, root.ID, reply.ParentID)
	assert.True(t, root.IsRoot())
}

func TestFactory_SameSeedSameContent(t *testing.T) {
	a := NewFactory(nil, Options{Seed: 99, DryRun: true, SkipBcrypt: true})
	b := NewFactory(nil, Options{Seed: 99, DryRun: true, SkipBcrypt: true})
	ua, ub := a.BuildUser(), b.BuildUser()
	assert.Equal(t, ua.Name, ub.Name)
	assert.Equal(t, ua.Email, ub.Email)
}
