package service

import (
	"context"
	"testing"

	"xchangez/internal/models"
	"xchangez/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_CreateAndReply(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCommentService(db, DefaultTreeDepth)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "guitar")
	other := testutil.CreatePost(t, db, author.ID, "drums")

	root, err := svc.Create(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "still available?"})
	require.NoError(t, err)
	assert.Zero(t, root.ParentID)
	assert.Equal(t, "author Test", root.AuthorName)

	reply, err := svc.Create(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, ParentID: root.ID, Content: "yes"})
	require.NoError(t, err)
	assert.Equal(t, root.ID, reply.ParentID)

	tests := []struct {
		name string
		in   CreateCommentInput
		code string
	}{
		{"missing post", CreateCommentInput{UserID: author.ID, PostID: 999, Content: "hi"}, models.CodeNotFound},
		{"missing parent", CreateCommentInput{UserID: author.ID, PostID: post.ID, ParentID: 999, Content: "hi"}, models.CodeNotFound},
		{"parent on another post", CreateCommentInput{UserID: author.ID, PostID: other.ID, ParentID: root.ID, Content: "hi"}, models.CodeValidation},
		{"empty content", CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "  "}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.True(t, models.IsCode(err, tt.code), "got %v", err)
		})
	}

	tree, err := svc.Tree(ctx, author.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "yes", tree[0].Replies[0].Content)

	_, err = svc.Tree(ctx, author.ID, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCommentService_Subtree(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCommentService(db, DefaultTreeDepth)
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "post")

	testutil.CreateComment(t, db, 1, post.ID, 0, author.ID)
	testutil.CreateComment(t, db, 2, post.ID, 1, author.ID)
	testutil.CreateComment(t, db, 3, post.ID, 2, author.ID)
	testutil.CreateComment(t, db, 4, post.ID, 0, author.ID)

	node, err := svc.Subtree(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), node.ID)
	require.Len(t, node.Replies, 1)
	assert.Equal(t, uint(3), node.Replies[0].ID)

	_, err = svc.Subtree(context.Background(), 0, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCommentService_DeleteRemovesReplies(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCommentService(db, DefaultTreeDepth)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	commenter := testutil.CreateUser(t, db, "commenter")
	stranger := testutil.CreateUser(t, db, "stranger")
	post := testutil.CreatePost(t, db, owner.ID, "post")

	testutil.CreateComment(t, db, 1, post.ID, 0, commenter.ID)
	testutil.CreateComment(t, db, 2, post.ID, 1, owner.ID)
	testutil.CreateComment(t, db, 3, post.ID, 2, stranger.ID)
	testutil.CreateComment(t, db, 4, post.ID, 0, commenter.ID)
	testutil.CreateComment(t, db, 5, post.ID, 0, commenter.ID)

	err := svc.Delete(ctx, stranger.ID, 1)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, commenter.ID, 1))
	var left []uint
	require.NoError(t, db.Model(&models.Comment{}).Order("id").Pluck("id", &left).Error)
	assert.Equal(t, []uint{4, 5}, left)

	// The post owner may delete comments on their post.
	require.NoError(t, svc.Delete(ctx, owner.ID, 4))

	err = svc.Delete(ctx, owner.ID, 1)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCommentService_DraftCommentsOnlyForOwner(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCommentService(db, DefaultTreeDepth)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner")
	stranger := testutil.CreateUser(t, db, "stranger")
	draft := testutil.CreatePost(t, db, owner.ID, "unlisted amp")
	require.NoError(t, db.Model(draft).Update("is_draft", true).Error)

	_, err := svc.Create(ctx, CreateCommentInput{UserID: stranger.ID, PostID: draft.ID, Content: "price?"})
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	_, err = svc.Tree(ctx, stranger.ID, draft.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	_, err = svc.Tree(ctx, 0, draft.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)

	note, err := svc.Create(ctx, CreateCommentInput{UserID: owner.ID, PostID: draft.ID, Content: "note to self"})
	require.NoError(t, err)
	_, err = svc.Get(ctx, stranger.ID, note.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	_, err = svc.Subtree(ctx, stranger.ID, note.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	_, err = svc.Subtree(ctx, owner.ID, note.ID)
	require.NoError(t, err)
	tree, err := svc.Tree(ctx, owner.ID, draft.ID)
	require.NoError(t, err)
	assert.Len(t, tree, 1)
	assert.Zero(t, countRows(t, db, &models.Comment{}, "user_id = ?", stranger.ID))
}
