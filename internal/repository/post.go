package repository

import (
	"context"
	"fmt"

	"xchangez/internal/dto"
	"xchangez/internal/mapper"
	"xchangez/internal/models"

	"gorm.io/gorm"
)

// Feed orderings.
const (
	FeedAll       = "all"
	FeedRelevant  = "relevant"
	FeedRecent    = "recent"
	FeedFollowing = "following"
)

// PostRepository adds feed queries and counters to the post store.
type PostRepository struct {
	*Store[models.Post, dto.PostView]
}

// NewPostRepository returns a PostRepository.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{Store: NewStore(db, "Post", mapper.PostToView)}
}

// Feed returns published posts ordered for kind. viewerID is only used by FeedFollowing.
func (r *PostRepository) Feed(ctx context.Context, kind string, viewerID uint, limit int) ([]dto.PostView, error) {
	published := Where("posts.is_draft = ? AND posts.is_active = ?", false, true)
	f := Filter{
		Where:   published,
		Join:    []string{"Author"},
		Include: []string{"Media"},
		Limit:   limit,
	}

	switch kind {
	case FeedRelevant:
		f.OrderBy = "posts.visits DESC, posts.id DESC"
	case FeedRecent:
		f.OrderBy = "posts.created_at DESC, posts.id DESC"
	case FeedFollowing:
		f.Where = And(published, func(db *gorm.DB) *gorm.DB {
			return db.Where("posts.user_id IN (?)",
				r.DB().Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", viewerID))
		})
		f.OrderBy = "posts.created_at DESC, posts.id DESC"
	case FeedAll, "":
		f.OrderBy = "posts.id ASC"
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unknown feed %q", kind))
	}
	return r.Query(ctx, f)
}

// ByAuthor lists a user's posts, newest first.
func (r *PostRepository) ByAuthor(ctx context.Context, userID uint, withDrafts bool) ([]dto.PostView, error) {
	where := Where("posts.user_id = ?", userID)
	if !withDrafts {
		where = And(where, Where("posts.is_draft = ?", false))
	}
	return r.Query(ctx, Filter{
		Where:   where,
		Join:    []string{"Author"},
		Include: []string{"Media"},
		OrderBy: "posts.created_at DESC, posts.id DESC",
	})
}

// AddVisit increments the visit counter in place.
func (r *PostRepository) AddVisit(ctx context.Context, postID uint) error {
	res := r.DB().WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("visits", gorm.Expr("visits + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(fmt.Errorf("add visit to post %d: %w", postID, res.Error))
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// FindMedia returns the media row for (name, ext) on postID, or nil.
func (r *PostRepository) FindMedia(ctx context.Context, postID uint, name, ext string) (*models.Media, error) {
	var rows []models.Media
	err := r.DB().WithContext(ctx).
		Where("post_id = ? AND name = ? AND extension = ?", postID, name, ext).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("find media: %w", err))
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
