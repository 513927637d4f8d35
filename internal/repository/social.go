package repository

import (
	"context"
	"errors"
	"fmt"

	"xchangez/internal/models"

	"gorm.io/gorm"
)

// SocialRepository answers the aggregate questions about the follow and rating graphs.
type SocialRepository struct {
	db *gorm.DB
}

// NewSocialRepository returns a SocialRepository.
func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// AverageRating is the mean rating received by userID, 0 when there are none.
func (r *SocialRepository) AverageRating(ctx context.Context, userID uint) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("COALESCE(AVG(amount), 0)").
		Where("rated_id = ?", userID).
		Scan(&avg).Error
	if err != nil {
		return 0, models.NewInternalError(fmt.Errorf("average rating for user %d: %w", userID, err))
	}
	return avg, nil
}

// AverageRatings computes averages for many users in one grouped query.
// Users without ratings are absent from the result.
func (r *SocialRepository) AverageRatings(ctx context.Context, userIDs []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		RatedID uint
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("rated_id, AVG(amount) AS average").
		Where("rated_id IN ?", userIDs).
		Group("rated_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("average ratings: %w", err))
	}
	for _, row := range rows {
		out[row.RatedID] = row.Average
	}
	return out, nil
}

// FollowerCount counts edges pointing at userID.
func (r *SocialRepository) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	return r.countFollows(ctx, "followed_id = ?", userID)
}

// FollowingCount counts edges leaving userID.
func (r *SocialRepository) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return r.countFollows(ctx, "follower_id = ?", userID)
}

func (r *SocialRepository) countFollows(ctx context.Context, cond string, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(cond, userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(fmt.Errorf("count follows: %w", err))
	}
	return n, nil
}

// FindFollow returns the edge follower -> followed, or nil when there is none.
func (r *SocialRepository) FindFollow(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	var f models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(fmt.Errorf("find follow: %w", err))
	}
	return &f, nil
}

// FindRating returns the rating rater -> rated, or nil when there is none.
func (r *SocialRepository) FindRating(ctx context.Context, raterID, ratedID uint) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("rater_id = ? AND rated_id = ?", raterID, ratedID).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(fmt.Errorf("find rating: %w", err))
	}
	return &rating, nil
}

// FollowerIDs returns the ids of everyone following userID.
func (r *SocialRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Order("follower_id ASC").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("follower ids for user %d: %w", userID, err))
	}
	return ids, nil
}
