package service

import (
	"context"
	"log/slog"

	"xchangez/internal/dto"
	"xchangez/internal/models"
	"xchangez/internal/notifications"
	"xchangez/internal/repository"

	"gorm.io/gorm"
)

// Notifier delivers realtime frames to connected clients.
type Notifier interface {
	ToUser(ctx context.Context, userID uint, payload string) error
	ToAll(ctx context.Context, payload string) error
}

// SocialService owns the follow graph and the per-user aggregates.
type SocialService struct {
	users   *repository.UserStore
	follows *repository.FollowStore
	social  *repository.SocialRepository
	notify  Notifier
}

func NewSocialService(db *gorm.DB, notify Notifier) *SocialService {
	return &SocialService{
		users:   repository.NewUserStore(db),
		follows: repository.NewFollowStore(db),
		social:  repository.NewSocialRepository(db),
		notify:  notify,
	}
}

// Stats recomputes the rating average and both follow counts for userID.
func (s *SocialService) Stats(ctx context.Context, userID uint) (*dto.SocialStats, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.stats(ctx, userID)
}

func (s *SocialService) stats(ctx context.Context, userID uint) (*dto.SocialStats, error) {
	avg, err := s.social.AverageRating(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := s.social.FollowerCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.social.FollowingCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SocialStats{
		UserID:         userID,
		AverageRating:  avg,
		FollowerCount:  followers,
		FollowingCount: following,
	}, nil
}

// Follow adds the edge followerID -> followedID.
func (s *SocialService) Follow(ctx context.Context, followerID, followedID uint) (*dto.FollowView, error) {
	if followerID == followedID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	follower, err := s.users.Get(ctx, followerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, followedID); err != nil {
		return nil, err
	}

	existing, err := s.social.FindFollow(ctx, followerID, followedID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("You already follow this user")
	}

	edge := &models.Follow{FollowerID: followerID, FollowedID: followedID}
	if _, err := s.follows.Begin().Create(edge).Commit(ctx); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError("You already follow this user")
		}
		return nil, models.NewInternalError(err)
	}

	view, err := s.GetFollow(ctx, edge.ID)
	if err != nil {
		return nil, err
	}
	s.announceFollower(ctx, followedID, follower, view)
	return view, nil
}

func (s *SocialService) announceFollower(ctx context.Context, followedID uint, follower *models.User, view *dto.FollowView) {
	if s.notify == nil {
		return
	}
	payload, err := notifications.Encode(notifications.TypeNewFollower, map[string]any{
		"follow_id":     view.ID,
		"follower_id":   follower.ID,
		"follower_name": follower.FullName(),
	})
	if err == nil {
		err = s.notify.ToUser(ctx, followedID, payload)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to notify new follower", "user_id", followedID, "err", err)
	}
}

// Unfollow removes the edge followerID -> followedID.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	edge, err := s.social.FindFollow(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if edge == nil {
		return &models.AppError{Code: models.CodeNotFound, Message: "You do not follow this user"}
	}
	if _, err := s.follows.Begin().Delete(edge).Commit(ctx); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetFollow loads one edge with both users' display data.
func (s *SocialService) GetFollow(ctx context.Context, id uint) (*dto.FollowView, error) {
	rows, err := s.follows.Query(ctx, repository.Filter{
		Where: repository.Where("follows.id = ?", id),
		Join:  []string{"Follower", "Followed"},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("Follow", id)
	}
	return &rows[0], nil
}

// Followers lists who follows userID. A private profile yields an empty list
// for everyone but its owner.
func (s *SocialService) Followers(ctx context.Context, viewerID, userID uint) ([]dto.FollowView, error) {
	visible, err := s.visibleTo(ctx, viewerID, userID)
	if err != nil || !visible {
		return []dto.FollowView{}, err
	}
	return s.follows.Query(ctx, repository.Filter{
		Where:   repository.Where("follows.followed_id = ?", userID),
		Join:    []string{"Follower"},
		OrderBy: "follows.created_at DESC, follows.id DESC",
	})
}

// Following lists who userID follows, with the same visibility rule as Followers.
func (s *SocialService) Following(ctx context.Context, viewerID, userID uint) ([]dto.FollowView, error) {
	visible, err := s.visibleTo(ctx, viewerID, userID)
	if err != nil || !visible {
		return []dto.FollowView{}, err
	}
	return s.follows.Query(ctx, repository.Filter{
		Where:   repository.Where("follows.follower_id = ?", userID),
		Join:    []string{"Followed"},
		OrderBy: "follows.created_at DESC, follows.id DESC",
	})
}

func (s *SocialService) visibleTo(ctx context.Context, viewerID, userID uint) (bool, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return !user.Private() || user.ID == viewerID, nil
}

// IsFollowing reports whether followerID follows followedID.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	edge, err := s.social.FindFollow(ctx, followerID, followedID)
	if err != nil {
		return false, err
	}
	return edge != nil, nil
}
