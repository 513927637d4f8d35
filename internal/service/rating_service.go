package service

import (
	"context"
	"fmt"

	"xchangez/internal/dto"
	"xchangez/internal/models"
	"xchangez/internal/repository"
	"xchangez/internal/validation"

	"gorm.io/gorm"
)

const maxRatingCommentLen = 250

type RatingService struct {
	users   *repository.UserStore
	ratings *repository.RatingStore
	social  *repository.SocialRepository
}

type CreateRatingInput struct {
	RaterID uint
	RatedID uint
	Amount  int
	Comment *string
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{
		users:   repository.NewUserStore(db),
		ratings: repository.NewRatingStore(db),
		social:  repository.NewSocialRepository(db),
	}
}

func (s *RatingService) Create(ctx context.Context, in CreateRatingInput) (*dto.RatingView, error) {
	if in.RaterID == in.RatedID {
		return nil, models.NewValidationError("You cannot rate yourself")
	}
	if in.Amount < models.MinRatingAmount || in.Amount > models.MaxRatingAmount {
		return nil, models.NewValidationError(fmt.Sprintf("Amount must be between %d and %d",
			models.MinRatingAmount, models.MaxRatingAmount))
	}
	if in.Comment != nil {
		if err := validation.ValidateText("comment", *in.Comment, false, maxRatingCommentLen); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if _, err := s.users.Get(ctx, in.RatedID); err != nil {
		return nil, err
	}

	existing, err := s.social.FindRating(ctx, in.RaterID, in.RatedID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("You already rated this user")
	}

	rating := &models.Rating{
		RaterID: in.RaterID,
		RatedID: in.RatedID,
		Amount:  in.Amount,
		Comment: in.Comment,
	}
	if _, err := s.ratings.Begin().Create(rating).Commit(ctx); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError("You already rated this user")
		}
		return nil, models.NewInternalError(err)
	}
	return s.Get(ctx, rating.ID)
}

// Get loads a rating with the rater's display data.
func (s *RatingService) Get(ctx context.Context, id uint) (*dto.RatingView, error) {
	rows, err := s.ratings.Query(ctx, repository.Filter{
		Where: repository.Where("ratings.id = ?", id),
		Join:  []string{"Rater"},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("Rating", id)
	}
	return &rows[0], nil
}

// Received lists the ratings userID received, newest first.
func (s *RatingService) Received(ctx context.Context, userID uint) ([]dto.RatingView, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.ratings.Query(ctx, repository.Filter{
		Where:   repository.Where("ratings.rated_id = ?", userID),
		Join:    []string{"Rater"},
		OrderBy: "ratings.created_at DESC, ratings.id DESC",
	})
}

// Given lists the ratings userID gave, newest first.
func (s *RatingService) Given(ctx context.Context, userID uint) ([]dto.RatingView, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.ratings.Query(ctx, repository.Filter{
		Where:   repository.Where("ratings.rater_id = ?", userID),
		Join:    []string{"Rater"},
		OrderBy: "ratings.created_at DESC, ratings.id DESC",
	})
}

func (s *RatingService) Average(ctx context.Context, userID uint) (float64, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return 0, err
	}
	return s.social.AverageRating(ctx, userID)
}

// HasRated reports whether raterID already rated ratedID.
func (s *RatingService) HasRated(ctx context.Context, raterID, ratedID uint) (bool, error) {
	r, err := s.social.FindRating(ctx, raterID, ratedID)
	if err != nil {
		return false, err
	}
	return r != nil, nil
}
