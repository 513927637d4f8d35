package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"xchangez/internal/auth"
	"xchangez/internal/dto"
	"xchangez/internal/models"
	"xchangez/internal/repository"
	"xchangez/internal/storage"
	"xchangez/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	users  *repository.UserStore
	social *repository.SocialRepository
	tokens *auth.Manager
	sink   storage.Sink
}

type RegisterInput struct {
	Nick      string
	Name      string
	Surname   string
	Email     string
	Password  string
	BirthDate *time.Time
}

type UpdateProfileInput struct {
	UserID    uint
	Name      *string
	Surname   *string
	Nick      *string
	BirthDate *time.Time
}

func NewUserService(db *gorm.DB, tokens *auth.Manager, sink storage.Sink) *UserService {
	return &UserService{
		users:  repository.NewUserStore(db),
		social: repository.NewSocialRepository(db),
		tokens: tokens,
		sink:   sink,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*dto.UserView, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	for _, err := range []error{
		validation.ValidateName("name", in.Name),
		validation.ValidateText("surname", in.Surname, false, 50),
		validation.ValidateNick(in.Nick),
		validation.ValidateEmail(in.Email),
		validation.ValidatePassword(in.Password),
	} {
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	taken, err := s.users.Exists(ctx, repository.Where("email = ?", in.Email))
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewValidationError("email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Nick:      in.Nick,
		Name:      in.Name,
		Surname:   in.Surname,
		Email:     in.Email,
		Password:  string(hash),
		BirthDate: in.BirthDate,
	}
	if _, err := s.users.Begin().Create(user).Commit(ctx); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError("email already in use")
		}
		return nil, models.NewInternalError(err)
	}
	return s.Get(ctx, user.ID)
}

// Login verifies credentials and issues a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*dto.Token, error) {
	mismatch := models.NewValidationError("credentials do not match")

	user, err := s.users.First(ctx, repository.Filter{
		Where: repository.Where("email = ?", validation.NormalizeEmail(email)),
	})
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, mismatch
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, mismatch
		}
		return nil, models.NewInternalError(err)
	}

	token, exp, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &dto.Token{Token: token, Expiration: exp}, nil
}

// List returns every user with their average rating.
func (s *UserService) List(ctx context.Context) ([]dto.UserView, error) {
	views, err := s.users.Query(ctx, repository.Filter{OrderBy: "id ASC"})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	averages, err := s.social.AverageRatings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		avg := averages[views[i].ID]
		views[i].Rating = &avg
	}
	return views, nil
}

// Get returns a user with rating and follow counts.
func (s *UserService) Get(ctx context.Context, id uint) (*dto.UserView, error) {
	view, err := s.users.View(ctx, id)
	if err != nil {
		return nil, err
	}
	avg, err := s.social.AverageRating(ctx, id)
	if err != nil {
		return nil, err
	}
	view.Rating = &avg
	if view.FollowerCount, err = s.social.FollowerCount(ctx, id); err != nil {
		return nil, err
	}
	if view.FollowingCount, err = s.social.FollowingCount(ctx, id); err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*dto.UserView, error) {
	user, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := validation.ValidateName("name", *in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = *in.Name
	}
	if in.Surname != nil {
		if err := validation.ValidateText("surname", *in.Surname, false, 50); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Surname = *in.Surname
	}
	if in.Nick != nil {
		if err := validation.ValidateNick(*in.Nick); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Nick = *in.Nick
	}
	if in.BirthDate != nil {
		user.BirthDate = in.BirthDate
	}

	uow := s.users.Begin().UpdateColumns(user, "name", "surname", "nick", "birth_date")
	if _, err := uow.Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.Get(ctx, user.ID)
}

func (s *UserService) SetPrivacy(ctx context.Context, userID uint, private bool) (*dto.UserView, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsPrivate = &private
	if _, err := s.users.Begin().UpdateColumns(user, "is_private").Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.Get(ctx, userID)
}

// UpdateImage stores a new avatar or cover image and replaces the previous file.
func (s *UserService) UpdateImage(ctx context.Context, userID uint, kind ImageKind, up Upload) (*dto.UserView, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(up.Data) == 0 {
		return nil, models.NewValidationError("file is required")
	}
	info, err := storage.DetectImage(up.Data)
	if err != nil {
		return nil, models.NewValidationError("file must be an image")
	}

	_, ext := up.split()
	if ext == "" {
		ext = "." + info.Format
	}

	target := &user.AvatarPath
	if kind == ImageCover {
		target = &user.CoverPath
	}

	container := storage.UserContainer(userID)
	var previous string
	if *target != nil {
		previous = **target
	}
	url, err := s.sink.Save(ctx, up.Data, storage.UniqueName(), ext, container, info.MimeType)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	*target = &url

	column := "avatar_path"
	if kind == ImageCover {
		column = "cover_path"
	}
	if _, err := s.users.Begin().UpdateColumns(user, column).Commit(ctx); err != nil {
		if derr := s.sink.Delete(ctx, container, url); derr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned image", "user_id", userID, "err", derr)
		}
		return nil, models.NewInternalError(err)
	}
	if err := s.sink.Delete(ctx, container, previous); err != nil {
		slog.WarnContext(ctx, "failed to remove previous image", "user_id", userID, "err", err)
	}
	return s.Get(ctx, userID)
}
