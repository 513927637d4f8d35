package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"xchangez/internal/cache"
	"xchangez/internal/dto"
	"xchangez/internal/events"
	"xchangez/internal/featureflags"
	"xchangez/internal/models"
	"xchangez/internal/repository"
	"xchangez/internal/storage"
	"xchangez/internal/validation"

	"gorm.io/gorm"
)

const (
	maxTitleLen       = 50
	maxDescriptionLen = 250
	defaultFeedSize   = 20
)

// PostDeps are the optional collaborators of PostService. Zero values disable
// the matching behaviour.
type PostDeps struct {
	Sink      storage.Sink
	Feeds     *cache.FeedCache
	Flags     *featureflags.Manager
	Events    events.Publisher
	FeedSize  int
	TreeDepth int
}

type PostService struct {
	posts    *repository.PostRepository
	media    *repository.MediaStore
	users    *repository.UserStore
	social   *repository.SocialRepository
	tree     *TreeAssembler
	sink     storage.Sink
	feeds    *cache.FeedCache
	flags    *featureflags.Manager
	events   events.Publisher
	feedSize int
}

type PostInput struct {
	Title       string
	Description string
	Features    *string
	IsDraft     bool
	Price       float64
	Status      int
	IsActive    *bool
}

func NewPostService(db *gorm.DB, deps PostDeps) *PostService {
	if deps.FeedSize <= 0 {
		deps.FeedSize = defaultFeedSize
	}
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	return &PostService{
		posts:    repository.NewPostRepository(db),
		media:    repository.NewMediaStore(db),
		users:    repository.NewUserStore(db),
		social:   repository.NewSocialRepository(db),
		tree:     NewTreeAssembler(repository.NewCommentRepository(db), deps.TreeDepth),
		sink:     deps.Sink,
		feeds:    deps.Feeds,
		flags:    deps.Flags,
		events:   deps.Events,
		feedSize: deps.FeedSize,
	}
}

func (in PostInput) validate() error {
	if err := validation.ValidateText("title", in.Title, true, maxTitleLen); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateText("description", in.Description, false, maxDescriptionLen); err != nil {
		return models.NewValidationError(err.Error())
	}
	if in.Price < 0 {
		return models.NewValidationError("price must not be negative")
	}
	return nil
}

// Feed returns published posts for kind. FeedFollowing needs a viewer.
func (s *PostService) Feed(ctx context.Context, kind string, viewerID uint, limit int) ([]dto.PostView, error) {
	if limit <= 0 {
		limit = s.feedSize
	}
	if kind == repository.FeedFollowing && viewerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	cacheable := kind != repository.FeedFollowing && s.flags.Enabled(featureflags.FeedCache, viewerID)
	key := cache.FeedKey(kind, limit)
	if cacheable {
		var cached []dto.PostView
		if s.feeds.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	views, err := s.posts.Feed(ctx, kind, viewerID, limit)
	if err != nil {
		return nil, err
	}
	for i := range views {
		setThumbnail(&views[i])
	}

	if cacheable {
		if err := s.feeds.Set(ctx, key, views); err != nil {
			slog.WarnContext(ctx, "failed to cache feed", "feed", kind, "err", err)
		}
	}
	return views, nil
}

// ByAuthor lists authorID's posts. Private authors show nothing to others and
// drafts are only listed for their owner.
func (s *PostService) ByAuthor(ctx context.Context, viewerID, authorID uint) ([]dto.PostView, error) {
	author, err := s.users.Get(ctx, authorID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return []dto.PostView{}, nil
		}
		return nil, err
	}
	own := viewerID == authorID
	if author.Private() && !own {
		return []dto.PostView{}, nil
	}

	views, err := s.posts.ByAuthor(ctx, authorID, own)
	if err != nil {
		return nil, err
	}
	for i := range views {
		setThumbnail(&views[i])
	}
	return views, nil
}

// Get returns a post with media, thumbnail and comment tree, and counts the visit.
func (s *PostService) Get(ctx context.Context, viewerID, id uint) (*dto.PostView, error) {
	view, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.IsDraft && view.UserID != viewerID {
		return nil, models.NewNotFoundError("Post", id)
	}

	if err := s.posts.AddVisit(ctx, id); err != nil {
		return nil, err
	}
	view.Visits++

	if view.Comments, err = s.tree.ForPost(ctx, id); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *PostService) load(ctx context.Context, id uint) (*dto.PostView, error) {
	rows, err := s.posts.Query(ctx, repository.Filter{
		Where:   repository.Where("posts.id = ?", id),
		Join:    []string{"Author"},
		Include: []string{"Media"},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("Post", id)
	}
	setThumbnail(&rows[0])
	return &rows[0], nil
}

func (s *PostService) AddVisit(ctx context.Context, id uint) error {
	return s.posts.AddVisit(ctx, id)
}

// Create stores a new post by authorID and attaches files, if any.
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput, files []Upload) (*dto.PostView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, authorID); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:      authorID,
		Title:       in.Title,
		Description: in.Description,
		Features:    in.Features,
		IsDraft:     in.IsDraft,
		Price:       in.Price,
		Status:      in.Status,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.posts.Begin().Create(post).Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}

	if len(files) > 0 {
		if _, err := s.attach(ctx, post.ID, files); err != nil {
			return nil, err
		}
	}

	s.invalidateFeeds(ctx)
	if !post.IsDraft {
		s.publishCreated(ctx, post)
	}
	return s.load(ctx, post.ID)
}

func (s *PostService) publishCreated(ctx context.Context, post *models.Post) {
	if !s.flags.Enabled(featureflags.FeedEvents, post.UserID) {
		return
	}
	followers, err := s.social.FollowerIDs(ctx, post.UserID)
	if err == nil && len(followers) > 0 {
		err = s.events.PublishPostCreated(ctx, post.ID, post.UserID, post.Title, post.CreatedAt, followers)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to publish post event", "post_id", post.ID, "err", err)
	}
}

// editableColumns are the post columns Update writes. Counters such as visits
// are maintained by their own statements and must not be overwritten here.
var editableColumns = []string{
	"title", "description", "features", "is_draft", "price", "status", "is_active", "modified_at",
}

// Update overwrites the editable fields of a post owned by userID.
func (s *PostService) Update(ctx context.Context, userID, id uint, in PostInput, files []Upload) (*dto.PostView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	post, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post.Title = in.Title
	post.Description = in.Description
	post.Features = in.Features
	post.IsDraft = in.IsDraft
	post.Price = in.Price
	post.Status = in.Status
	if in.IsActive != nil {
		post.IsActive = *in.IsActive
	}
	post.ModifiedAt = &now

	uow := s.posts.Begin().UpdateColumns(post, editableColumns...)
	if _, err := uow.Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(files) > 0 {
		if _, err := s.attach(ctx, post.ID, files); err != nil {
			return nil, err
		}
	}

	s.invalidateFeeds(ctx)
	return s.load(ctx, post.ID)
}

// Delete removes a post, its comments and its media rows in one transaction,
// then removes the stored files.
func (s *PostService) Delete(ctx context.Context, userID, id uint) error {
	post, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	files, err := s.media.Entities(ctx, repository.Filter{Where: repository.Where("post_id = ?", id)})
	if err != nil {
		return err
	}

	_, err = s.posts.Begin().
		DeleteWhere(&models.Comment{}, repository.Where("post_id = ?", id)).
		DeleteWhere(&models.Media{}, repository.Where("post_id = ?", id)).
		Delete(post).
		Commit(ctx)
	if err != nil {
		return models.NewInternalError(err)
	}

	s.removeFiles(ctx, id, files)
	s.invalidateFeeds(ctx)
	return nil
}

func (s *PostService) ListMedia(ctx context.Context, postID uint) ([]dto.MediaView, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.media.Query(ctx, repository.Filter{
		Where:   repository.Where("post_id = ?", postID),
		OrderBy: "id ASC",
	})
}

// AttachMedia stores files on a post owned by userID. A file whose (name,
// extension) already exists on the post replaces it.
func (s *PostService) AttachMedia(ctx context.Context, userID, postID uint, files []Upload) ([]dto.MediaView, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("at least one file is required")
	}
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return nil, err
	}
	views, err := s.attach(ctx, postID, files)
	if err != nil {
		return nil, err
	}
	s.invalidateFeeds(ctx)
	return views, nil
}

// attach stores files and upserts their media rows in one transaction. A file
// replacing an existing row is written under a fresh name, and the file it
// replaces is removed only once the rows are committed.
func (s *PostService) attach(ctx context.Context, postID uint, files []Upload) ([]dto.MediaView, error) {
	if s.sink == nil {
		return nil, models.NewInternalError(fmt.Errorf("no file storage configured"))
	}
	container := storage.PostContainer(postID)
	uow := s.media.Begin()
	staged := make(map[string]*models.Media, len(files))
	var ordered []*models.Media
	var saved, replaced []string

	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		name, ext := f.split()
		key := name + ext
		contentType := storage.ContentTypeFor(ext, f.ContentType)

		row := staged[key]
		if row == nil {
			existing, err := s.posts.FindMedia(ctx, postID, name, ext)
			if err != nil {
				s.removeURLs(ctx, postID, saved)
				return nil, err
			}
			row = existing
		}

		stored := name
		if row != nil {
			stored = name + "-" + storage.UniqueName()
		}
		url, err := s.sink.Save(ctx, f.Data, stored, ext, container, contentType)
		if err != nil {
			s.removeURLs(ctx, postID, saved)
			return nil, models.NewInternalError(fmt.Errorf("store %s: %w", key, err))
		}
		saved = append(saved, url)

		switch {
		case row == nil:
			row = &models.Media{PostID: postID, Path: url, Name: name, Extension: ext}
			uow.Create(row)
		case staged[key] == nil:
			replaced = append(replaced, row.Path)
			row.Path = url
			uow.UpdateColumns(row, "path")
		default:
			replaced = append(replaced, row.Path)
			row.Path = url
		}
		if staged[key] == nil {
			staged[key] = row
			ordered = append(ordered, row)
		}
	}

	if _, err := uow.Commit(ctx); err != nil {
		s.removeURLs(ctx, postID, saved)
		return nil, models.NewInternalError(err)
	}
	s.removeURLs(ctx, postID, replaced)

	views := make([]dto.MediaView, 0, len(ordered))
	for _, m := range ordered {
		views = append(views, dto.MediaView{
			ID: m.ID, PostID: m.PostID, Path: m.Path, Name: m.Name, Extension: m.Extension, CreatedAt: m.CreatedAt,
		})
	}
	return views, nil
}

func (s *PostService) removeURLs(ctx context.Context, postID uint, urls []string) {
	container := storage.PostContainer(postID)
	for _, url := range urls {
		if err := s.sink.Delete(ctx, container, url); err != nil {
			slog.WarnContext(ctx, "failed to remove stored file", "post_id", postID, "err", err)
		}
	}
}

// DeleteMedia removes one media row and its file.
func (s *PostService) DeleteMedia(ctx context.Context, userID, mediaID uint) error {
	m, err := s.media.Get(ctx, mediaID)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, userID, m.PostID); err != nil {
		return err
	}
	if _, err := s.media.Begin().Delete(m).Commit(ctx); err != nil {
		return models.NewInternalError(err)
	}
	s.removeFiles(ctx, m.PostID, []models.Media{*m})
	s.invalidateFeeds(ctx)
	return nil
}

// DeleteAllMedia removes every media row of a post and their files.
func (s *PostService) DeleteAllMedia(ctx context.Context, userID, postID uint) error {
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return err
	}
	files, err := s.media.Entities(ctx, repository.Filter{Where: repository.Where("post_id = ?", postID)})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	_, err = s.media.Begin().
		DeleteWhere(&models.Media{}, repository.Where("post_id = ?", postID)).
		Commit(ctx)
	if err != nil {
		return models.NewInternalError(err)
	}
	s.removeFiles(ctx, postID, files)
	s.invalidateFeeds(ctx)
	return nil
}

func (s *PostService) owned(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

func (s *PostService) removeFiles(ctx context.Context, postID uint, files []models.Media) {
	if s.sink == nil {
		return
	}
	container := storage.PostContainer(postID)
	for _, f := range files {
		if err := s.sink.Delete(ctx, container, f.Path); err != nil {
			slog.WarnContext(ctx, "failed to remove media file", "media_id", f.ID, "err", err)
		}
	}
}

func (s *PostService) invalidateFeeds(ctx context.Context) {
	if err := s.feeds.InvalidateAll(ctx); err != nil {
		slog.WarnContext(ctx, "failed to invalidate feed cache", "err", err)
	}
}

// setThumbnail picks the first media whose file name is an image.
func setThumbnail(v *dto.PostView) {
	for _, m := range v.Media {
		if storage.IsImageName(m.Name + m.Extension) {
			thumb := m
			v.Thumbnail = &thumb
			return
		}
	}
}
