package service

import (
	"context"

	"xchangez/internal/dto"
	"xchangez/internal/models"
	"xchangez/internal/repository"
	"xchangez/internal/validation"

	"gorm.io/gorm"
)

const maxCommentLen = 250

type CommentService struct {
	comments *repository.CommentRepository
	posts    *repository.PostRepository
	tree     *TreeAssembler
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID uint
	Content  string
}

func NewCommentService(db *gorm.DB, maxDepth int) *CommentService {
	comments := repository.NewCommentRepository(db)
	return &CommentService{
		comments: comments,
		posts:    repository.NewPostRepository(db),
		tree:     NewTreeAssembler(comments, maxDepth),
	}
}

// Tree returns the comment tree for postID as seen by viewerID.
func (s *CommentService) Tree(ctx context.Context, viewerID, postID uint) ([]*dto.CommentView, error) {
	if err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	return s.tree.ForPost(ctx, postID)
}

// visiblePost fails with not-found for missing posts and for drafts the viewer does not own.
func (s *CommentService) visiblePost(ctx context.Context, viewerID, postID uint) error {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.IsDraft && post.UserID != viewerID {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

// Create adds a root comment, or a reply when ParentID is set. A parent must
// exist and belong to the same post.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*dto.CommentView, error) {
	if err := validation.ValidateText("content", in.Content, true, maxCommentLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := s.visiblePost(ctx, in.UserID, in.PostID); err != nil {
		return nil, err
	}
	if in.ParentID != 0 {
		parent, err := s.comments.Get(ctx, in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		ParentID: in.ParentID,
		UserID:   in.UserID,
		Content:  in.Content,
	}
	if _, err := s.comments.Begin().Create(comment).Commit(ctx); err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.comments.Enriched(ctx, comment.ID)
}

func (s *CommentService) Get(ctx context.Context, viewerID, id uint) (*dto.CommentView, error) {
	comment, err := s.comments.Enriched(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.visibleComment(ctx, viewerID, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Subtree returns comment id with every reply below it.
func (s *CommentService) Subtree(ctx context.Context, viewerID, id uint) (*dto.CommentView, error) {
	root, err := s.comments.Enriched(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.visibleComment(ctx, viewerID, root); err != nil {
		return nil, err
	}
	return s.tree.Subtree(ctx, *root)
}

func (s *CommentService) visibleComment(ctx context.Context, viewerID uint, comment *dto.CommentView) error {
	if err := s.visiblePost(ctx, viewerID, comment.PostID); err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewNotFoundError("Comment", comment.ID)
		}
		return err
	}
	return nil
}

// Delete removes a comment and its replies. Allowed for the comment's author
// and the post's owner.
func (s *CommentService) Delete(ctx context.Context, userID, id uint) error {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		post, err := s.posts.Get(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post.UserID != userID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}

	ids, err := s.comments.DescendantIDs(ctx, comment.PostID, comment.ID)
	if err != nil {
		return err
	}
	uow := s.comments.Begin()
	if len(ids) > 0 {
		uow.DeleteWhere(&models.Comment{}, repository.Where("id IN ?", ids))
	}
	if _, err := uow.Delete(comment).Commit(ctx); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
