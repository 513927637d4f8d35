package repository

import (
	"context"

	"xchangez/internal/dto"
	"xchangez/internal/mapper"
	"xchangez/internal/models"

	"gorm.io/gorm"
)

// CommentRepository reads comment nodes with their author joined in.
type CommentRepository struct {
	*Store[models.Comment, dto.CommentView]
}

// NewCommentRepository returns a CommentRepository.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{Store: NewStore(db, "Comment", mapper.CommentToView)}
}

// Children returns the direct replies to parentID on postID, oldest first.
// parentID 0 selects the root comments.
func (r *CommentRepository) Children(ctx context.Context, postID, parentID uint) ([]dto.CommentView, error) {
	return r.Query(ctx, Filter{
		Where:   Where("comments.post_id = ? AND comments.parent_id = ?", postID, parentID),
		Join:    []string{"Author"},
		OrderBy: "comments.created_at ASC, comments.id ASC",
	})
}

// Enriched loads one comment with its author's display data.
func (r *CommentRepository) Enriched(ctx context.Context, id uint) (*dto.CommentView, error) {
	rows, err := r.Query(ctx, Filter{
		Where: Where("comments.id = ?", id),
		Join:  []string{"Author"},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return &rows[0], nil
}

// DescendantIDs collects the ids of every reply below rootID, breadth first.
// Ids already seen are not expanded again.
func (r *CommentRepository) DescendantIDs(ctx context.Context, postID, rootID uint) ([]uint, error) {
	seen := map[uint]bool{rootID: true}
	frontier := []uint{rootID}
	var out []uint

	for len(frontier) > 0 {
		var next []uint
		err := r.DB().WithContext(ctx).
			Model(&models.Comment{}).
			Where("post_id = ? AND parent_id IN ?", postID, frontier).
			Pluck("id", &next).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		frontier = frontier[:0]
		for _, id := range next {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			frontier = append(frontier, id)
		}
	}
	return out, nil
}
