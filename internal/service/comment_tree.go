package service

import (
	"context"

	"xchangez/internal/dto"
)

// DefaultTreeDepth bounds how many reply levels are assembled.
const DefaultTreeDepth = 64

// ChildLoader returns the direct replies to parentID on postID with author data
// filled in. parentID 0 selects the root comments.
type ChildLoader interface {
	Children(ctx context.Context, postID, parentID uint) ([]dto.CommentView, error)
}

// TreeAssembler nests comments under their parents, one children query per node.
type TreeAssembler struct {
	loader   ChildLoader
	maxDepth int
}

func NewTreeAssembler(loader ChildLoader, maxDepth int) *TreeAssembler {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	return &TreeAssembler{loader: loader, maxDepth: maxDepth}
}

type pending struct {
	node  *dto.CommentView
	depth int
}

// ForPost returns the root comments of postID with their replies attached.
func (a *TreeAssembler) ForPost(ctx context.Context, postID uint) ([]*dto.CommentView, error) {
	roots, err := a.loader.Children(ctx, postID, 0)
	if err != nil {
		return nil, err
	}

	visited := make(map[uint]bool, len(roots))
	out := make([]*dto.CommentView, 0, len(roots))
	queue := make([]pending, 0, len(roots))
	for i := range roots {
		if visited[roots[i].ID] {
			continue
		}
		visited[roots[i].ID] = true
		node := &roots[i]
		node.Replies = []*dto.CommentView{}
		out = append(out, node)
		queue = append(queue, pending{node: node, depth: 1})
	}

	if err := a.expand(ctx, postID, queue, visited); err != nil {
		return nil, err
	}
	return out, nil
}

// Subtree attaches every reply below root. root itself is returned with its
// Replies replaced.
func (a *TreeAssembler) Subtree(ctx context.Context, root dto.CommentView) (*dto.CommentView, error) {
	node := &root
	node.Replies = []*dto.CommentView{}
	visited := map[uint]bool{root.ID: true}
	if err := a.expand(ctx, root.PostID, []pending{{node: node, depth: 1}}, visited); err != nil {
		return nil, err
	}
	return node, nil
}

func (a *TreeAssembler) expand(ctx context.Context, postID uint, queue []pending, visited map[uint]bool) error {
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= a.maxDepth {
			continue
		}

		children, err := a.loader.Children(ctx, postID, cur.node.ID)
		if err != nil {
			return err
		}
		for i := range children {
			if visited[children[i].ID] {
				continue
			}
			visited[children[i].ID] = true
			child := &children[i]
			child.Replies = []*dto.CommentView{}
			cur.node.Replies = append(cur.node.Replies, child)
			queue = append(queue, pending{node: child, depth: cur.depth + 1})
		}
	}
	return nil
}
