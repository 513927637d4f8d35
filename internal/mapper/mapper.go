// Package mapper converts between persisted entities and their view shapes.
// Every pair has two explicit functions; fields missing on one side are dropped.
package mapper

import (
	"xchangez/internal/dto"
	"xchangez/internal/models"
)

// UserToView never copies the password hash.
func UserToView(u models.User) dto.UserView {
	return dto.UserView{
		ID:         u.ID,
		Nick:       u.Nick,
		Name:       u.Name,
		Surname:    u.Surname,
		Email:      u.Email,
		BirthDate:  u.BirthDate,
		AvatarPath: u.AvatarPath,
		CoverPath:  u.CoverPath,
		Rating:     u.Rating,
		IsPrivate:  u.IsPrivate,
		FullName:   u.FullName(),
		CreatedAt:  u.CreatedAt,
	}
}

func UserToEntity(v dto.UserView) models.User {
	return models.User{
		ID:         v.ID,
		Nick:       v.Nick,
		Name:       v.Name,
		Surname:    v.Surname,
		Password:   v.Password,
		Email:      v.Email,
		BirthDate:  v.BirthDate,
		AvatarPath: v.AvatarPath,
		CoverPath:  v.CoverPath,
		Rating:     v.Rating,
		IsPrivate:  v.IsPrivate,
		CreatedAt:  v.CreatedAt,
	}
}

// PostToView maps the post and any preloaded author and media.
func PostToView(p models.Post) dto.PostView {
	v := dto.PostView{
		ID:          p.ID,
		UserID:      p.UserID,
		Title:       p.Title,
		Description: p.Description,
		Features:    p.Features,
		IsDraft:     p.IsDraft,
		Price:       p.Price,
		Status:      p.Status,
		Visits:      p.Visits,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		ModifiedAt:  p.ModifiedAt,
	}
	if p.Author != nil {
		v.AuthorName = p.Author.FullName()
	}
	if len(p.Media) > 0 {
		v.Media = make([]dto.MediaView, 0, len(p.Media))
		for _, m := range p.Media {
			v.Media = append(v.Media, MediaToView(m))
		}
	}
	return v
}

func PostToEntity(v dto.PostView) models.Post {
	p := models.Post{
		ID:          v.ID,
		UserID:      v.UserID,
		Title:       v.Title,
		Description: v.Description,
		Features:    v.Features,
		IsDraft:     v.IsDraft,
		Price:       v.Price,
		Status:      v.Status,
		Visits:      v.Visits,
		IsActive:    v.IsActive,
		CreatedAt:   v.CreatedAt,
		ModifiedAt:  v.ModifiedAt,
	}
	for _, m := range v.Media {
		p.Media = append(p.Media, MediaToEntity(m))
	}
	return p
}

// CommentToView fills author data when the author was preloaded.
func CommentToView(c models.Comment) dto.CommentView {
	v := dto.CommentView{
		ID:        c.ID,
		ParentID:  c.ParentID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Replies:   []*dto.CommentView{},
	}
	if c.Author != nil {
		v.AuthorName = c.Author.FullName()
		v.AuthorAvatar = c.Author.AvatarPath
	}
	return v
}

func CommentToEntity(v dto.CommentView) models.Comment {
	return models.Comment{
		ID:        v.ID,
		ParentID:  v.ParentID,
		PostID:    v.PostID,
		UserID:    v.UserID,
		Content:   v.Content,
		CreatedAt: v.CreatedAt,
	}
}

func MediaToView(m models.Media) dto.MediaView {
	return dto.MediaView{
		ID:        m.ID,
		PostID:    m.PostID,
		Path:      m.Path,
		Name:      m.Name,
		Extension: m.Extension,
		CreatedAt: m.CreatedAt,
	}
}

func MediaToEntity(v dto.MediaView) models.Media {
	return models.Media{
		ID:        v.ID,
		PostID:    v.PostID,
		Path:      v.Path,
		Name:      v.Name,
		Extension: v.Extension,
		CreatedAt: v.CreatedAt,
	}
}

func ListToView(l models.List) dto.ListView {
	v := dto.ListView{
		ID:          l.ID,
		UserID:      l.UserID,
		Name:        l.Name,
		Description: l.Description,
		IsPublic:    l.IsPublic,
		CreatedAt:   l.CreatedAt,
		Items:       make([]dto.ListItemView, 0, len(l.Items)),
	}
	for _, it := range l.Items {
		v.Items = append(v.Items, ListItemToView(it))
	}
	return v
}

func ListToEntity(v dto.ListView) models.List {
	l := models.List{
		ID:          v.ID,
		UserID:      v.UserID,
		Name:        v.Name,
		Description: v.Description,
		IsPublic:    v.IsPublic,
		CreatedAt:   v.CreatedAt,
	}
	for _, it := range v.Items {
		l.Items = append(l.Items, ListItemToEntity(it))
	}
	return l
}

func ListItemToView(i models.ListItem) dto.ListItemView {
	return dto.ListItemView{
		ID:          i.ID,
		ListID:      i.ListID,
		Name:        i.Name,
		Description: i.Description,
		Wanted:      i.Wanted,
	}
}

func ListItemToEntity(v dto.ListItemView) models.ListItem {
	return models.ListItem{
		ID:          v.ID,
		ListID:      v.ListID,
		Name:        v.Name,
		Description: v.Description,
		Wanted:      v.Wanted,
	}
}

// FollowToView fills display data for whichever ends were preloaded.
func FollowToView(f models.Follow) dto.FollowView {
	v := dto.FollowView{
		ID:         f.ID,
		FollowerID: f.FollowerID,
		FollowedID: f.FollowedID,
		CreatedAt:  f.CreatedAt,
	}
	if f.Follower != nil {
		v.FollowerName = f.Follower.FullName()
		v.FollowerAvatar = f.Follower.AvatarPath
	}
	if f.Followed != nil {
		v.FollowedName = f.Followed.FullName()
		v.FollowedAvatar = f.Followed.AvatarPath
	}
	return v
}

func FollowToEntity(v dto.FollowView) models.Follow {
	return models.Follow{
		ID:         v.ID,
		FollowerID: v.FollowerID,
		FollowedID: v.FollowedID,
		CreatedAt:  v.CreatedAt,
	}
}

func RatingToView(r models.Rating) dto.RatingView {
	v := dto.RatingView{
		ID:        r.ID,
		RaterID:   r.RaterID,
		RatedID:   r.RatedID,
		Amount:    r.Amount,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
	if r.Rater != nil {
		v.RaterName = r.Rater.FullName()
		v.RaterAvatar = r.Rater.AvatarPath
	}
	return v
}

func RatingToEntity(v dto.RatingView) models.Rating {
	return models.Rating{
		ID:        v.ID,
		RaterID:   v.RaterID,
		RatedID:   v.RatedID,
		Amount:    v.Amount,
		Comment:   v.Comment,
		CreatedAt: v.CreatedAt,
	}
}

func MessageToView(m models.Message) dto.MessageView {
	return dto.MessageView{
		ID:          m.ID,
		UserID:      m.UserID,
		GroupID:     m.GroupID,
		Content:     m.Content,
		ContentPath: m.ContentPath,
		CreatedAt:   m.CreatedAt,
	}
}

func MessageToEntity(v dto.MessageView) models.Message {
	return models.Message{
		ID:          v.ID,
		UserID:      v.UserID,
		GroupID:     v.GroupID,
		Content:     v.Content,
		ContentPath: v.ContentPath,
		CreatedAt:   v.CreatedAt,
	}
}
