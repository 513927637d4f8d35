package repository

import (
	"xchangez/internal/dto"
	"xchangez/internal/mapper"
	"xchangez/internal/models"

	"gorm.io/gorm"
)

type (
	UserStore     = Store[models.User, dto.UserView]
	MediaStore    = Store[models.Media, dto.MediaView]
	FollowStore   = Store[models.Follow, dto.FollowView]
	RatingStore   = Store[models.Rating, dto.RatingView]
	ListStore     = Store[models.List, dto.ListView]
	ListItemStore = Store[models.ListItem, dto.ListItemView]
	MessageStore  = Store[models.Message, dto.MessageView]
)

func NewUserStore(db *gorm.DB) *UserStore {
	return NewStore(db, "User", mapper.UserToView)
}

func NewMediaStore(db *gorm.DB) *MediaStore {
	return NewStore(db, "Media", mapper.MediaToView)
}

func NewFollowStore(db *gorm.DB) *FollowStore {
	return NewStore(db, "Follow", mapper.FollowToView)
}

func NewRatingStore(db *gorm.DB) *RatingStore {
	return NewStore(db, "Rating", mapper.RatingToView)
}

func NewListStore(db *gorm.DB) *ListStore {
	return NewStore(db, "List", mapper.ListToView)
}

func NewListItemStore(db *gorm.DB) *ListItemStore {
	return NewStore(db, "ListItem", mapper.ListItemToView)
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return NewStore(db, "Message", mapper.MessageToView)
}
