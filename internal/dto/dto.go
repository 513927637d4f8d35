// Package dto holds the externally facing view shapes returned by the API.
package dto

import "time"

// UserView is the public representation of a user. Password is only read from requests.
type UserView struct {
	ID             uint       `json:"id"`
	Nick           string     `json:"nick"`
	Name           string     `json:"name"`
	Surname        string     `json:"surname"`
	Email          string     `json:"email"`
	Password       string     `json:"password,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	AvatarPath     *string    `json:"avatar_path,omitempty"`
	CoverPath      *string    `json:"cover_path,omitempty"`
	Rating         *float64   `json:"rating,omitempty"`
	IsPrivate      *bool      `json:"is_private,omitempty"`
	FullName       string     `json:"full_name,omitempty"`
	FollowerCount  int64      `json:"follower_count"`
	FollowingCount int64      `json:"following_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PostView is a post with its computed extras.
type PostView struct {
	ID          uint           `json:"id"`
	UserID      uint           `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Features    *string        `json:"features,omitempty"`
	IsDraft     bool           `json:"is_draft"`
	Price       float64        `json:"price"`
	Status      int            `json:"status"`
	Visits      int            `json:"visits"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	ModifiedAt  *time.Time     `json:"modified_at,omitempty"`
	AuthorName  string         `json:"author_name,omitempty"`
	Thumbnail   *MediaView     `json:"thumbnail,omitempty"`
	Media       []MediaView    `json:"media,omitempty"`
	Comments    []*CommentView `json:"comments,omitempty"`
}

// CommentView is a comment node. Replies are filled by the tree assembler.
type CommentView struct {
	ID           uint           `json:"id"`
	ParentID     uint           `json:"parent_id"`
	PostID       uint           `json:"post_id"`
	UserID       uint           `json:"user_id"`
	Content      string         `json:"content"`
	CreatedAt    time.Time      `json:"created_at"`
	AuthorName   string         `json:"author_name,omitempty"`
	AuthorAvatar *string        `json:"author_avatar,omitempty"`
	Replies      []*CommentView `json:"replies"`
}

// MediaView is a stored post file.
type MediaView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	CreatedAt time.Time `json:"created_at"`
}

// ListView is a list with its items.
type ListView struct {
	ID          uint           `json:"id"`
	UserID      uint           `json:"user_id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	IsPublic    bool           `json:"is_public"`
	CreatedAt   time.Time      `json:"created_at"`
	Items       []ListItemView `json:"items"`
}

// ListItemView is one list entry.
type ListItemView struct {
	ID          uint   `json:"id"`
	ListID      uint   `json:"list_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Wanted      bool   `json:"wanted"`
}

// FollowView is a follow edge with both ends' display data.
type FollowView struct {
	ID             uint      `json:"id"`
	FollowerID     uint      `json:"follower_id"`
	FollowedID     uint      `json:"followed_id"`
	CreatedAt      time.Time `json:"created_at"`
	FollowerName   string    `json:"follower_name,omitempty"`
	FollowerAvatar *string   `json:"follower_avatar,omitempty"`
	FollowedName   string    `json:"followed_name,omitempty"`
	FollowedAvatar *string   `json:"followed_avatar,omitempty"`
}

// RatingView is a rating with the rater's display data.
type RatingView struct {
	ID          uint      `json:"id"`
	RaterID     uint      `json:"rater_id"`
	RatedID     uint      `json:"rated_id"`
	Amount      int       `json:"amount"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	RaterName   string    `json:"rater_name,omitempty"`
	RaterAvatar *string   `json:"rater_avatar,omitempty"`
}

// MessageView is a chat message.
type MessageView struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	GroupID     uint      `json:"group_id"`
	Content     string    `json:"content"`
	ContentPath *string   `json:"content_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SocialStats aggregates a user's standing.
type SocialStats struct {
	UserID         uint    `json:"user_id"`
	AverageRating  float64 `json:"average_rating"`
	FollowerCount  int64   `json:"follower_count"`
	FollowingCount int64   `json:"following_count"`
}

// Token is the login response.
type Token struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
}
