package models

import "time"

// Post is a marketplace publication.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Title       string     `gorm:"size:50;not null" json:"title"`
	Description string     `gorm:"size:250" json:"description"`
	Features    *string    `gorm:"type:text" json:"features,omitempty"`
	IsDraft     bool       `gorm:"not null;default:false;index" json:"is_draft"`
	Price       float64    `gorm:"not null;default:0" json:"price"`
	Status      int        `gorm:"not null;default:0" json:"status"`
	Visits      int        `gorm:"not null;default:0" json:"visits"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	ModifiedAt  *time.Time `json:"modified_at,omitempty"`

	Author   *User     `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	Media    []Media   `gorm:"foreignKey:PostID" json:"media,omitempty"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// Media is a file attached to a post. Name and Extension identify it within the post.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index:idx_media_post_file" json:"post_id"`
	Path      string    `gorm:"size:1024;not null" json:"path"`
	Name      string    `gorm:"size:255;not null;index:idx_media_post_file" json:"name"`
	Extension string    `gorm:"size:16;index:idx_media_post_file" json:"extension"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Media) TableName() string {
	return "media"
}
