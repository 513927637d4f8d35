package models

import "time"

// Comment belongs to a post. ParentID is 0 for top-level comments.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ParentID  uint      `gorm:"not null;default:0;index" json:"parent_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"size:250;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// TableName specifies the table name for GORM
func (Comment) TableName() string {
	return "comments"
}

// IsRoot reports whether the comment is top-level.
func (c Comment) IsRoot() bool {
	return c.ParentID == 0
}
