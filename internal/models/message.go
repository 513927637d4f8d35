package models

import "time"

// Message is a chat message. GroupID holds the recipient user's id.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_message_conversation" json:"user_id"`
	GroupID     uint      `gorm:"not null;index:idx_message_conversation" json:"group_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentPath *string   `gorm:"size:1024" json:"content_path,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}
