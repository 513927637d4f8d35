package models

import "time"

// List is a named collection of items owned by a user (wish lists, offer lists).
type List struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Name        string     `gorm:"size:50;not null" json:"name"`
	Description *string    `gorm:"size:250" json:"description,omitempty"`
	IsPublic    bool       `gorm:"not null" json:"is_public"`
	CreatedAt   time.Time  `json:"created_at"`
	Items       []ListItem `gorm:"foreignKey:ListID" json:"items,omitempty"`
}

// TableName specifies the table name for GORM
func (List) TableName() string {
	return "lists"
}

// ListItem is one entry of a List. Wanted distinguishes wanted items from offered ones.
type ListItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ListID      uint   `gorm:"not null;index" json:"list_id"`
	Name        string `gorm:"size:50;not null" json:"name"`
	Description string `gorm:"size:250" json:"description"`
	Wanted      bool   `gorm:"not null;default:false" json:"wanted"`
}

// TableName specifies the table name for GORM
func (ListItem) TableName() string {
	return "list_items"
}
