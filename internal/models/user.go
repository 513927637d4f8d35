// Package models contains the persisted entity shapes and the application error type.
package models

import "time"

// User is a registered account. Password holds a bcrypt hash.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Nick       string     `gorm:"size:25" json:"nick"`
	Name       string     `gorm:"size:50;not null" json:"name"`
	Surname    string     `gorm:"size:50" json:"surname"`
	Password   string     `gorm:"size:255;not null" json:"-"`
	Email      string     `gorm:"size:50;not null;uniqueIndex" json:"email"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	AvatarPath *string    `gorm:"size:512" json:"avatar_path,omitempty"`
	CoverPath  *string    `gorm:"size:512" json:"cover_path,omitempty"`
	Rating     *float64   `json:"rating,omitempty"`
	IsPrivate  *bool      `gorm:"default:false" json:"is_private,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// FullName returns "Name Surname", trimmed when the surname is empty.
func (u User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}

// Private reports whether the profile is hidden from other users.
func (u User) Private() bool {
	return u.IsPrivate != nil && *u.IsPrivate
}
