package models

import "time"

// Rating bounds.
const (
	MinRatingAmount = 1
	MaxRatingAmount = 5
)

// Rating is a score one user gives another.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RaterID   uint      `gorm:"not null;uniqueIndex:idx_rating_pair" json:"rater_id"`
	RatedID   uint      `gorm:"not null;uniqueIndex:idx_rating_pair;index" json:"rated_id"`
	Amount    int       `gorm:"not null" json:"amount"`
	Comment   *string   `gorm:"size:250" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Rater *User `gorm:"foreignKey:RaterID" json:"rater,omitempty"`
}

// TableName specifies the table name for GORM
func (Rating) TableName() string {
	return "ratings"
}
