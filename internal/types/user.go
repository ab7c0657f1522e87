package types

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID             uint                       `gorm:"primaryKey" json:"id"`
	Name           string                     `gorm:"not null;column:name" json:"name"`
	Email          string                     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password       string                     `gorm:"not null;column:password" json:"-"`
	Gravatar       string                     `gorm:"column:gravatar" json:"gravatar"`
	FavoriteGenres datatypes.JSONSlice[int64] `gorm:"type:jsonb;column:favorite_genres" json:"favorite_genres"`
	CreatedAt      time.Time                  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time                  `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
